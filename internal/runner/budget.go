// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package runner

import (
	"go.chromium.org/dutconsole/errors"
)

// ErrTooManyFailures is wrapped by the error RunRange returns when
// Config.MaxFailures is reached.
var ErrTooManyFailures = errors.New("too many failures")

// failureBudget counts tests that did not pass and aborts a batch once a
// threshold is reached.
// nil is a valid failureBudget that never aborts, as if the threshold were
// infinite.
type failureBudget struct {
	threshold int
	fails     int
}

// newFailureBudget returns nil if threshold is not positive.
func newFailureBudget(threshold int) *failureBudget {
	if threshold <= 0 {
		return nil
	}
	return &failureBudget{threshold: threshold}
}

func (b *failureBudget) spend() {
	if b == nil {
		return
	}
	b.fails++
}

func (b *failureBudget) check() error {
	if b == nil || b.fails < b.threshold {
		return nil
	}
	return errors.Wrapf(ErrTooManyFailures, "aborting after %d tests did not pass", b.fails)
}
