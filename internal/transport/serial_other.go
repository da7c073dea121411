// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build !linux

package transport

import (
	"io"

	"go.chromium.org/dutconsole/errors"
)

func openSerial(path string, baud int) (io.ReadWriteCloser, error) {
	return nil, errors.New("serial ports are only supported on Linux; use a tcp:// endpoint")
}
