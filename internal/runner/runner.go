// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package runner drives tests on a device console one at a time, with retries
// for ordinary failures.
package runner

import (
	"context"
	"fmt"
	"time"

	"code.cloudfoundry.org/clock"

	"go.chromium.org/dutconsole/errors"
	"go.chromium.org/dutconsole/internal/console"
	"go.chromium.org/dutconsole/internal/logging"
	"go.chromium.org/dutconsole/internal/transport"
)

// Config controls test execution.
type Config struct {
	// Retries is the maximum number of attempts per test. Values below 1
	// are treated as 1.
	Retries int
	// TestTimeout bounds a single attempt.
	TestTimeout time.Duration
	// PollInterval is the longest a single read waits for a line.
	PollInterval time.Duration
	// SettleDelay is inserted between consecutive tests.
	SettleDelay time.Duration
	// MaxFailures aborts a batch once this many tests did not pass.
	// Zero or negative means no limit.
	MaxFailures int
	// Clock measures timeouts and delays. The real clock is used if nil.
	Clock clock.Clock
	// Progress, if non-nil, is called after each test's result is recorded.
	Progress func(res *TestResult, stats Stats)
}

// Runner runs tests over a single transport. It is not safe for concurrent
// use; the device console can only run one test at a time.
type Runner struct {
	tr  transport.Transport
	cfg Config
	clk clock.Clock
}

// New returns a Runner that drives the device behind tr.
func New(tr transport.Transport, cfg Config) *Runner {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewClock()
	}
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	return &Runner{tr: tr, cfg: cfg, clk: clk}
}

// RunOnce starts test id and waits for its verdict. customFailure is an
// optional fragment that counts as a failure while this attempt runs.
//
// Per-test problems are reported as an Outcome. An error is returned only if
// the transport fails or ctx is canceled.
func (r *Runner) RunOnce(ctx context.Context, id int, customFailure string) (Outcome, error) {
	if err := r.tr.Write([]byte(fmt.Sprintf("%d\n", id))); err != nil {
		return 0, errors.Wrapf(err, "failed to start test %d", id)
	}
	deadline := r.clk.Now().Add(r.cfg.TestTimeout)
	echo := logging.SetLogPrefix(ctx, fmt.Sprintf("  [%d] ", id))

	for {
		wait := r.cfg.PollInterval
		if rem := deadline.Sub(r.clk.Now()); wait <= 0 || rem < wait {
			wait = rem
		}
		line, err := r.tr.ReadLine(wait)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to read output of test %d", id)
		}
		if line != "" {
			logging.Info(echo, line)
			switch console.Classify(line, customFailure).Kind {
			case console.Reboot:
				return Rebooted, nil
			case console.CustomFailure, console.TestFailure:
				return Failed, nil
			case console.TestSuccess:
				return Passed, nil
			}
		}
		if err := ctx.Err(); err != nil {
			return 0, errors.Wrapf(err, "test %d interrupted", id)
		}
		if !r.clk.Now().Before(deadline) {
			return TimedOut, nil
		}
	}
}

// RunTest runs test id until it passes or retries are exhausted. Timeouts and
// reboots are never retried: the device is in an unknown state, and running
// the test again could disturb the tests that follow.
func (r *Runner) RunTest(ctx context.Context, id int, customFailure string) (*TestResult, error) {
	res := &TestResult{ID: id, Start: r.clk.Now()}
	for attempt := 1; attempt <= r.cfg.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "test %d interrupted", id)
		}
		logging.Infof(ctx, "[Test %d] Attempt %d/%d", id, attempt, r.cfg.Retries)
		out, err := r.RunOnce(ctx, id, customFailure)
		if err != nil {
			return nil, err
		}
		res.Attempts = attempt
		res.Outcome = out

		if out == Failed && attempt < r.cfg.Retries {
			logging.Infof(ctx, "[Test %d] Failed, retrying", id)
			continue
		}
		switch out {
		case Passed:
			logging.Infof(ctx, "[Test %d] PASSED", id)
		case Failed:
			logging.Infof(ctx, "[Test %d] FAILED after %d attempts", id, attempt)
		case TimedOut:
			logging.Infof(ctx, "[Test %d] TIMEOUT (exceeded %v)", id, r.cfg.TestTimeout)
		case Rebooted:
			logging.Infof(ctx, "[Test %d] REBOOT DETECTED", id)
		}
		break
	}
	res.End = r.clk.Now()
	return res, nil
}

// RunRange runs tests start through end inclusive and records their results
// in rep. If it returns early because of cancellation, a transport failure
// or too many failures, rep holds the results of all completed tests.
func (r *Runner) RunRange(ctx context.Context, start, end int, customFailure string, rep *Report) error {
	if start < 1 || end < start {
		return errors.Errorf("invalid test range [%d, %d]", start, end)
	}
	budget := newFailureBudget(r.cfg.MaxFailures)

	for id := start; id <= end; id++ {
		res, err := r.RunTest(ctx, id, customFailure)
		if err != nil {
			return err
		}
		rep.add(res)
		if r.cfg.Progress != nil {
			r.cfg.Progress(res, rep.Stats)
		}
		if res.Outcome != Passed {
			budget.spend()
			if err := budget.check(); err != nil {
				return err
			}
		}
		if id < end {
			if err := r.settle(ctx); err != nil {
				return errors.Wrapf(err, "interrupted after test %d", id)
			}
		}
	}
	return nil
}

// settle gives the device time to return to its menu before the next test.
func (r *Runner) settle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.cfg.SettleDelay <= 0 {
		return nil
	}
	tm := r.clk.NewTimer(r.cfg.SettleDelay)
	defer tm.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tm.C():
		return nil
	}
}
