// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package run drives a whole console test run: it connects to the device,
// reads its menu, runs the selected tests and reports the results.
package run

import (
	"context"

	"code.cloudfoundry.org/clock"
	"github.com/google/uuid"

	"go.chromium.org/dutconsole/errors"
	"go.chromium.org/dutconsole/internal/config"
	"go.chromium.org/dutconsole/internal/logging"
	"go.chromium.org/dutconsole/internal/menu"
	"go.chromium.org/dutconsole/internal/reporting"
	"go.chromium.org/dutconsole/internal/runner"
	"go.chromium.org/dutconsole/internal/transport"
)

// ErrNoTests is returned by Run if the range is detected from the menu and
// the menu lists no tests.
var ErrNoTests = errors.New("could not detect any tests from the menu")

// Result describes a run. It is returned even if the run stopped early.
type Result struct {
	RunID string
	Menu  *menu.Menu
	// First and Last are the selected test range, inclusive.
	First, Last int
	Report      runner.Report
	// Complete is true if every test in the range ran.
	Complete bool
}

// deps holds the external dependencies of a run, replaced in unit tests.
type deps struct {
	open     func(ctx context.Context, opts transport.Options) (transport.Transport, error)
	clock    clock.Clock
	hostInfo func(ctx context.Context) (*reporting.Host, error)
	newRunID func() string
}

func defaultDeps() *deps {
	return &deps{
		open:     transport.Open,
		clock:    clock.NewClock(),
		hostInfo: reporting.CollectHost,
		newRunID: uuid.NewString,
	}
}

// Run runs tests per cfg. Messages are logged via ctx as the run progresses.
//
// Results are summarized and written to cfg.OutDir() whenever at least one
// test finished, including when ctx is canceled in the middle of the run.
// The returned Result is nil only if no test could be started.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	return runWith(ctx, cfg, defaultDeps())
}

// List reads the device menu without running tests.
func List(ctx context.Context, cfg *config.Config) (*menu.Menu, error) {
	return listWith(ctx, cfg, defaultDeps())
}

func listWith(ctx context.Context, cfg *config.Config, d *deps) (*menu.Menu, error) {
	tr, err := connect(ctx, cfg, d)
	if err != nil {
		return nil, err
	}
	defer closeTransport(ctx, tr)
	return discover(ctx, cfg, d, tr)
}

func runWith(ctx context.Context, cfg *config.Config, d *deps) (res *Result, retErr error) {
	tr, err := connect(ctx, cfg, d)
	if err != nil {
		return nil, err
	}
	defer closeTransport(ctx, tr)

	m, err := discover(ctx, cfg, d, tr)
	if err != nil {
		return nil, err
	}

	first, last, err := selectRange(ctx, cfg, m)
	if err != nil {
		return nil, err
	}

	res = &Result{RunID: d.newRunID(), Menu: m, First: first, Last: last}
	defer func() {
		res.Complete = retErr == nil
		// Reporting must survive an interrupted run.
		if err := report(context.WithoutCancel(ctx), cfg, d, res); err != nil && retErr == nil {
			retErr = err
		}
	}()

	r := runner.New(tr, runner.Config{
		Retries:      cfg.Retries(),
		TestTimeout:  cfg.TestTimeout(),
		PollInterval: cfg.ReadTimeout(),
		SettleDelay:  cfg.SettleDelay(),
		MaxFailures:  cfg.MaxFailures(),
		Clock:        d.clock,
		Progress: func(_ *runner.TestResult, stats runner.Stats) {
			logging.Infof(ctx, "Progress: %d/%d tests finished, %d not passed", stats.Total, last-first+1, stats.Total-stats.Passed)
		},
	})
	logging.Infof(ctx, "Running tests %d to %d", first, last)
	if err := r.RunRange(ctx, first, last, cfg.CustomFailure(), &res.Report); err != nil {
		if errors.Is(err, context.Canceled) {
			logging.Info(ctx, "Test execution interrupted")
		}
		return res, errors.Wrap(err, "failed to run tests")
	}
	return res, nil
}

func connect(ctx context.Context, cfg *config.Config, d *deps) (transport.Transport, error) {
	opts := cfg.TransportOptions()
	opts.Clock = d.clock
	logging.Infof(ctx, "Connecting to %s", cfg.Endpoint())
	tr, err := d.open(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to device")
	}
	return tr, nil
}

func closeTransport(ctx context.Context, tr transport.Transport) {
	if err := tr.Close(); err != nil {
		logging.Info(ctx, "Failed to close device console: ", err)
	}
}

func discover(ctx context.Context, cfg *config.Config, d *deps, tr transport.Transport) (*menu.Menu, error) {
	m, err := menu.Discover(ctx, tr, menu.Options{
		Timeout:      cfg.MenuTimeout(),
		PollInterval: cfg.ReadTimeout(),
		Clock:        d.clock,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read test menu")
	}
	return m, nil
}

// selectRange returns the tests to run: the range given in cfg, or every
// test up to the largest menu index.
func selectRange(ctx context.Context, cfg *config.Config, m *menu.Menu) (first, last int, err error) {
	detected := m.MaxIndex()
	if first, last, ok := cfg.Range(); ok {
		if detected > 0 {
			logging.Infof(ctx, "Menu shows %d tests, but will run %d to %d as specified", detected, first, last)
			if last > detected {
				logging.Infof(ctx, "Warning: specified end (%d) exceeds detected tests (%d)", last, detected)
			}
		}
		return first, last, nil
	}
	if detected == 0 {
		return 0, 0, ErrNoTests
	}
	logging.Infof(ctx, "Auto-detected test range: 1 to %d", detected)
	return 1, detected, nil
}
