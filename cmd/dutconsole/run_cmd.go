// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/kballard/go-shellquote"

	"go.chromium.org/dutconsole/cmd/dutconsole/internal/run"
	"go.chromium.org/dutconsole/errors"
	"go.chromium.org/dutconsole/internal/command"
	"go.chromium.org/dutconsole/internal/config"
	"go.chromium.org/dutconsole/internal/logging"
)

const fullLogName = "full.txt" // file in the output directory containing full output

// runCmd implements subcommands.Command to support running tests.
type runCmd struct {
	cfg     *config.MutableConfig // config for running tests
	wrapper runWrapper            // can be set by tests to stub out calls to run package
}

var _ = subcommands.Command(&runCmd{})

func newRunCmd() *runCmd {
	return &runCmd{
		cfg:     config.NewMutableConfig(config.RunTestsMode),
		wrapper: &realRunWrapper{},
	}
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run tests" }
func (*runCmd) Usage() string {
	return `Usage: run [flag]... <endpoint>

Description:
    Runs the tests of a Unity test app through the device's console menu.
    Without -start and -end, every test listed in the menu is run.

    Tests that report a failure are retried up to -retries times in total.
    Timeouts and reboots are recorded immediately without a retry.

    Exits with 0 if every test passed, 1 if a test did not pass or the run
    could not be completed, 2 for invalid flags and 130 if interrupted.

Endpoint:
    A serial device such as /dev/ttyUSB0, or tcp://host:port for a console
    exposed over the network (see the emulate command).

Flag:
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	r.cfg.SetFlags(f)
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(f.Args()) != 1 {
		logging.Info(ctx, "Expected exactly one endpoint.\n\n"+r.Usage())
		return subcommands.ExitUsageError
	}
	r.cfg.Endpoint = f.Arg(0)
	if err := r.cfg.Validate(); err != nil {
		logging.Info(ctx, "Invalid flags: ", err)
		return subcommands.ExitUsageError
	}
	cfg := r.cfg.Freeze()

	if err := os.MkdirAll(cfg.OutDir(), 0755); err != nil {
		logging.Info(ctx, err)
		return subcommands.ExitFailure
	}

	// Log the full output of the command to disk.
	fullLog, err := os.Create(filepath.Join(cfg.OutDir(), fullLogName))
	if err != nil {
		logging.Info(ctx, err)
		return subcommands.ExitFailure
	}
	defer fullLog.Close()

	logger := logging.NewSinkLogger(logging.LevelDebug, true, logging.NewWriterSink(fullLog))
	ctx = logging.AttachLogger(ctx, logger)

	logging.Info(ctx, "Command line: ", shellquote.Join(os.Args...))
	logging.Info(ctx, "Writing results to ", cfg.OutDir())

	res, err := r.wrapper.run(ctx, cfg)
	return exitStatus(ctx, res, err)
}

// exitStatus maps the outcome of a run to the process exit status.
func exitStatus(ctx context.Context, res *run.Result, err error) subcommands.ExitStatus {
	if err != nil {
		logging.Debugf(ctx, "Run error: %+v", err)
		if errors.Is(err, context.Canceled) {
			logging.Info(ctx, "Test execution interrupted by user")
			return subcommands.ExitStatus(command.ExitInterrupted)
		}
		logging.Info(ctx, "Failed to run tests: ", err)
		return subcommands.ExitFailure
	}
	if res.Report.Stats.Total == 0 || len(res.Report.Failed) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
