// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"net"

	"github.com/google/subcommands"

	"go.chromium.org/dutconsole/internal/fakedut"
	"go.chromium.org/dutconsole/internal/logging"
)

// emulateCmd implements subcommands.Command to serve an emulated device
// console over TCP.
type emulateCmd struct {
	listen string
	tests  int
}

var _ = subcommands.Command(&emulateCmd{})

func newEmulateCmd() *emulateCmd {
	return &emulateCmd{}
}

func (*emulateCmd) Name() string     { return "emulate" }
func (*emulateCmd) Synopsis() string { return "serve an emulated device console" }
func (*emulateCmd) Usage() string {
	return `Usage: emulate [flag]... [scenario.yaml]

Description:
    Serves an emulated Unity test app console over TCP until interrupted.
    Point run or list at tcp://<listen address> to use it.

    The optional scenario file lists the tests and the behavior of each run:

        lineDelay: 10ms
        tests:
          - index: 1
            name: fsm start
            group: state_machine
            steps: [fail, pass]   # pass, fail, reboot, hang, custom:<text>

    Without a scenario, -tests tests that always pass are emulated.

Flag:
`
}

func (e *emulateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&e.listen, "listen", "127.0.0.1:7000", "TCP address to listen on")
	f.IntVar(&e.tests, "tests", 5, "number of passing tests to emulate without a scenario file")
}

func (e *emulateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var sc *fakedut.Scenario
	switch len(f.Args()) {
	case 0:
		sc = fakedut.PassingScenario(e.tests)
	case 1:
		var err error
		if sc, err = fakedut.LoadScenario(f.Arg(0)); err != nil {
			logging.Info(ctx, "Failed to load scenario: ", err)
			return subcommands.ExitUsageError
		}
	default:
		logging.Info(ctx, "Too many arguments.\n\n"+e.Usage())
		return subcommands.ExitUsageError
	}

	ln, err := net.Listen("tcp", e.listen)
	if err != nil {
		logging.Info(ctx, "Failed to listen: ", err)
		return subcommands.ExitFailure
	}
	logging.Infof(ctx, "Emulating %d tests at tcp://%s", len(sc.Tests), ln.Addr())

	if err := fakedut.NewServer(sc, nil).Serve(ctx, ln); err != nil {
		logging.Info(ctx, "Emulator failed: ", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
