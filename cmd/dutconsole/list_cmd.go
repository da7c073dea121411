// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"

	"go.chromium.org/dutconsole/internal/config"
	"go.chromium.org/dutconsole/internal/logging"
)

// listCmd implements subcommands.Command to support listing the device menu.
type listCmd struct {
	json    bool                  // marshal entries to JSON instead of a table
	cfg     *config.MutableConfig // config for listing tests
	wrapper runWrapper            // wraps calls to run package
	stdout  io.Writer             // where to write tests
}

var _ = subcommands.Command(&listCmd{})

// newListCmd returns a new listCmd that will write tests to stdout.
func newListCmd(stdout io.Writer) *listCmd {
	return &listCmd{
		cfg:     config.NewMutableConfig(config.ListTestsMode),
		wrapper: &realRunWrapper{},
		stdout:  stdout,
	}
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list tests offered by the device menu" }
func (*listCmd) Usage() string {
	return `Usage: list [flag]... <endpoint>

Description:
    Reads the test menu of the device and prints its entries without
    running any test.

Endpoint:
    A serial device such as /dev/ttyUSB0, or tcp://host:port.

Flag:
`
}

func (lc *listCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&lc.json, "json", false, "print entries as JSON")
	lc.cfg.SetFlags(f)
}

type listEntry struct {
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
}

func (lc *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(f.Args()) != 1 {
		logging.Info(ctx, "Expected exactly one endpoint.\n\n"+lc.Usage())
		return subcommands.ExitUsageError
	}
	lc.cfg.Endpoint = f.Arg(0)
	if err := lc.cfg.Validate(); err != nil {
		logging.Info(ctx, "Invalid flags: ", err)
		return subcommands.ExitUsageError
	}

	m, err := lc.wrapper.list(ctx, lc.cfg.Freeze())
	if err != nil {
		logging.Info(ctx, "Failed to list tests: ", err)
		return subcommands.ExitFailure
	}

	if lc.json {
		entries := make([]listEntry, len(m.Entries))
		for i, e := range m.Entries {
			entries[i] = listEntry{Index: e.Index, Name: e.Name}
		}
		enc := json.NewEncoder(lc.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			logging.Info(ctx, "Failed to write tests: ", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	for _, e := range m.Entries {
		fmt.Fprintf(lc.stdout, "%4d  %s\n", e.Index, e.Name)
	}
	return subcommands.ExitSuccess
}
