// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package main implements the dutconsole executable, used to run Unity test
// apps on a device over its serial console.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"golang.org/x/crypto/ssh/terminal"

	"go.chromium.org/dutconsole/internal/command"
	"go.chromium.org/dutconsole/internal/logging"
)

// Version is the version info of this command. It is filled in at build time.
var Version = "<unknown>"

// newLogger creates a logging.Logger based on the supplied command-line flags.
func newLogger(verbose, logTime bool) logging.Logger {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	return logging.NewSinkLogger(level, logTime, logging.NewWriterSink(os.Stdout))
}

// terminalRestorer returns a function that restores the state stdin's
// terminal is in now. A forced exit skips deferred cleanup, so the terminal
// must be restored explicitly.
func terminalRestorer(ctx context.Context) func(os.Signal) {
	fd := int(os.Stdin.Fd())
	if !terminal.IsTerminal(fd) {
		return nil
	}
	st, err := terminal.GetState(fd)
	if err != nil {
		logging.Info(ctx, "Failed to get terminal state: ", err)
		return nil
	}
	return func(os.Signal) { terminal.Restore(fd, st) }
}

// doMain implements the main body of the program. It's a separate function so
// that its deferred functions will run before os.Exit makes the program exit
// immediately.
func doMain() int {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(newRunCmd(), "")
	subcommands.Register(newListCmd(os.Stdout), "")
	subcommands.Register(newEmulateCmd(), "")

	version := flag.Bool("version", false, "print version and exit")
	verbose := flag.Bool("verbose", false, "use verbose logging")
	logTime := flag.Bool("logtime", true, "include date/time headers in logs")
	flag.Parse()

	if *version {
		fmt.Printf("dutconsole version %s\n", Version)
		return 0
	}

	ctx := logging.AttachLogger(context.Background(), newLogger(*verbose, *logTime))
	ctx, stop := command.InstallSignalHandler(ctx, os.Stderr, terminalRestorer(ctx))
	defer stop()

	return int(subcommands.Execute(ctx))
}

func main() {
	os.Exit(doMain())
}
