// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"

	"golang.org/x/sys/unix"

	"go.chromium.org/dutconsole/errors"
)

// ExitInterrupted is the exit status used when the operator interrupts a run.
const ExitInterrupted = 130

var selfName = filepath.Base(os.Args[0])

// InstallSignalHandler returns a context that is canceled on the first SIGINT
// or SIGTERM so that work in progress can wind down and results can still be
// reported. The cancellation cause wraps context.Canceled and names the signal.
//
// A second signal calls force and terminates the process immediately with
// ExitInterrupted. out is the output stream for messages (typically stderr).
// The returned function uninstalls the handler.
func InstallSignalHandler(ctx context.Context, out io.Writer, force func(sig os.Signal)) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)

	ch := make(chan os.Signal, 2)
	done := make(chan struct{})
	signal.Notify(ch, unix.SIGINT, unix.SIGTERM)

	go func() {
		var sig os.Signal
		select {
		case sig = <-ch:
		case <-done:
			return
		}
		fmt.Fprintf(out, "\n%s: Caught %v signal; stopping after the current step\n", selfName, sig)
		if sig == unix.SIGTERM {
			dumpGoroutines(out)
		}
		cancel(errors.Wrapf(context.Canceled, "caught %v signal", sig))

		select {
		case sig = <-ch:
		case <-done:
			return
		}
		fmt.Fprintf(out, "\n%s: Caught %v signal again; exiting\n", selfName, sig)
		if force != nil {
			force(sig)
		}
		os.Exit(ExitInterrupted)
	}()

	return ctx, func() {
		signal.Stop(ch)
		close(done)
		cancel(context.Canceled)
	}
}

// dumpGoroutines writes all goroutine stacks to out. SIGTERM is usually sent
// by a supervising process on timeout, where stacks help debugging a hang.
func dumpGoroutines(out io.Writer) {
	fmt.Fprintf(out, "\n%s: Dumping all goroutines...\n\n", selfName)
	if p := pprof.Lookup("goroutine"); p != nil {
		p.WriteTo(out, 2)
	}
	fmt.Fprintf(out, "\n%s: Finished dumping goroutines\n", selfName)
}
