// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package transporttest provides a scripted transport.Transport for unit
// tests.
package transporttest

import (
	"time"

	"code.cloudfoundry.org/clock/fakeclock"

	"go.chromium.org/dutconsole/errors"
	"go.chromium.org/dutconsole/internal/transport"
)

// Line is a line of device output.
type Line struct {
	// Text is the line content.
	Text string
	// Delay is the time the device takes to emit the line, measured from
	// the previous line or from the command that caused it.
	Delay time.Duration
}

// Lines returns lines emitted without delay.
func Lines(texts ...string) []Line {
	ls := make([]Line, len(texts))
	for i, s := range texts {
		ls[i] = Line{Text: s}
	}
	return ls
}

// Responder returns the device output caused by a write of cmd.
type Responder func(cmd string) []Line

// Fake is a transport.Transport whose device output is scripted by a
// Responder. Waiting is simulated by advancing a fake clock, so reads never
// block.
type Fake struct {
	clk     *fakeclock.FakeClock
	respond Responder
	pending []Line
	writes  []string
	closes  int

	// ReadErr, if non-nil, is returned by ReadLine once all pending output
	// has been read.
	ReadErr error
	// WriteErr, if non-nil, is returned by Write.
	WriteErr error
}

var _ transport.Transport = (*Fake)(nil)

// New returns a Fake that advances clk while waiting for output.
func New(clk *fakeclock.FakeClock, respond Responder) *Fake {
	return &Fake{clk: clk, respond: respond}
}

// Emit queues device output that is not caused by a write.
func (f *Fake) Emit(lines ...Line) {
	f.pending = append(f.pending, lines...)
}

// Write records cmd and queues the device's response to it.
func (f *Fake) Write(b []byte) error {
	if f.closes > 0 {
		return transport.ErrClosed
	}
	if f.WriteErr != nil {
		return f.WriteErr
	}
	cmd := string(b)
	f.writes = append(f.writes, cmd)
	if f.respond != nil {
		f.pending = append(f.pending, f.respond(cmd)...)
	}
	return nil
}

// ReadLine returns the next pending line if it is emitted within timeout,
// advancing the clock by its delay. Otherwise it advances the clock by
// timeout and returns an empty string.
func (f *Fake) ReadLine(timeout time.Duration) (string, error) {
	if f.closes > 0 {
		return "", transport.ErrClosed
	}
	if timeout <= 0 {
		timeout = transport.DefaultReadTimeout
	}
	if len(f.pending) == 0 {
		if f.ReadErr != nil {
			return "", f.ReadErr
		}
		f.clk.Increment(timeout)
		return "", nil
	}
	next := &f.pending[0]
	if next.Delay > timeout {
		next.Delay -= timeout
		f.clk.Increment(timeout)
		return "", nil
	}
	f.clk.Increment(next.Delay)
	text := next.Text
	f.pending = f.pending[1:]
	return text, nil
}

// Close marks the Fake closed.
func (f *Fake) Close() error {
	f.closes++
	return nil
}

// Writes returns all commands written so far.
func (f *Fake) Writes() []string {
	return append([]string(nil), f.writes...)
}

// Closes returns the number of times Close was called.
func (f *Fake) Closes() int {
	return f.closes
}

// ErrLinkDown can be assigned to ReadErr to simulate a lost device link.
var ErrLinkDown = errors.New("device link down")
