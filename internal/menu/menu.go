// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package menu discovers the tests a device offers in its console menu.
package menu

import (
	"context"
	"time"

	"code.cloudfoundry.org/clock"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"go.chromium.org/dutconsole/errors"
	"go.chromium.org/dutconsole/internal/console"
	"go.chromium.org/dutconsole/internal/logging"
	"go.chromium.org/dutconsole/internal/transport"
)

// requestMenu is written to make the device print its menu.
const requestMenu = "\n\n"

// Entry is a test advertised by the menu.
type Entry struct {
	Index int
	Name  string
}

// Menu is the result of a discovery.
type Menu struct {
	// Entries lists the advertised tests in ascending index order. An index
	// printed more than once keeps the last name seen.
	Entries []Entry
}

// MaxIndex returns the largest advertised index, or 0 if the menu is empty.
func (m *Menu) MaxIndex() int {
	if len(m.Entries) == 0 {
		return 0
	}
	return m.Entries[len(m.Entries)-1].Index
}

// Name returns the name of the test at index, or an empty string.
func (m *Menu) Name(index int) string {
	for _, e := range m.Entries {
		if e.Index == index {
			return e.Name
		}
	}
	return ""
}

// Options controls a discovery.
type Options struct {
	// Timeout bounds the whole discovery. Zero waits until the device reports
	// it is ready, however long that takes.
	Timeout time.Duration
	// PollInterval is the longest a single read waits for a line.
	PollInterval time.Duration
	// Clock is used for the deadline. The real clock is used if nil.
	Clock clock.Clock
}

// Discover asks the device for its menu and collects entries until the device
// reports it is ready to accept a test id.
func Discover(ctx context.Context, tr transport.Transport, opts Options) (*Menu, error) {
	clk := opts.Clock
	if clk == nil {
		clk = clock.NewClock()
	}
	var deadline time.Time
	if opts.Timeout > 0 {
		deadline = clk.Now().Add(opts.Timeout)
	}

	logging.Info(ctx, "Requesting test menu")
	if err := tr.Write([]byte(requestMenu)); err != nil {
		return nil, errors.Wrap(err, "failed to request menu")
	}

	names := make(map[int]string)
	for {
		line, err := tr.ReadLine(opts.PollInterval)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read menu")
		}
		if line != "" {
			logging.Debug(ctx, "[menu] ", line)
			switch sig := console.Classify(line, ""); sig.Kind {
			case console.MenuEntry:
				names[sig.Index] = sig.Name
			case console.MenuReady:
				m := build(names)
				logging.Infof(ctx, "Test menu ready (detected %d tests)", m.MaxIndex())
				return m, nil
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "menu discovery interrupted")
		}
		if !deadline.IsZero() && !clk.Now().Before(deadline) {
			return nil, errors.Wrapf(context.DeadlineExceeded, "device did not print %q within %v", console.MenuReadyText, opts.Timeout)
		}
	}
}

func build(names map[int]string) *Menu {
	idx := maps.Keys(names)
	slices.Sort(idx)
	m := &Menu{Entries: make([]Entry, 0, len(idx))}
	for _, i := range idx {
		m.Entries = append(m.Entries, Entry{Index: i, Name: names[i]})
	}
	return m
}
