// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package console interprets lines printed by a device's interactive test
// menu.
package console

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Sentinel fragments printed by the device. A line matches a sentinel if it
// contains it anywhere, since the device may decorate its output.
const (
	SuccessText   = "0 Failures"
	FailureText   = "1 Failures"
	MenuReadyText = "Enter test for running"
	RebootText    = "Rebooting..."
)

// Kind identifies the meaning of a console line.
type Kind int

const (
	// None is a line without protocol meaning.
	None Kind = iota
	// TestSuccess reports that the running test passed.
	TestSuccess
	// TestFailure reports that the running test failed.
	TestFailure
	// CustomFailure reports that the caller-supplied failure text was seen.
	CustomFailure
	// Reboot reports that the device is restarting.
	Reboot
	// MenuEntry is a line of the test menu, e.g. `(3) "mutex lock" [utils]`.
	MenuEntry
	// MenuReady reports that the device waits for a test id.
	MenuReady
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case TestSuccess:
		return "success"
	case TestFailure:
		return "failure"
	case CustomFailure:
		return "custom-failure"
	case Reboot:
		return "reboot"
	case MenuEntry:
		return "menu-entry"
	case MenuReady:
		return "menu-ready"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Signal is the classification of a single console line.
type Signal struct {
	Kind Kind
	// Index and Name are set only for MenuEntry. Name is empty if the entry
	// has no quoted name.
	Index int
	Name  string
}

// Terminal reports whether s ends a test attempt.
func (s Signal) Terminal() bool {
	switch s.Kind {
	case TestSuccess, TestFailure, CustomFailure, Reboot:
		return true
	}
	return false
}

// menuEntryRE matches a menu entry at the start of a line, capturing the
// index and an optional quoted name.
var menuEntryRE = regexp.MustCompile(`^\((\d+)\)(?:\s*"([^"]*)")?`)

// Classify maps a line of device output to a Signal. customFailure is an
// optional fragment treated as a test failure; it is ignored if empty.
//
// If a line matches more than one sentinel, the first of Reboot,
// CustomFailure, TestFailure, TestSuccess, MenuReady and MenuEntry wins.
func Classify(line, customFailure string) Signal {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return Signal{Kind: None}
	case strings.Contains(line, RebootText):
		return Signal{Kind: Reboot}
	case customFailure != "" && strings.Contains(line, customFailure):
		return Signal{Kind: CustomFailure}
	case strings.Contains(line, FailureText):
		return Signal{Kind: TestFailure}
	case strings.Contains(line, SuccessText):
		return Signal{Kind: TestSuccess}
	case strings.Contains(line, MenuReadyText):
		return Signal{Kind: MenuReady}
	}
	if m := menuEntryRE.FindStringSubmatch(line); m != nil {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			// Too many digits to be a real menu index.
			return Signal{Kind: None}
		}
		return Signal{Kind: MenuEntry, Index: idx, Name: strings.TrimSpace(m[2])}
	}
	return Signal{Kind: None}
}
