// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package console

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassify(t *testing.T) {
	for _, tc := range []struct {
		line   string
		custom string
		want   Signal
	}{
		{"", "", Signal{Kind: None}},
		{"I (123) main: boot done", "", Signal{Kind: None}},
		{"1 Tests 0 Failures 0 Ignored", "", Signal{Kind: TestSuccess}},
		{"1 Tests 1 Failures 0 Ignored", "", Signal{Kind: TestFailure}},
		{"Enter test for running.", "", Signal{Kind: MenuReady}},
		{"Rebooting...", "", Signal{Kind: Reboot}},
		{"abort() was called; Rebooting...", "", Signal{Kind: Reboot}},
		{"(1)", "", Signal{Kind: MenuEntry, Index: 1}},
		{`(12)	"mutex lock" [utils]`, "", Signal{Kind: MenuEntry, Index: 12, Name: "mutex lock"}},
		{`  (5) "padded"  `, "", Signal{Kind: MenuEntry, Index: 5, Name: "padded"}},
		{"see (3) below", "", Signal{Kind: None}},
		{"(x) not an entry", "", Signal{Kind: None}},
		{"(99999999999999999999999)", "", Signal{Kind: None}},
		{"assert failed: heap corrupted", "heap corrupted", Signal{Kind: CustomFailure}},
		{"assert failed: heap corrupted", "", Signal{Kind: None}},
		// Precedence when a line carries several sentinels.
		{"Rebooting... 1 Failures", "", Signal{Kind: Reboot}},
		{"Rebooting... ERROR", "ERROR", Signal{Kind: Reboot}},
		{"ERROR 0 Failures", "ERROR", Signal{Kind: CustomFailure}},
		{"ERROR 1 Failures", "ERROR", Signal{Kind: CustomFailure}},
		{"1 Failures 0 Failures", "", Signal{Kind: TestFailure}},
		{"0 Failures Enter test for running", "", Signal{Kind: TestSuccess}},
		{"(4) Enter test for running", "", Signal{Kind: MenuReady}},
	} {
		if got := Classify(tc.line, tc.custom); got != tc.want {
			t.Errorf("Classify(%q, %q) = %+v; want %+v", tc.line, tc.custom, got, tc.want)
		}
	}
}

func TestClassifyIsPure(t *testing.T) {
	lines := []string{`(2) "a"`, "Rebooting...", "0 Failures", "noise", "1 Failures", "Enter test for running"}
	var first, second []Signal
	for _, l := range lines {
		first = append(first, Classify(l, "noise"))
	}
	for _, l := range lines {
		second = append(second, Classify(l, "noise"))
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Classification changed between passes (-first +second):\n%s", diff)
	}
}

func TestSignalTerminal(t *testing.T) {
	for k, want := range map[Kind]bool{
		None:          false,
		TestSuccess:   true,
		TestFailure:   true,
		CustomFailure: true,
		Reboot:        true,
		MenuEntry:     false,
		MenuReady:     false,
	} {
		if got := (Signal{Kind: k}).Terminal(); got != want {
			t.Errorf("Signal{%v}.Terminal() = %v; want %v", k, got, want)
		}
	}
}
