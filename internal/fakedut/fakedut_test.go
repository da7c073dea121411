// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package fakedut_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/nettest"

	"go.chromium.org/dutconsole/internal/fakedut"
	"go.chromium.org/dutconsole/internal/menu"
	"go.chromium.org/dutconsole/internal/runner"
	"go.chromium.org/dutconsole/internal/transport"
	"go.chromium.org/dutconsole/testutil"
)

const scenarioYAML = `
lineDelay: 1ms
tests:
  - index: 1
    name: fsm start
    group: state_machine
  - index: 2
    name: flaky
    steps: [fail, fail, pass]
  - index: 4
    name: crash
    steps: [reboot]
  - index: 5
    name: stuck
    steps: [hang]
  - index: 6
    name: noisy
    steps: ["custom:E (123) heap corrupted"]
`

// startServer serves sc on a local listener and returns its address and the
// server. The server is stopped when the test finishes.
func startServer(t *testing.T, sc *fakedut.Scenario) (string, *fakedut.Server) {
	t.Helper()
	ln, err := nettest.NewLocalListener("tcp")
	if err != nil {
		t.Fatal("Failed to listen: ", err)
	}
	srv := fakedut.NewServer(sc, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Error("Serve failed: ", err)
		}
	})
	return "tcp://" + ln.Addr().String(), srv
}

func dial(t *testing.T, addr string) transport.Transport {
	t.Helper()
	tr, err := transport.Open(context.Background(), transport.Options{Address: addr, ReadTimeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatal("Open failed: ", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestParseScenario(t *testing.T) {
	sc, err := fakedut.ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal("ParseScenario failed: ", err)
	}
	if sc.LineDelay != time.Millisecond {
		t.Errorf("LineDelay = %v; want 1ms", sc.LineDelay)
	}
	want := []fakedut.Step{"custom:E (123) heap corrupted"}
	if diff := cmp.Diff(sc.Tests[4].Steps, want); diff != "" {
		t.Errorf("Steps mismatch (-got +want):\n%s", diff)
	}
}

func TestParseScenarioErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
	}{
		{"bad step", "tests: [{index: 1, steps: [explode]}]"},
		{"zero index", "tests: [{index: 0}]"},
		{"duplicate index", "tests: [{index: 2}, {index: 2}]"},
		{"unknown field", "tests: [{index: 1, retries: 3}]"},
		{"negative delay", "lineDelay: -1s"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := fakedut.ParseScenario([]byte(tc.yaml)); err == nil {
				t.Error("ParseScenario succeeded unexpectedly")
			}
		})
	}
}

func TestLoadScenario(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)
	if err := testutil.WriteFiles(td, map[string]string{"dut.yaml": scenarioYAML}); err != nil {
		t.Fatal(err)
	}
	sc, err := fakedut.LoadScenario(filepath.Join(td, "dut.yaml"))
	if err != nil {
		t.Fatal("LoadScenario failed: ", err)
	}
	if len(sc.Tests) != 5 {
		t.Errorf("LoadScenario returned %d tests; want 5", len(sc.Tests))
	}
}

func TestServerMenu(t *testing.T) {
	sc, err := fakedut.ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	addr, _ := startServer(t, sc)
	tr := dial(t, addr)

	m, err := menu.Discover(context.Background(), tr, menu.Options{Timeout: 10 * time.Second, PollInterval: 100 * time.Millisecond})
	if err != nil {
		t.Fatal("Discover failed: ", err)
	}
	want := []menu.Entry{
		{Index: 1, Name: "fsm start"},
		{Index: 2, Name: "flaky"},
		{Index: 4, Name: "crash"},
		{Index: 5, Name: "stuck"},
		{Index: 6, Name: "noisy"},
	}
	if diff := cmp.Diff(m.Entries, want); diff != "" {
		t.Errorf("Entries mismatch (-got +want):\n%s", diff)
	}
}

func TestServerRunsScriptedSteps(t *testing.T) {
	sc, err := fakedut.ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	addr, srv := startServer(t, sc)
	tr := dial(t, addr)
	r := runner.New(tr, runner.Config{
		Retries:      4,
		TestTimeout:  time.Second,
		PollInterval: 50 * time.Millisecond,
	})

	for _, tc := range []struct {
		id           int
		custom       string
		want         runner.Outcome
		wantAttempts int
	}{
		{1, "", runner.Passed, 1},
		{2, "", runner.Passed, 3},
		{4, "", runner.Rebooted, 1},
		{5, "", runner.TimedOut, 1},
	} {
		res, err := r.RunTest(context.Background(), tc.id, tc.custom)
		if err != nil {
			t.Fatalf("RunTest(%d) failed: %v", tc.id, err)
		}
		if res.Outcome != tc.want || res.Attempts != tc.wantAttempts {
			t.Errorf("RunTest(%d) = %v after %d attempts; want %v after %d", tc.id, res.Outcome, res.Attempts, tc.want, tc.wantAttempts)
		}
	}
	if got := srv.Runs(2); got != 3 {
		t.Errorf("Test 2 started %d times; want 3", got)
	}
}

func TestServerCustomStep(t *testing.T) {
	for _, tc := range []struct {
		name   string
		custom string
		want   runner.Outcome
	}{
		{"fragment matches", "heap corrupted", runner.Failed},
		{"no fragment", "", runner.Passed},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sc := &fakedut.Scenario{Tests: []*fakedut.Test{{Index: 1, Steps: []fakedut.Step{"custom:E (123) heap corrupted"}}}}
			addr, _ := startServer(t, sc)
			r := runner.New(dial(t, addr), runner.Config{Retries: 1, TestTimeout: time.Second, PollInterval: 50 * time.Millisecond})

			got, err := r.RunOnce(context.Background(), 1, tc.custom)
			if err != nil {
				t.Fatal("RunOnce failed: ", err)
			}
			if got != tc.want {
				t.Errorf("RunOnce = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestPassingScenario(t *testing.T) {
	sc := fakedut.PassingScenario(3)
	var got []int
	for _, tc := range sc.Tests {
		got = append(got, tc.Index)
	}
	if diff := cmp.Diff(got, []int{1, 2, 3}); diff != "" {
		t.Errorf("Indices mismatch (-got +want):\n%s", diff)
	}
}
