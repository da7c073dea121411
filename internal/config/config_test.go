// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package config_test

import (
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/dutconsole/internal/config"
	"go.chromium.org/dutconsole/internal/transport"
)

func parse(t *testing.T, mode config.Mode, args ...string) *config.MutableConfig {
	t.Helper()
	cfg := config.NewMutableConfig(mode)
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	cfg.SetFlags(flags)
	if err := flags.Parse(args); err != nil {
		t.Fatalf("Parse(%q) failed: %v", args, err)
	}
	cfg.Endpoint = "/dev/ttyUSB0"
	return cfg
}

func TestMutableConfigRunDefaults(t *testing.T) {
	cfg := parse(t, config.RunTestsMode)
	if err := cfg.Validate(); err != nil {
		t.Fatal("Validate failed: ", err)
	}
	c := cfg.Freeze()

	type values struct {
		Baud          int
		ReadTimeout   time.Duration
		MenuTimeout   time.Duration
		Retries       int
		TestTimeout   time.Duration
		SettleDelay   time.Duration
		MaxFailures   int
		OutDir        string
		CustomFailure string
	}
	got := values{c.Baud(), c.ReadTimeout(), c.MenuTimeout(), c.Retries(), c.TestTimeout(), c.SettleDelay(), c.MaxFailures(), c.OutDir(), c.CustomFailure()}
	want := values{115200, time.Second, time.Minute, 4, 120 * time.Second, time.Second, 0, "./build", ""}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Defaults mismatch (-got +want):\n%s", diff)
	}
	if _, _, ok := c.Range(); ok {
		t.Error("Range() reported an explicit range by default")
	}
}

func TestMutableConfigListFlags(t *testing.T) {
	cfg := config.NewMutableConfig(config.ListTestsMode)
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	cfg.SetFlags(flags)
	for _, name := range []string{"baud", "readtimeout", "menutimeout"} {
		if flags.Lookup(name) == nil {
			t.Errorf("Flag -%s not registered for list mode", name)
		}
	}
	for _, name := range []string{"start", "end", "retries", "outdir"} {
		if flags.Lookup(name) != nil {
			t.Errorf("Flag -%s registered for list mode", name)
		}
	}
}

func TestMutableConfigParse(t *testing.T) {
	cfg := parse(t, config.RunTestsMode,
		"-baud=9600", "-readtimeout=2", "-menutimeout=0", "-start=3", "-end=7",
		"-customfailure=ASSERT", "-retries=2", "-timeout=30", "-settle=250",
		"-maxfailures=5", "-outdir=/tmp/out")
	if err := cfg.Validate(); err != nil {
		t.Fatal("Validate failed: ", err)
	}
	c := cfg.Freeze()

	if first, last, ok := c.Range(); !ok || first != 3 || last != 7 {
		t.Errorf("Range() = (%d, %d, %v); want (3, 7, true)", first, last, ok)
	}
	if got := c.SettleDelay(); got != 250*time.Millisecond {
		t.Errorf("SettleDelay() = %v; want 250ms", got)
	}
	if got := c.MenuTimeout(); got != 0 {
		t.Errorf("MenuTimeout() = %v; want 0", got)
	}
	if got, want := c.TransportOptions(), (transport.Options{Address: "/dev/ttyUSB0", Baud: 9600, ReadTimeout: 2 * time.Second}); !cmp.Equal(got, want) {
		t.Errorf("TransportOptions() = %+v; want %+v", got, want)
	}
	if c.CustomFailure() != "ASSERT" || c.Retries() != 2 || c.TestTimeout() != 30*time.Second || c.MaxFailures() != 5 || c.OutDir() != "/tmp/out" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
}

func TestMutableConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		args    []string
		wantErr string
	}{
		{[]string{"-start=3"}, "together"},
		{[]string{"-end=3"}, "together"},
		{[]string{"-start=0", "-end=3"}, "-start must be at least 1"},
		{[]string{"-start=5", "-end=4"}, "must not exceed"},
		{[]string{"-retries=0"}, "-retries"},
		{[]string{"-timeout=0"}, "-timeout"},
		{[]string{"-readtimeout=0"}, "-readtimeout"},
		{[]string{"-menutimeout=-1"}, "-menutimeout"},
		{[]string{"-settle=-1"}, "-settle"},
		{[]string{"-maxfailures=-1"}, "-maxfailures"},
		{[]string{"-baud=0"}, "baud"},
		{[]string{"-outdir="}, "-outdir"},
	} {
		cfg := parse(t, config.RunTestsMode, tc.args...)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("Validate() for %q succeeded unexpectedly", tc.args)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantErr) {
			t.Errorf("Validate() for %q = %q; want error containing %q", tc.args, err, tc.wantErr)
		}
	}
}

func TestMutableConfigValidateSingleTest(t *testing.T) {
	cfg := parse(t, config.RunTestsMode, "-start=4", "-end=4")
	if err := cfg.Validate(); err != nil {
		t.Error("Validate failed for a single-test range: ", err)
	}
}

func TestMutableConfigValidateNoEndpoint(t *testing.T) {
	cfg := parse(t, config.ListTestsMode)
	cfg.Endpoint = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate succeeded without an endpoint")
	}
}
