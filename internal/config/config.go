// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package config defines the configuration of a console test run.
package config

import (
	"flag"
	"time"

	"go.chromium.org/dutconsole/errors"
	"go.chromium.org/dutconsole/internal/command"
	"go.chromium.org/dutconsole/internal/transport"
)

// Mode describes the action to perform.
type Mode int

const (
	// RunTestsMode indicates that tests should be run and their results reported.
	RunTestsMode Mode = iota
	// ListTestsMode indicates that the device menu should only be listed.
	ListTestsMode
)

const (
	defaultRetries     = 4
	defaultTestTimeout = 120 * time.Second
	defaultSettleDelay = time.Second
	defaultMenuTimeout = time.Minute
	defaultOutDir      = "./build"
)

// MutableConfig is similar to Config, but its fields are mutable.
// Call Freeze to obtain a Config from MutableConfig.
type MutableConfig struct {
	// See Config for descriptions of these fields.

	Mode     Mode
	Endpoint string

	Baud        int
	ReadTimeout time.Duration
	MenuTimeout time.Duration

	First command.OptionalIntFlag
	Last  command.OptionalIntFlag

	CustomFailure string
	Retries       int
	TestTimeout   time.Duration
	SettleDelay   time.Duration
	MaxFailures   int
	OutDir        string
}

// NewMutableConfig returns a new configuration for the supplied mode.
func NewMutableConfig(mode Mode) *MutableConfig {
	return &MutableConfig{Mode: mode}
}

// SetFlags adds flags to f that store values in c.
func (c *MutableConfig) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.Baud, "baud", transport.DefaultBaud, "serial baud rate")
	f.Var(command.NewDurationFlag(time.Second, &c.ReadTimeout, transport.DefaultReadTimeout), "readtimeout", "maximum wait for a single line of output in seconds")
	f.Var(command.NewDurationFlag(time.Second, &c.MenuTimeout, defaultMenuTimeout), "menutimeout", "maximum wait for the test menu in seconds (0 waits forever)")

	// Some flags are only relevant if we're running tests rather than listing them.
	if c.Mode == RunTestsMode {
		f.Var(&c.First, "start", "first test number to run (requires -end; default: 1)")
		f.Var(&c.Last, "end", "last test number to run (requires -start; default: detected from menu)")
		f.StringVar(&c.CustomFailure, "customfailure", "", "additional output fragment that marks a test as failed")
		f.IntVar(&c.Retries, "retries", defaultRetries, "maximum attempts per failing test")
		f.Var(command.NewDurationFlag(time.Second, &c.TestTimeout, defaultTestTimeout), "timeout", "per-test timeout in seconds")
		f.Var(command.NewDurationFlag(time.Millisecond, &c.SettleDelay, defaultSettleDelay), "settle", "delay between tests in milliseconds")
		f.IntVar(&c.MaxFailures, "maxfailures", 0, "stop after this many tests did not pass (0 means no limit)")
		f.StringVar(&c.OutDir, "outdir", defaultOutDir, "directory for result files")
	}
}

// Validate checks that c is consistent. It must be called before Freeze.
func (c *MutableConfig) Validate() error {
	if c.Endpoint == "" {
		return errors.New("device endpoint not specified")
	}
	if c.Baud <= 0 {
		return errors.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.ReadTimeout <= 0 {
		return errors.New("-readtimeout must be positive")
	}
	if c.MenuTimeout < 0 {
		return errors.New("-menutimeout must not be negative")
	}
	if c.Mode != RunTestsMode {
		return nil
	}

	if c.First.IsSet() != c.Last.IsSet() {
		return errors.New("-start and -end must be specified together")
	}
	if c.First.IsSet() {
		if c.First.Value() < 1 {
			return errors.Errorf("-start must be at least 1; got %d", c.First.Value())
		}
		if c.First.Value() > c.Last.Value() {
			return errors.Errorf("-start (%d) must not exceed -end (%d)", c.First.Value(), c.Last.Value())
		}
	}
	if c.Retries < 1 {
		return errors.Errorf("-retries must be at least 1; got %d", c.Retries)
	}
	if c.TestTimeout < time.Second {
		return errors.New("-timeout must be at least 1 second")
	}
	if c.SettleDelay < 0 {
		return errors.New("-settle must not be negative")
	}
	if c.MaxFailures < 0 {
		return errors.New("-maxfailures must not be negative")
	}
	if c.OutDir == "" {
		return errors.New("-outdir must not be empty")
	}
	return nil
}

// Freeze returns a frozen configuration object.
func (c *MutableConfig) Freeze() *Config {
	return &Config{m: c}
}

// Config contains the configuration of a run.
// All Config values are frozen and cannot be altered after construction.
type Config struct {
	m *MutableConfig
}

// Mode is the action to perform.
func (c *Config) Mode() Mode { return c.m.Mode }

// Endpoint is the serial device path or "tcp://host:port" address of the
// device console.
func (c *Config) Endpoint() string { return c.m.Endpoint }

// Baud is the serial line speed.
func (c *Config) Baud() int { return c.m.Baud }

// ReadTimeout is the longest a single read waits for a line. It is also the
// polling granularity for deadlines and interrupts.
func (c *Config) ReadTimeout() time.Duration { return c.m.ReadTimeout }

// MenuTimeout bounds menu discovery. Zero means no limit.
func (c *Config) MenuTimeout() time.Duration { return c.m.MenuTimeout }

// Range returns the explicitly requested test range. ok is false if the
// range should be detected from the device menu.
func (c *Config) Range() (first, last int, ok bool) {
	if !c.m.First.IsSet() {
		return 0, 0, false
	}
	return c.m.First.Value(), c.m.Last.Value(), true
}

// CustomFailure is an output fragment that marks a test as failed, or empty.
func (c *Config) CustomFailure() string { return c.m.CustomFailure }

// Retries is the maximum number of attempts per failing test.
func (c *Config) Retries() int { return c.m.Retries }

// TestTimeout bounds a single test attempt.
func (c *Config) TestTimeout() time.Duration { return c.m.TestTimeout }

// SettleDelay is the pause between consecutive tests.
func (c *Config) SettleDelay() time.Duration { return c.m.SettleDelay }

// MaxFailures is the number of non-passing tests after which a run stops.
// Zero means no limit.
func (c *Config) MaxFailures() int { return c.m.MaxFailures }

// OutDir is the directory where result files are written.
func (c *Config) OutDir() string { return c.m.OutDir }

// TransportOptions returns options to open the device console.
func (c *Config) TransportOptions() transport.Options {
	return transport.Options{
		Address:     c.m.Endpoint,
		Baud:        c.m.Baud,
		ReadTimeout: c.m.ReadTimeout,
	}
}
