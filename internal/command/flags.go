// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package command contains helpers shared by command-line executables.
package command

import (
	"strconv"
	"time"
)

// DurationFlag implements flag.Value to save a user-supplied integer duration
// with fixed units to a time.Duration.
type DurationFlag struct {
	units time.Duration
	dst   *time.Duration
}

// NewDurationFlag returns a DurationFlag that interprets values in units and
// stores them to dst. dst is set to def immediately.
func NewDurationFlag(units time.Duration, dst *time.Duration, def time.Duration) *DurationFlag {
	*dst = def
	return &DurationFlag{units: units, dst: dst}
}

func (f *DurationFlag) String() string {
	if f.dst == nil || f.units == 0 {
		return ""
	}
	return strconv.FormatInt(int64(*f.dst/f.units), 10)
}

// Set parses v as an integer count of units.
func (f *DurationFlag) Set(v string) error {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return err
	}
	*f.dst = time.Duration(n) * f.units
	return nil
}

// OptionalIntFlag implements flag.Value for an integer flag whose absence is
// distinguishable from any value the user could supply.
type OptionalIntFlag struct {
	val int
	set bool
}

// IsSet reports whether the flag was supplied.
func (f *OptionalIntFlag) IsSet() bool { return f.set }

// Value returns the supplied value, or 0 if the flag was not supplied.
func (f *OptionalIntFlag) Value() int { return f.val }

func (f *OptionalIntFlag) String() string {
	if !f.set {
		return ""
	}
	return strconv.Itoa(f.val)
}

// Set parses v as a decimal integer.
func (f *OptionalIntFlag) Set(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	f.val = n
	f.set = true
	return nil
}
