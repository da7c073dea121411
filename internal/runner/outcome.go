// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package runner

import (
	"fmt"
	"time"
)

// Outcome is the terminal result of a test attempt.
type Outcome int

const (
	// Passed means the device reported zero failures.
	Passed Outcome = iota
	// Failed means the device reported a failure or printed the custom
	// failure text.
	Failed
	// TimedOut means no verdict arrived before the per-test timeout.
	TimedOut
	// Rebooted means the device restarted while running the test.
	Rebooted
)

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case TimedOut:
		return "timeout"
	case Rebooted:
		return "reboot"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// TestResult is the final result of a test after retries.
type TestResult struct {
	ID       int
	Outcome  Outcome
	Attempts int
	Start    time.Time
	End      time.Time
}

// Stats counts final test outcomes. Total always equals the sum of the other
// fields.
type Stats struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	TimedOut int `json:"timeout"`
	Rebooted int `json:"reboot"`
}

// Record counts a final outcome.
func (s *Stats) Record(o Outcome) {
	switch o {
	case Passed:
		s.Passed++
	case Failed:
		s.Failed++
	case TimedOut:
		s.TimedOut++
	case Rebooted:
		s.Rebooted++
	default:
		panic(fmt.Sprintf("recording unknown outcome %v", o))
	}
	s.Total++
}

// PassRate returns the percentage of passed tests, or 0 if no test ran.
func (s *Stats) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) * 100 / float64(s.Total)
}

// Report accumulates the results of a batch. It is owned by the caller of
// Runner.RunRange and stays valid if the batch stops early.
type Report struct {
	Stats   Stats
	Results []*TestResult
	// Failed lists the ids of tests that did not pass, in execution order.
	Failed []int
}

func (r *Report) add(res *TestResult) {
	r.Results = append(r.Results, res)
	r.Stats.Record(res.Outcome)
	if res.Outcome != Passed {
		r.Failed = append(r.Failed, res.ID)
	}
}
