// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package reporting summarizes finished runs and persists their results.
package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"go.chromium.org/dutconsole/internal/runner"
)

const ruleWidth = 70

// Summary returns the lines of the human-readable summary of a run.
// failed lists the ids of tests that did not pass.
func Summary(stats runner.Stats, failed []int) []string {
	rule := strings.Repeat("=", ruleWidth)
	lines := []string{
		"",
		rule,
		"TEST EXECUTION SUMMARY",
		rule,
		fmt.Sprintf("Total tests:    %d", stats.Total),
		fmt.Sprintf("Passed:         %d (%.1f%%)", stats.Passed, stats.PassRate()),
		fmt.Sprintf("Failed:         %d", stats.Failed),
		fmt.Sprintf("Timeout:        %d", stats.TimedOut),
		fmt.Sprintf("Reboot:         %d", stats.Rebooted),
		"",
	}
	if len(failed) > 0 {
		lines = append(lines, "Failed test numbers: "+joinIDs(failed))
	} else {
		lines = append(lines, "All tests passed!")
	}
	return append(lines, rule, "")
}

func joinIDs(ids []int) string {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = strconv.Itoa(id)
	}
	return strings.Join(strs, ", ")
}
