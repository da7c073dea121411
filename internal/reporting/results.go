// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package reporting

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"go.chromium.org/dutconsole/errors"
	"go.chromium.org/dutconsole/internal/runner"
)

// ResultsFilename is the name of the JSON results file under the output
// directory. It is rewritten on every run.
const ResultsFilename = "results.json"

// Test is the result of a single test.
// Fields are exported so they can be marshaled by the json package.
type Test struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
	// Outcome is one of "passed", "failed", "timeout" and "reboot".
	Outcome  string    `json:"outcome"`
	Attempts int       `json:"attempts"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// Host describes the machine the run was driven from.
type Host struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platformVersion"`
	KernelVersion   string `json:"kernelVersion"`
}

// Results describes a whole run.
type Results struct {
	RunID    string `json:"runId"`
	Endpoint string `json:"endpoint"`
	// First and Last are the requested test range, inclusive.
	First int   `json:"first"`
	Last  int   `json:"last"`
	Host  *Host `json:"host,omitempty"`
	// Complete is false if the run stopped before reaching Last.
	Complete bool         `json:"complete"`
	Stats    runner.Stats `json:"stats"`
	Tests    []*Test      `json:"tests"`
}

// NewResults builds Results from a batch report. name returns the menu name
// of a test and may be nil.
func NewResults(runID, endpoint string, first, last int, rep *runner.Report, name func(id int) string, complete bool) *Results {
	res := &Results{
		RunID:    runID,
		Endpoint: endpoint,
		First:    first,
		Last:     last,
		Complete: complete,
		Stats:    rep.Stats,
		Tests:    make([]*Test, 0, len(rep.Results)),
	}
	for _, r := range rep.Results {
		t := &Test{
			ID:       r.ID,
			Outcome:  r.Outcome.String(),
			Attempts: r.Attempts,
			Start:    r.Start,
			End:      r.End,
		}
		if name != nil {
			t.Name = name(r.ID)
		}
		res.Tests = append(res.Tests, t)
	}
	return res
}

// CollectHost returns information about the local machine.
func CollectHost(ctx context.Context) (*Host, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get host info")
	}
	return &Host{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
	}, nil
}

// WriteJSON writes res to ResultsFilename in dir, creating dir if needed.
func WriteJSON(dir string, res *Results) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	f, err := os.Create(filepath.Join(dir, ResultsFilename))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return errors.Wrap(err, "failed to encode results")
	}
	return f.Close()
}

// ReadJSON reads results written by WriteJSON from dir.
func ReadJSON(dir string) (*Results, error) {
	b, err := os.ReadFile(filepath.Join(dir, ResultsFilename))
	if err != nil {
		return nil, err
	}
	var res Results
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, errors.Wrap(err, "failed to decode results")
	}
	return &res, nil
}
