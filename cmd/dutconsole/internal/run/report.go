// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package run

import (
	"context"

	"go.chromium.org/dutconsole/errors"
	"go.chromium.org/dutconsole/internal/config"
	"go.chromium.org/dutconsole/internal/logging"
	"go.chromium.org/dutconsole/internal/reporting"
)

// report logs the summary of res and writes result files. Nothing is
// reported if no test finished.
func report(ctx context.Context, cfg *config.Config, d *deps, res *Result) error {
	rep := &res.Report
	if rep.Stats.Total == 0 {
		return nil
	}
	for _, line := range reporting.Summary(rep.Stats, rep.Failed) {
		logging.Info(ctx, line)
	}

	var firstErr error
	keep := func(err error, msg string) {
		if err == nil {
			return
		}
		err = errors.Wrap(err, msg)
		logging.Info(ctx, err)
		if firstErr == nil {
			firstErr = err
		}
	}

	path, err := reporting.AppendFailed(cfg.OutDir(), rep.Failed, d.clock.Now())
	keep(err, "failed to save failed test numbers")
	if path != "" {
		logging.Info(ctx, "Failed test numbers saved to ", path)
	}

	results := reporting.NewResults(res.RunID, cfg.Endpoint(), res.First, res.Last, rep, res.Menu.Name, res.Complete)
	if h, err := d.hostInfo(ctx); err != nil {
		logging.Info(ctx, "Failed collecting host info: ", err)
	} else {
		results.Host = h
	}
	keep(reporting.WriteJSON(cfg.OutDir(), results), "failed to write JSON results")
	keep(reporting.WriteJUnit(cfg.OutDir(), results, res.Menu.Name), "failed to write JUnit results")
	if !res.Complete {
		logging.Info(ctx, "Run did not finish; results are incomplete")
	}
	logging.Info(ctx, "Results saved to ", cfg.OutDir())
	return firstErr
}
