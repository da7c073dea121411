// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"

	"go.chromium.org/dutconsole/cmd/dutconsole/internal/run"
	"go.chromium.org/dutconsole/internal/config"
	"go.chromium.org/dutconsole/internal/menu"
)

// runWrapper is a wrapper that allows functions from the run package to be stubbed out for testing.
type runWrapper interface {
	// run calls run.Run.
	run(ctx context.Context, cfg *config.Config) (*run.Result, error)
	// list calls run.List.
	list(ctx context.Context, cfg *config.Config) (*menu.Menu, error)
}

// realRunWrapper is a runWrapper implementation that calls the real functions in the run package.
type realRunWrapper struct{}

func (w realRunWrapper) run(ctx context.Context, cfg *config.Config) (*run.Result, error) {
	return run.Run(ctx, cfg)
}

func (w realRunWrapper) list(ctx context.Context, cfg *config.Config) (*menu.Menu, error) {
	return run.List(ctx, cfg)
}
