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

// stubRunWrapper is a stub implementation of runWrapper used for testing.
type stubRunWrapper struct {
	runCfg *config.Config // config passed to run or list
	runRes *run.Result    // result to return from run
	runErr error          // error to return from run or list

	listRes *menu.Menu // menu to return from list
}

func (w *stubRunWrapper) run(ctx context.Context, cfg *config.Config) (*run.Result, error) {
	w.runCfg = cfg
	return w.runRes, w.runErr
}

func (w *stubRunWrapper) list(ctx context.Context, cfg *config.Config) (*menu.Menu, error) {
	w.runCfg = cfg
	return w.listRes, w.runErr
}
