// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package logging_test

import (
	"bytes"
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/dutconsole/internal/logging"
)

// memorySink is a Sink that accumulates logs to an in-memory buffer.
type memorySink struct {
	mu   sync.Mutex
	msgs []string
}

func (ms *memorySink) Log(msg string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.msgs = append(ms.msgs, msg)
}

func (ms *memorySink) Get() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.msgs...)
}

func TestSinkLogger_Level(t *testing.T) {
	var sink memorySink
	logger := logging.NewSinkLogger(logging.LevelInfo, false, &sink)
	logger.Log(logging.LevelInfo, time.Time{}, "foo")
	logger.Log(logging.LevelDebug, time.Time{}, "bar")

	want := []string{"foo"}
	if diff := cmp.Diff(sink.Get(), want); diff != "" {
		t.Errorf("Messages mismatch (-got +want):\n%s", diff)
	}
}

func TestSinkLogger_Timestamp(t *testing.T) {
	var sink memorySink
	logger := logging.NewSinkLogger(logging.LevelDebug, true, &sink)
	logger.Log(logging.LevelDebug, time.Date(2025, 3, 4, 5, 6, 7, 8000, time.UTC), "foo")

	want := []string{"2025-03-04T05:06:07.000008Z foo"}
	if diff := cmp.Diff(sink.Get(), want); diff != "" {
		t.Errorf("Messages mismatch (-got +want):\n%s", diff)
	}
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := logging.NewWriterSink(&buf)
	sink.Log("foo")
	sink.Log("bar")

	if got, want := buf.String(), "foo\nbar\n"; got != want {
		t.Errorf("Written %q; want %q", got, want)
	}
}

func TestContextLogging(t *testing.T) {
	// Logging via a context without a logger is a no-op.
	logging.Info(context.Background(), "dropped")

	var got []string
	var levels []logging.Level
	logger := logging.NewFuncLogger(func(level logging.Level, ts time.Time, msg string) {
		levels = append(levels, level)
		got = append(got, msg)
	})
	ctx := logging.AttachLogger(context.Background(), logger)
	if !logging.HasLogger(ctx) {
		t.Fatal("HasLogger = false; want true")
	}

	logging.Info(ctx, "a", 1)
	logging.Infof(ctx, "b%d", 2)
	logging.Debug(logging.SetLogPrefix(ctx, "[3] "), "c")
	logging.Debugf(ctx, "bad\xffbyte")

	if diff := cmp.Diff(got, []string{"a1", "b2", "[3] c", "badbyte"}); diff != "" {
		t.Errorf("Messages mismatch (-got +want):\n%s", diff)
	}
	wantLevels := []logging.Level{logging.LevelInfo, logging.LevelInfo, logging.LevelDebug, logging.LevelDebug}
	if diff := cmp.Diff(levels, wantLevels); diff != "" {
		t.Errorf("Levels mismatch (-got +want):\n%s", diff)
	}
}

func TestAttachLoggerPropagates(t *testing.T) {
	var parent, child memorySink
	ctx := logging.AttachLogger(context.Background(), logging.NewSinkLogger(logging.LevelInfo, false, &parent))
	ctx = logging.AttachLogger(ctx, logging.NewSinkLogger(logging.LevelDebug, false, &child))

	logging.Info(ctx, "info")
	logging.Debug(ctx, "debug")

	if diff := cmp.Diff(parent.Get(), []string{"info"}); diff != "" {
		t.Errorf("Parent messages mismatch (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(child.Get(), []string{"info", "debug"}); diff != "" {
		t.Errorf("Child messages mismatch (-got +want):\n%s", diff)
	}
}

func TestTimestampPattern(t *testing.T) {
	var sink memorySink
	ctx := logging.AttachLogger(context.Background(), logging.NewSinkLogger(logging.LevelInfo, true, &sink))
	logging.Info(ctx, "hello")

	msgs := sink.Get()
	re := regexp.MustCompile(`^\d{4}-\d\d-\d\dT\d\d:\d\d:\d\d\.\d{6}Z hello$`)
	if len(msgs) != 1 || !re.MatchString(msgs[0]) {
		t.Errorf("Messages %q; want one matching %q", msgs, re)
	}
}
