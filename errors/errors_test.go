// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"testing"
)

func check(t *testing.T, err error, msg string, traceRegexp *regexp.Regexp) {
	t.Helper()
	if s := err.Error(); s != msg {
		t.Errorf("Wrong error message %q; want %q", s, msg)
	}
	if s := fmt.Sprintf("%v", err); s != msg {
		t.Errorf("Wrong default value %q; want %q", s, msg)
	}
	if tr := fmt.Sprintf("%+v", err); !traceRegexp.MatchString(tr) {
		t.Errorf("Wrong trace %q; should match %q", tr, traceRegexp)
	}
}

func TestNew(t *testing.T) {
	traceRegexp := regexp.MustCompile(`^no menu
	at go\.chromium\.org/dutconsole/errors\.TestNew \(errors_test.go:\d+\)`)
	check(t, New("no menu"), "no menu", traceRegexp)
}

func TestErrorf(t *testing.T) {
	traceRegexp := regexp.MustCompile(`^test 3 hung
	at go\.chromium\.org/dutconsole/errors\.TestErrorf \(errors_test.go:\d+\)`)
	check(t, Errorf("test %d hung", 3), "test 3 hung", traceRegexp)
}

func TestWrap(t *testing.T) {
	traceRegexp := regexp.MustCompile(`(?s)^open
	at go\.chromium\.org/dutconsole/errors\.TestWrap \(errors_test.go:\d+\)
.*
no such device
	at go\.chromium\.org/dutconsole/errors\.TestWrap \(errors_test.go:\d+\)`)
	check(t, Wrap(New("no such device"), "open"), "open: no such device", traceRegexp)
}

func TestWrapForeignError(t *testing.T) {
	traceRegexp := regexp.MustCompile(`(?s)^open
	at go\.chromium\.org/dutconsole/errors\.TestWrapForeignError \(errors_test.go:\d+\)
.*
no such device
	at \?\?\?$`)
	check(t, Wrap(stderrors.New("no such device"), "open"), "open: no such device", traceRegexp)
}

func TestWrapNil(t *testing.T) {
	traceRegexp := regexp.MustCompile(`^open
	at go\.chromium\.org/dutconsole/errors\.TestWrapNil \(errors_test.go:\d+\)`)
	check(t, Wrap(nil, "open"), "open", traceRegexp)
}

func TestIsThroughWraps(t *testing.T) {
	err := Wrapf(Wrap(context.Canceled, "caught interrupt"), "test %d", 4)
	if !Is(err, context.Canceled) {
		t.Errorf("Is(%v, context.Canceled) = false; want true", err)
	}
	if Is(err, context.DeadlineExceeded) {
		t.Errorf("Is(%v, context.DeadlineExceeded) = true; want false", err)
	}
	var e *E
	if !As(err, &e) {
		t.Fatalf("As(%v, *E) = false; want true", err)
	}
}
