// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package errors provides basic utilities to construct errors.
//
// To construct new errors or wrap other errors, use this package rather than
// the standard library. Errors created here record the location where they
// were created, and an error chain can be printed with its locations by
// formatting it with the "%+v" verb.
//
//	errors.New("serial port is not open")
//	errors.Errorf("test %d did not respond", id)
//	errors.Wrap(err, "failed to open serial port")
//	errors.Wrapf(err, "failed to start test %d", id)
//
// Errors returned by Wrap and Wrapf unwrap to their cause, so Is and As see
// through them:
//
//	if errors.Is(err, context.Canceled) { ... }
package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// maxDepth is the maximum number of stack frames recorded per error.
const maxDepth = 8

// E is the error implementation used by this package.
type E struct {
	msg   string
	pcs   []uintptr
	cause error
}

func newE(msg string, cause error) *E {
	pcs := make([]uintptr, maxDepth+1)
	// Skip runtime.Callers, newE and the exported constructor.
	pcs = pcs[:runtime.Callers(3, pcs)]
	return &E{msg: msg, pcs: pcs, cause: cause}
}

// Error implements the error interface.
func (e *E) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.msg, e.cause.Error())
}

// Unwrap returns the error wrapped by e, or nil.
func (e *E) Unwrap() error {
	return e.cause
}

// Format implements fmt.Formatter. The "%+v" verb prints the whole chain
// together with the recorded locations.
func (e *E) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		io.WriteString(s, formatChain(e))
		return
	}
	io.WriteString(s, e.Error())
}

func (e *E) stack() string {
	var lines []string
	frames := runtime.CallersFrames(e.pcs)
	for {
		f, more := frames.Next()
		lines = append(lines, fmt.Sprintf("\tat %s (%s:%d)", f.Function, filepath.Base(f.File), f.Line))
		if !more {
			break
		}
		if len(lines) >= maxDepth {
			lines = append(lines, "\t...")
			break
		}
	}
	return strings.Join(lines, "\n")
}

func formatChain(err error) string {
	var chain []string
	for err != nil {
		e, ok := err.(*E)
		if !ok {
			chain = append(chain, err.Error()+"\n\tat ???")
			break
		}
		chain = append(chain, e.msg+"\n"+e.stack())
		err = e.cause
	}
	return strings.Join(chain, "\n")
}

// New creates a new error with the given message.
func New(msg string) error {
	return newE(msg, nil)
}

// Errorf creates a new error with a message formatted by fmt.Sprintf.
func Errorf(format string, args ...interface{}) error {
	return newE(fmt.Sprintf(format, args...), nil)
}

// Wrap creates a new error with the given message, wrapping cause.
// If cause is nil, this is the same as New.
func Wrap(cause error, msg string) error {
	return newE(msg, cause)
}

// Wrapf is similar to Wrap but formats the message with fmt.Sprintf.
func Wrapf(cause error, format string, args ...interface{}) error {
	return newE(fmt.Sprintf(format, args...), cause)
}

// Is is the same as the standard errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is the same as the standard errors.As.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}
