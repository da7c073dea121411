// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package transport

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"

	"go.chromium.org/dutconsole/errors"
)

// ErrClosed is returned by operations on a closed stream.
var ErrClosed = errors.New("transport is closed")

// stream implements Transport on top of an io.ReadWriteCloser. A background
// goroutine splits incoming bytes into lines so that ReadLine can give up
// waiting without losing a partially received line.
type stream struct {
	name        string
	rwc         io.ReadWriteCloser
	clk         clock.Clock
	readTimeout time.Duration

	lines  chan string
	errc   chan error // receives the terminal read error; capacity 1
	closed chan struct{}

	closeOnce sync.Once
	closeErr  error

	readErr error // sticky terminal read error; only touched by ReadLine
}

func newStream(name string, rwc io.ReadWriteCloser, clk clock.Clock, readTimeout time.Duration) *stream {
	s := &stream{
		name:        name,
		rwc:         rwc,
		clk:         clk,
		readTimeout: readTimeout,
		lines:       make(chan string),
		errc:        make(chan error, 1),
		closed:      make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *stream) readLoop() {
	br := bufio.NewReader(s.rwc)
	for {
		b, err := br.ReadBytes('\n')
		if len(b) > 0 {
			select {
			case s.lines <- decodeLine(b):
			case <-s.closed:
				return
			}
		}
		if err != nil {
			s.errc <- err
			return
		}
	}
}

// decodeLine converts raw console bytes to text. Bytes that are not valid
// UTF-8 are dropped rather than failing the line.
func decodeLine(b []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(b), ""))
}

func (s *stream) Write(b []byte) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}
	if _, err := s.rwc.Write(b); err != nil {
		return errors.Wrapf(err, "failed to write to %s", s.name)
	}
	return nil
}

func (s *stream) ReadLine(timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = s.readTimeout
	}

	// Hand out a line that is already waiting before looking at errors, so
	// that output sent right before a disconnect is not lost.
	select {
	case line := <-s.lines:
		return line, nil
	default:
	}
	if s.readErr != nil {
		return "", s.readErr
	}

	tm := s.clk.NewTimer(timeout)
	defer tm.Stop()

	select {
	case line := <-s.lines:
		return line, nil
	case err := <-s.errc:
		select {
		case <-s.closed:
			s.readErr = ErrClosed
		default:
			s.readErr = errors.Wrapf(err, "lost connection to %s", s.name)
		}
		return "", s.readErr
	case <-s.closed:
		return "", ErrClosed
	case <-tm.C():
		return "", nil
	}
}

func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.closeErr = s.rwc.Close()
	})
	return s.closeErr
}
