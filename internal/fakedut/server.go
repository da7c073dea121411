// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package fakedut emulates a device console that runs Unity test apps, so
// runs can be exercised without hardware.
package fakedut

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"code.cloudfoundry.org/clock"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"go.chromium.org/dutconsole/errors"
	"go.chromium.org/dutconsole/internal/console"
	"go.chromium.org/dutconsole/internal/logging"
)

// Server serves a Scenario to console clients. Run counts are shared by all
// connections, as on a real device that keeps running while clients come
// and go.
type Server struct {
	sc    *Scenario
	clk   clock.Clock
	tests map[int]*Test

	mu   sync.Mutex
	runs map[int]int
}

// NewServer returns a Server emulating sc. clk is used for line delays; the
// real clock is used if nil.
func NewServer(sc *Scenario, clk clock.Clock) *Server {
	if clk == nil {
		clk = clock.NewClock()
	}
	tests := make(map[int]*Test)
	for _, t := range sc.Tests {
		tests[t.Index] = t
	}
	return &Server{sc: sc, clk: clk, tests: tests, runs: make(map[int]int)}
}

// Serve accepts connections on ln until ctx is canceled, then closes ln and
// all open connections. It returns nil after a cancellation.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		ln.Close()
		return nil
	})
	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return errors.Wrap(err, "failed to accept")
			}
			logging.Infof(ctx, "Console client connected from %v", conn.RemoteAddr())
			g.Go(func() error {
				s.session(ctx, conn)
				return nil
			})
		}
	})
	return g.Wait()
}

// Runs returns the number of times test index was started.
func (s *Server) Runs(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[index]
}

func (s *Server) nextStep(t *Test) Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.runs[t.Index]
	s.runs[t.Index]++
	if len(t.Steps) == 0 {
		return StepPass
	}
	if n >= len(t.Steps) {
		n = len(t.Steps) - 1
	}
	return t.Steps[n]
}

type printer struct {
	w     io.Writer
	delay func()
}

func (p *printer) println(format string, args ...interface{}) error {
	p.delay()
	_, err := fmt.Fprintf(p.w, format+"\r\n", args...)
	return err
}

func (s *Server) session(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	p := &printer{w: conn, delay: func() {
		if s.sc.LineDelay > 0 {
			s.clk.Sleep(s.sc.LineDelay)
		}
	}}

	// A freshly booted app announces its menu prompt.
	if err := p.println("Press ENTER to see the list of tests."); err != nil {
		return
	}
	rd := bufio.NewReader(conn)
	lastBlank := false
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				logging.Debugf(ctx, "Console session ended: %v", err)
			}
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			// Several newlines in a row print the menu once.
			if !lastBlank {
				if err := s.printMenu(p); err != nil {
					return
				}
			}
			lastBlank = true
			continue
		}
		lastBlank = false
		if err := s.handleCommand(ctx, p, line); err != nil {
			return
		}
	}
}

func (s *Server) printMenu(p *printer) error {
	if err := p.println(""); err != nil {
		return err
	}
	if err := p.println("Here's the test menu, pick your combo:"); err != nil {
		return err
	}
	indices := maps.Keys(s.tests)
	slices.Sort(indices)
	for _, i := range indices {
		t := s.tests[i]
		group := t.Group
		if group == "" {
			group = "default"
		}
		if err := p.println("(%d)\t%q\t[%s]", i, t.displayName(), group); err != nil {
			return err
		}
	}
	if err := p.println(""); err != nil {
		return err
	}
	return s.prompt(p)
}

func (s *Server) prompt(p *printer) error {
	return p.println("%s.", console.MenuReadyText)
}

func (s *Server) handleCommand(ctx context.Context, p *printer, cmd string) error {
	idx, err := strconv.Atoi(cmd)
	t, ok := s.tests[idx]
	if err != nil || !ok {
		if err := p.println("Unknown test %q", cmd); err != nil {
			return err
		}
		return s.prompt(p)
	}

	step := s.nextStep(t)
	logging.Debugf(ctx, "Running test %d: %s", idx, step)
	if err := p.println("Running %s...", t.displayName()); err != nil {
		return err
	}
	switch step {
	case StepPass:
		if err := p.println("-----------------------"); err != nil {
			return err
		}
		if err := p.println("1 Tests 0 Failures 0 Ignored "); err != nil {
			return err
		}
	case StepFail:
		if err := p.println("test_main.c:%d:%s:FAIL: Expected TRUE Was FALSE", 40+idx, t.displayName()); err != nil {
			return err
		}
		if err := p.println("-----------------------"); err != nil {
			return err
		}
		if err := p.println("1 Tests 1 Failures 0 Ignored "); err != nil {
			return err
		}
	case StepReboot:
		if err := p.println("Guru Meditation Error: Core  0 panic'ed (LoadProhibited)."); err != nil {
			return err
		}
		if err := p.println(console.RebootText); err != nil {
			return err
		}
		if err := p.println("Press ENTER to see the list of tests."); err != nil {
			return err
		}
		return nil
	case StepHang:
		// Never report a verdict; the app stays unresponsive until the
		// next command.
		return nil
	default:
		if err := p.println("%s", strings.TrimPrefix(string(step), customPrefix)); err != nil {
			return err
		}
		if err := p.println("1 Tests 0 Failures 0 Ignored "); err != nil {
			return err
		}
	}
	if err := p.println("OK"); err != nil {
		return err
	}
	return p.println("Enter next test, or 'enter' to see menu")
}
