// Copyright 2025 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package transport provides line-oriented access to a device console over a
// serial port or a TCP socket.
package transport

import (
	"context"
	"net"
	"strings"
	"time"

	"code.cloudfoundry.org/clock"

	"go.chromium.org/dutconsole/errors"
)

const (
	// DefaultBaud is the throughput used when Options.Baud is zero.
	DefaultBaud = 115200
	// DefaultReadTimeout is used when Options.ReadTimeout is zero.
	DefaultReadTimeout = time.Second

	tcpScheme = "tcp://"
)

// Transport is a duplex byte stream to a device console, read one line at a
// time.
type Transport interface {
	// Write sends b to the device.
	Write(b []byte) error
	// ReadLine waits up to timeout for a complete line and returns it with
	// surrounding whitespace trimmed. It returns an empty string and a nil
	// error if no complete line arrived in time. A non-nil error means the
	// link to the device is unusable. A non-positive timeout selects the
	// session's read timeout.
	ReadLine(timeout time.Duration) (string, error)
	// Close releases the endpoint. It is safe to call more than once.
	Close() error
}

// Options describes a transport session.
type Options struct {
	// Address is a serial device path such as "/dev/ttyUSB0", or
	// "tcp://host:port" for a console exposed over the network.
	Address string
	// Baud is the serial line speed. It is ignored for TCP.
	Baud int
	// ReadTimeout is the default wait of a single ReadLine call.
	ReadTimeout time.Duration
	// Clock is used for read timeouts. The real clock is used if nil.
	Clock clock.Clock
}

// IsTCP reports whether addr names a TCP endpoint.
func IsTCP(addr string) bool {
	return strings.HasPrefix(addr, tcpScheme)
}

// Open opens the endpoint described by opts.
func Open(ctx context.Context, opts Options) (Transport, error) {
	if opts.Address == "" {
		return nil, errors.New("no endpoint address given")
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.NewClock()
	}
	rt := opts.ReadTimeout
	if rt <= 0 {
		rt = DefaultReadTimeout
	}

	if hostPort, ok := strings.CutPrefix(opts.Address, tcpScheme); ok {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", hostPort)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to connect to %s", hostPort)
		}
		return newStream(opts.Address, conn, clk, rt), nil
	}

	baud := opts.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	port, err := openSerial(opts.Address, baud)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", opts.Address)
	}
	return newStream(opts.Address, port, clk, rt), nil
}
