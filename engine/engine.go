// Copyright 2025 The Ember Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package engine contains the two execution models that drive the
// server: a thread-per-connection engine built on blocking I/O and
// goroutines, and a single-threaded reactor engine built on an epoll
// event loop (linux only).
//
// Both engines share the wire layer, the router, and the connection
// accounting contract: admission is a single atomic fetch-add followed
// by compensation, never a load-then-add. Each connection services one
// request and closes; responses always carry Connection: close.
package engine

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/emberhttp/ember/http1"
	"github.com/emberhttp/ember/router"
)

// ErrServerClosed is returned by ListenAndServe after Shutdown.
var ErrServerClosed = errors.New("engine: server closed")

// crlfcrlf is the header-block terminator both engines scan for.
var crlfcrlf = []byte("\r\n\r\n")

// writeInlineSize is the capacity of the reactor's inline write buffer.
// Responses that fit are copied inline; larger ones are retained as an
// owned overflow slice on the connection.
const writeInlineSize = 8 << 10

// Stats is a point-in-time snapshot of engine counters.
type Stats struct {
	Accepted uint64 // connections accepted
	Rejected uint64 // connections refused by admission control
	Active   int64  // connections currently open
	Requests uint64 // requests answered
}

// Engine is the contract shared by both execution models.
type Engine interface {
	// ListenAndServe binds the configured address and serves until
	// Shutdown, returning ErrServerClosed on a clean stop.
	ListenAndServe() error

	// Stats returns a snapshot of the engine counters.
	Stats() Stats
}

// Option defines functional options shared by both engines.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *Metrics
}

func newOptions(opts []Option) *options {
	o := &options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the engine logger.
// Default: a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics attaches Prometheus collectors to the engine.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// counters is the atomic accounting shared by both engines.
type counters struct {
	accepted atomic.Uint64
	rejected atomic.Uint64
	active   atomic.Int64
	requests atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Accepted: c.accepted.Load(),
		Rejected: c.rejected.Load(),
		Active:   c.active.Load(),
		Requests: c.requests.Load(),
	}
}

// rawResponse serializes a minimal plain-text response for error paths
// that bypass the router, such as parse failures and pool exhaustion.
func rawResponse(status int) []byte {
	resp := http1.NewResponse()
	resp.SetStatus(status)
	resp.Text([]byte(strconv.Itoa(status) + " " + http1.StatusText(status)))
	return resp.Build()
}

// respond parses raw and runs the request through the router, returning
// the serialized response and its status. Parse and route failures never
// escape: every outcome is response bytes.
func respond(r *router.Router, raw []byte, remoteAddr string) ([]byte, int) {
	req, err := http1.ParseRequest(raw)
	if err != nil {
		status := http1.StatusForError(err)
		return rawResponse(status), status
	}
	req.RemoteAddr = remoteAddr

	resp := http1.NewResponse()
	r.Dispatch(req, resp)
	return resp.Build(), resp.Status()
}
