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

package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emberhttp/ember/bufferpool"
	"github.com/emberhttp/ember/config"
	"github.com/emberhttp/ember/http1"
	"github.com/emberhttp/ember/logging"
	"github.com/emberhttp/ember/router"
)

// Threaded is the thread-per-connection engine: one goroutine per
// accepted connection, blocking reads and writes, admission control via
// an atomic connection counter, and read buffers drawn from a shared
// bounded pool.
type Threaded struct {
	cfg    config.Config
	router *router.Router
	pool   *bufferpool.Pool

	logger  *slog.Logger
	metrics *Metrics

	listener net.Listener
	closing  atomic.Bool
	wg       sync.WaitGroup

	counters
}

// NewThreaded creates a threaded engine. The buffer pool is sized from
// the configuration: one buffer of buffer_size bytes per connection up
// to max_buffers.
func NewThreaded(cfg config.Config, r *router.Router, opts ...Option) (*Threaded, error) {
	pool, err := bufferpool.New(int(cfg.BufferSize), cfg.MaxBuffers)
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer pool: %w", err)
	}

	o := newOptions(opts)
	return &Threaded{
		cfg:     cfg,
		router:  r,
		pool:    pool,
		logger:  o.logger,
		metrics: o.metrics,
	}, nil
}

// Pool exposes the engine's buffer pool, for stats and metrics wiring.
func (e *Threaded) Pool() *bufferpool.Pool {
	return e.pool
}

// Stats returns a snapshot of the engine counters.
func (e *Threaded) Stats() Stats {
	return e.counters.snapshot()
}

// ListenAndServe binds the configured address and serves until Shutdown.
func (e *Threaded) ListenAndServe() error {
	ln, err := listen(e.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", e.cfg.ListenAddr(), err)
	}
	return e.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. Each accepted
// connection is admitted with a single fetch-add on the active counter;
// when the post-increment value exceeds max_connections the add is
// compensated and the socket closed immediately.
func (e *Threaded) Serve(ln net.Listener) error {
	e.listener = ln
	e.logger.Info("listening",
		"engine", "threaded",
		"addr", ln.Addr().String(),
		"max_connections", e.cfg.MaxConnections,
	)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if e.closing.Load() {
				return ErrServerClosed
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		e.accepted.Add(1)
		if e.active.Add(1) > int64(e.cfg.MaxConnections) {
			e.active.Add(-1)
			e.rejected.Add(1)
			e.metrics.connRejected()
			_ = conn.Close()
			continue
		}
		e.metrics.connAccepted()

		e.wg.Add(1)
		go e.handle(conn)
	}
}

// handle services one connection: one buffered read, one parsed
// request, one response, close.
func (e *Threaded) handle(conn net.Conn) {
	defer func() {
		_ = conn.Close()
		e.active.Add(-1)
		e.metrics.connClosed()
		e.wg.Done()
	}()

	if e.cfg.ReadTimeoutMS > 0 {
		deadline := time.Now().Add(time.Duration(e.cfg.ReadTimeoutMS) * time.Millisecond)
		_ = conn.SetReadDeadline(deadline)
	}

	buf, err := e.pool.Acquire()
	if err != nil {
		// Exhaustion is load shedding, not failure: tell the client and
		// get off the line.
		e.logger.Warn("buffer pool exhausted", "remote", conn.RemoteAddr())
		e.write(conn, rawResponse(http1.StatusServiceUnavailable))
		return
	}
	defer e.releaseBuffer(buf)

	n, err := conn.Read(buf.Storage())
	if err != nil || n == 0 {
		// EOF before any bytes is a quiet close; anything else is the
		// peer's problem too.
		return
	}
	buf.SetValidLen(n)

	var out []byte
	var status int
	if n == buf.Cap() && !bytes.Contains(buf.Bytes(), crlfcrlf) {
		// Buffer filled without a complete header block.
		status = http1.StatusPayloadTooLarge
		out = rawResponse(status)
	} else {
		out, status = respond(e.router, buf.Bytes(), conn.RemoteAddr().String())
	}

	if e.write(conn, out) {
		e.requests.Add(1)
		e.metrics.requestDone(status)
	}

	if status == http1.StatusPayloadTooLarge {
		// The rest of the request is still unread. Closing now would send
		// an RST that can destroy the 413 before the client reads it, so
		// half-close and discard the remaining input first.
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.CloseWrite()
		}
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		_, _ = io.Copy(io.Discard, conn)
	}
}

// write transmits out in full, looping on partial writes. Returns false
// when the connection failed mid-write.
func (e *Threaded) write(conn net.Conn, out []byte) bool {
	if e.cfg.WriteTimeoutMS > 0 {
		deadline := time.Now().Add(time.Duration(e.cfg.WriteTimeoutMS) * time.Millisecond)
		_ = conn.SetWriteDeadline(deadline)
	}

	for written := 0; written < len(out); {
		n, err := conn.Write(out[written:])
		if err != nil {
			e.logger.Debug("write failed", "remote", conn.RemoteAddr(), "error", err)
			return false
		}
		written += n
	}
	return true
}

// releaseBuffer returns a buffer to the pool. Release failures are
// programmer errors: they are logged at critical severity and the
// connection dies, but the process does not.
func (e *Threaded) releaseBuffer(buf *bufferpool.Buffer) {
	if err := e.pool.Release(buf); err != nil {
		e.logger.Log(context.Background(), logging.LevelCritical,
			"buffer release failed", "error", err)
	}
}

// Shutdown stops accepting and waits for in-flight connections to
// drain, or for ctx to expire.
func (e *Threaded) Shutdown(ctx context.Context) error {
	e.closing.Store(true)
	if e.listener != nil {
		_ = e.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
