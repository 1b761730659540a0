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

//go:build linux

package engine

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/emberhttp/ember/config"
	"github.com/emberhttp/ember/http1"
	"github.com/emberhttp/ember/router"
)

// connState is the per-connection position in the reactor state machine.
type connState uint8

const (
	stateReading connState = iota
	stateProcessing
	stateWriting
	stateClosing
)

// rconn is the per-connection record carried through the event loop.
// It is owned exclusively by the loop thread; no completion for the
// same connection is ever handled concurrently.
type rconn struct {
	fd     int
	id     uint64
	state  connState
	remote string

	readBuf []byte // fixed capacity, allocated once per connection
	readN   int

	inline   [writeInlineSize]byte
	overflow []byte // owned overflow response, nil when inline suffices
	out      []byte // bytes still to write (inline or overflow backed)
	written  int
}

// setResponse installs the serialized response, copying into the inline
// buffer when it fits and taking ownership of out otherwise.
func (c *rconn) setResponse(out []byte) {
	if len(out) <= len(c.inline) {
		copy(c.inline[:], out)
		c.out = c.inline[:len(out)]
		c.overflow = nil
		return
	}
	c.overflow = out
	c.out = c.overflow
}

// Reactor is the event-driven engine: a single thread multiplexing
// every connection over epoll. Handlers run on the loop thread; CPU
// work in a handler stalls all connections until it returns.
type Reactor struct {
	cfg    config.Config
	router *router.Router

	logger  *slog.Logger
	metrics *Metrics

	epfd     int
	listenFD int
	wakeFD   int
	conns    map[int]*rconn
	nextID   uint64
	closing  atomic.Bool

	counters
}

// NewReactor creates a reactor engine.
func NewReactor(cfg config.Config, r *router.Router, opts ...Option) (*Reactor, error) {
	o := newOptions(opts)
	return &Reactor{
		cfg:      cfg,
		router:   r,
		logger:   o.logger,
		metrics:  o.metrics,
		epfd:     -1,
		listenFD: -1,
		wakeFD:   -1,
		conns:    make(map[int]*rconn),
	}, nil
}

// Stats returns a snapshot of the engine counters.
func (e *Reactor) Stats() Stats {
	return e.counters.snapshot()
}

// ListenAndServe binds the configured address and runs the event loop
// until Shutdown, returning ErrServerClosed on a clean stop.
func (e *Reactor) ListenAndServe() error {
	if err := e.setup(); err != nil {
		e.teardown()
		return err
	}
	defer e.teardown()

	e.logger.Info("listening",
		"engine", "reactor",
		"addr", e.cfg.ListenAddr(),
		"max_connections", e.cfg.MaxConnections,
	)
	return e.loop()
}

// setup creates the non-blocking listen socket, the epoll instance, and
// the eventfd used to interrupt the loop for shutdown.
func (e *Reactor) setup() error {
	ip := net.ParseIP(e.cfg.Address).To4()
	if ip == nil {
		return fmt.Errorf("reactor requires an IPv4 address, got %q", e.cfg.Address)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("socket: %w", err)
	}
	e.listenFD = fd

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}

	sa := &unix.SockaddrInet4{Port: e.cfg.Port}
	copy(sa.Addr[:], ip)
	if err := unix.Bind(fd, sa); err != nil {
		return fmt.Errorf("bind %s: %w", e.cfg.ListenAddr(), err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	e.epfd = epfd

	wakeFD, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("eventfd: %w", err)
	}
	e.wakeFD = wakeFD

	if err := e.epollAdd(e.listenFD, unix.EPOLLIN); err != nil {
		return err
	}
	return e.epollAdd(e.wakeFD, unix.EPOLLIN)
}

// teardown closes every connection and the loop's own descriptors.
func (e *Reactor) teardown() {
	for fd := range e.conns {
		_ = unix.Close(fd)
		delete(e.conns, fd)
		e.active.Add(-1)
		e.metrics.connClosed()
	}
	for _, fd := range []int{e.listenFD, e.wakeFD, e.epfd} {
		if fd >= 0 {
			_ = unix.Close(fd)
		}
	}
	e.listenFD, e.wakeFD, e.epfd = -1, -1, -1
}

func (e *Reactor) epollAdd(fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	if err := unix.EpollCtl(e.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll_ctl add: %w", err)
	}
	return nil
}

func (e *Reactor) epollMod(fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return unix.EpollCtl(e.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

// loop is the event loop: wait for readiness, dispatch to the state
// machine of the owning connection.
func (e *Reactor) loop() error {
	events := make([]unix.EpollEvent, 128)
	for {
		n, err := unix.EpollWait(e.epfd, events, -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			ev := events[i]
			fd := int(ev.Fd)

			switch fd {
			case e.wakeFD:
				if e.closing.Load() {
					return ErrServerClosed
				}
				e.drainWake()
			case e.listenFD:
				e.acceptReady()
			default:
				c, ok := e.conns[fd]
				if !ok {
					continue
				}
				e.connReady(c, ev.Events)
			}
		}
	}
}

// drainWake consumes the eventfd counter.
func (e *Reactor) drainWake() {
	var buf [8]byte
	_, _ = unix.Read(e.wakeFD, buf[:])
}

// acceptReady accepts until the listen queue is empty, applying
// admission control per connection.
func (e *Reactor) acceptReady() {
	for {
		fd, sa, err := unix.Accept4(e.listenFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return
			}
			if errors.Is(err, unix.EINTR) {
				continue
			}
			e.logger.Error("accept failed", "error", err)
			return
		}

		e.accepted.Add(1)
		if e.active.Add(1) > int64(e.cfg.MaxConnections) {
			e.active.Add(-1)
			e.rejected.Add(1)
			e.metrics.connRejected()
			_ = unix.Close(fd)
			continue
		}
		e.metrics.connAccepted()

		e.nextID++
		c := &rconn{
			fd:      fd,
			id:      e.nextID,
			state:   stateReading,
			remote:  remoteString(sa),
			readBuf: make([]byte, int(e.cfg.BufferSize)),
		}
		e.conns[fd] = c

		if err := e.epollAdd(fd, unix.EPOLLIN); err != nil {
			e.logger.Error("failed to watch connection", "id", c.id, "error", err)
			e.closeConn(c)
		}
	}
}

// remoteString formats the peer sockaddr as host:port.
func remoteString(sa unix.Sockaddr) string {
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return fmt.Sprintf("%d.%d.%d.%d:%d",
			in4.Addr[0], in4.Addr[1], in4.Addr[2], in4.Addr[3], in4.Port)
	}
	return ""
}

// connReady advances a connection's state machine for the readiness
// events delivered this tick.
func (e *Reactor) connReady(c *rconn, events uint32) {
	if events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		e.closeConn(c)
		return
	}

	switch c.state {
	case stateReading:
		if events&unix.EPOLLIN != 0 {
			e.readReady(c)
		}
	case stateWriting:
		if events&unix.EPOLLOUT != 0 {
			e.writeReady(c)
		}
	case stateProcessing, stateClosing:
		// Processing happens synchronously inside readReady; a closing
		// connection is already off the map. Nothing to do.
	}
}

// readReady pulls bytes until the socket would block, scanning for the
// header terminator after each read.
func (e *Reactor) readReady(c *rconn) {
	for {
		if c.readN == len(c.readBuf) {
			// Buffer full without a complete header block: answer 413
			// and close after the write.
			e.finish(c, rawResponse(http1.StatusPayloadTooLarge), http1.StatusPayloadTooLarge)
			return
		}

		n, err := unix.Read(c.fd, c.readBuf[c.readN:])
		switch {
		case errors.Is(err, unix.EAGAIN):
			return
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			e.logger.Debug("read failed", "id", c.id, "error", err)
			e.closeConn(c)
			return
		case n == 0:
			// Peer closed before a complete request arrived.
			e.closeConn(c)
			return
		}

		c.readN += n
		if bytes.Contains(c.readBuf[:c.readN], crlfcrlf) {
			e.process(c)
			return
		}
	}
}

// process runs the parsed request through the router and transitions
// the connection to Writing.
func (e *Reactor) process(c *rconn) {
	c.state = stateProcessing
	out, status := respond(e.router, c.readBuf[:c.readN], c.remote)
	e.finish(c, out, status)
}

// finish installs the response and arms the socket for writing.
func (e *Reactor) finish(c *rconn, out []byte, status int) {
	c.setResponse(out)
	c.state = stateWriting
	e.requests.Add(1)
	e.metrics.requestDone(status)

	if err := e.epollMod(c.fd, unix.EPOLLOUT); err != nil {
		e.logger.Error("failed to arm write", "id", c.id, "error", err)
		e.closeConn(c)
		return
	}
	// The socket is usually writable immediately; try now rather than
	// waiting a loop tick.
	e.writeReady(c)
}

// writeReady pushes response bytes until done or the socket would
// block. Partial writes leave the cursor in place and wait for the next
// EPOLLOUT.
func (e *Reactor) writeReady(c *rconn) {
	for c.written < len(c.out) {
		n, err := unix.Write(c.fd, c.out[c.written:])
		switch {
		case errors.Is(err, unix.EAGAIN):
			return
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			e.logger.Debug("write failed", "id", c.id, "error", err)
			e.closeConn(c)
			return
		}
		c.written += n
	}

	// Half-close, then discard input still queued (such as the unread rest
	// of an oversize request): closing a socket with unread input sends an
	// RST, which can destroy the response before the peer reads it.
	_ = unix.Shutdown(c.fd, unix.SHUT_WR)
	var discard [512]byte
	for {
		if n, err := unix.Read(c.fd, discard[:]); n <= 0 || err != nil {
			break
		}
	}
	e.closeConn(c)
}

// closeConn tears a connection down exactly once: out of epoll, socket
// closed, overflow released with the context.
func (e *Reactor) closeConn(c *rconn) {
	if c.state == stateClosing {
		return
	}
	c.state = stateClosing

	_ = unix.EpollCtl(e.epfd, unix.EPOLL_CTL_DEL, c.fd, nil)
	_ = unix.Close(c.fd)
	delete(e.conns, c.fd)
	c.overflow = nil
	c.out = nil

	e.active.Add(-1)
	e.metrics.connClosed()
}

// Shutdown interrupts the event loop via the eventfd. The loop closes
// every connection and returns ErrServerClosed from ListenAndServe.
func (e *Reactor) Shutdown(_ context.Context) error {
	e.closing.Store(true)

	var one [8]byte
	binary.LittleEndian.PutUint64(one[:], 1)
	if _, err := unix.Write(e.wakeFD, one[:]); err != nil {
		return fmt.Errorf("failed to wake event loop: %w", err)
	}
	return nil
}
