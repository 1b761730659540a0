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

//go:build !linux

package engine

import (
	"context"
	"errors"

	"github.com/emberhttp/ember/config"
	"github.com/emberhttp/ember/router"
)

// ErrReactorUnsupported is returned on platforms without epoll.
var ErrReactorUnsupported = errors.New("reactor engine requires linux")

// Reactor is unavailable on this platform; use the threaded engine.
type Reactor struct {
	counters
}

// NewReactor fails on platforms without epoll.
func NewReactor(_ config.Config, _ *router.Router, _ ...Option) (*Reactor, error) {
	return nil, ErrReactorUnsupported
}

// ListenAndServe always fails on this platform.
func (e *Reactor) ListenAndServe() error {
	return ErrReactorUnsupported
}

// Shutdown is a no-op on this platform.
func (e *Reactor) Shutdown(_ context.Context) error {
	return nil
}

// Stats returns a zero snapshot.
func (e *Reactor) Stats() Stats {
	return e.counters.snapshot()
}
