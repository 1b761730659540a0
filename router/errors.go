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

package router

import "errors"

// Static errors for better error handling and testing.
// These errors should be wrapped with fmt.Errorf and %w when context is needed.
var (
	// ErrRouteNotFound is returned by Find when no registered route
	// matches the method and path.
	ErrRouteNotFound = errors.New("route not found")

	// ErrEmptyPattern is returned when a route is registered with an
	// empty pattern.
	ErrEmptyPattern = errors.New("route pattern must not be empty")

	// ErrPatternTooDeep is returned when a route pattern exceeds the
	// maximum path depth.
	ErrPatternTooDeep = errors.New("route pattern exceeds maximum path depth")

	// ErrWildcardNotTerminal is returned when a pattern contains segments
	// after a * wildcard.
	ErrWildcardNotTerminal = errors.New("wildcard segment must be terminal")

	// ErrTooManyRoutes is returned when route registration would exceed
	// the configured route cap.
	ErrTooManyRoutes = errors.New("too many routes")

	// ErrTooManyMiddlewares is returned when middleware registration
	// would exceed the configured middleware cap.
	ErrTooManyMiddlewares = errors.New("too many middlewares")

	// ErrStateKeyNotFound is returned by MustGet when the state key is
	// absent from the context.
	ErrStateKeyNotFound = errors.New("state key not found")
)
