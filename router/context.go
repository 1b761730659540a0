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

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emberhttp/ember/http1"
)

// maxInlineParams is the number of path parameters stored in the fixed
// arrays before overflowing to the Params map.
const maxInlineParams = 8

// Context represents the context of the current HTTP request.
// It borrows the parsed request and the response under construction and
// owns two independent key/value spaces: path parameters populated by
// the router, and arbitrary state used as a middleware-to-handler
// channel.
//
// ⚠️ THREAD SAFETY: Context is NOT thread-safe.
// A Context is bound to a single request and must only be accessed by
// the goroutine (or reactor callback) handling that request.
//
// ⚠️ MEMORY SAFETY: Context objects are pooled and reused. Do not retain
// references to a Context, its request, or its response beyond the
// handler's lifetime; copy what you need first.
//
// Parameter storage uses a hybrid strategy: the first parameters live in
// fixed-size arrays and only routes with many parameters allocate the
// overflow map.
type Context struct {
	Request  *http1.Request
	Response *http1.Response

	handlers []HandlerFunc
	index    int32

	paramCount  int32
	paramKeys   [maxInlineParams]string
	paramValues [maxInlineParams]string

	// Params holds overflow parameters for routes with more than
	// maxInlineParams captures. Nil for typical routes.
	Params map[string]string

	state   map[string]any
	logger  *slog.Logger
	aborted bool

	// errors collected during request processing via Error().
	errors []error
}

// HandlerFunc defines the handler function signature for route handlers
// and middleware. Middleware call c.Next() to run the rest of the chain
// and may observe or modify the response afterwards; c.Abort() stops the
// chain.
//
// Example middleware:
//
//	func Timer() router.HandlerFunc {
//	    return func(c *router.Context) {
//	        start := time.Now()
//	        c.Next()
//	        c.Logger().Debug("handled", "duration", time.Since(start))
//	    }
//	}
type HandlerFunc func(*Context)

// Next executes the remaining handlers in the chain. It is called from
// middleware to pass control downstream; when the chain is exhausted it
// returns, giving the middleware a chance to inspect the response.
func (c *Context) Next() {
	c.index++
	for c.index < int32(len(c.handlers)) {
		if c.aborted {
			return
		}
		c.handlers[c.index](c)
		c.index++
	}
}

// Abort stops the handler chain. The current handler finishes, but no
// further handlers run. Abort does not write anything to the response;
// combine it with Status or a body helper.
func (c *Context) Abort() {
	c.aborted = true
}

// IsAborted reports whether the chain has been aborted.
func (c *Context) IsAborted() bool {
	return c.aborted
}

// Param returns the value of the named path parameter captured by the
// matched route pattern, or "" when absent.
//
//	r.GET("/users/:id", func(c *router.Context) {
//	    id := c.Param("id")
//	    ...
//	})
func (c *Context) Param(key string) string {
	for i := int32(0); i < c.paramCount; i++ {
		if c.paramKeys[i] == key {
			return c.paramValues[i]
		}
	}
	if c.Params != nil {
		return c.Params[key]
	}
	return ""
}

// setParam records a path parameter, overflowing to the map when the
// inline arrays are full.
func (c *Context) setParam(key, value string) {
	if c.paramCount < maxInlineParams {
		c.paramKeys[c.paramCount] = key
		c.paramValues[c.paramCount] = value
		c.paramCount++
		return
	}
	if c.Params == nil {
		c.Params = make(map[string]string)
	}
	c.Params[key] = value
}

// ParamCount returns the number of captured path parameters.
func (c *Context) ParamCount() int {
	n := int(c.paramCount)
	if c.Params != nil {
		n += len(c.Params)
	}
	return n
}

// Query returns the first value for key in the request query string, or
// "" when absent. Values are returned raw; no percent-decoding is done.
func (c *Context) Query(key string) string {
	query := c.Request.Query
	for query != "" {
		var pair string
		pair, query, _ = strings.Cut(query, "&")
		k, v, _ := strings.Cut(pair, "=")
		if k == key {
			return v
		}
	}
	return ""
}

// Set stores a value in the context state. Setting an existing key
// replaces the prior value. State is the channel middleware use to pass
// data to downstream handlers.
func (c *Context) Set(key string, value any) {
	if c.state == nil {
		c.state = make(map[string]any)
	}
	c.state[key] = value
}

// Get returns the state value for key and whether it is present.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.state[key]
	return v, ok
}

// GetString returns the state value for key as a string, or "" when the
// key is absent or the value is not a string.
func (c *Context) GetString(key string) string {
	if v, ok := c.state[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// MustGet returns the state value for key or panics when absent.
func (c *Context) MustGet(key string) any {
	if v, ok := c.state[key]; ok {
		return v
	}
	panic(fmt.Sprintf("router: %v: %q", ErrStateKeyNotFound, key))
}

// Status sets the response status code without writing a body.
func (c *Context) Status(code int) {
	c.Response.SetStatus(code)
}

// Header sets a response header, replacing any existing value.
func (c *Context) Header(name, value string) {
	c.Response.SetHeader(name, value)
}

// JSON marshals obj, sets Content-Type to application/json, and writes
// the body with the given status code.
func (c *Context) JSON(code int, obj any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON response: %w", err)
	}
	c.Response.SetStatus(code)
	c.Response.JSON(data)
	return nil
}

// Text writes a plain-text body with the given status code.
func (c *Context) Text(code int, value string) {
	c.Response.SetStatus(code)
	c.Response.Text([]byte(value))
}

// Textf writes a formatted plain-text body with the given status code.
func (c *Context) Textf(code int, format string, values ...any) {
	c.Text(code, fmt.Sprintf(format, values...))
}

// HTML writes an HTML body with the given status code.
func (c *Context) HTML(code int, html string) {
	c.Response.SetStatus(code)
	c.Response.HTML([]byte(html))
}

// NoContent writes a 204 response with no body.
func (c *Context) NoContent() {
	c.Response.SetStatus(http1.StatusNoContent)
	c.Response.SetBody(nil)
}

// SetCookie adds a Set-Cookie header to the response.
func (c *Context) SetCookie(cookie http1.Cookie) {
	c.Response.SetCookie(cookie)
}

// Error collects an error during request processing. Collected errors do
// not interrupt the chain; an error-handling middleware inspects them
// after Next() returns.
func (c *Context) Error(err error) {
	if err == nil {
		return
	}
	c.errors = append(c.errors, err)
}

// Errors returns the errors collected so far.
func (c *Context) Errors() []error {
	return c.errors
}

// HasErrors reports whether any errors have been collected.
func (c *Context) HasErrors() bool {
	return len(c.errors) > 0
}

// Logger returns the request-scoped logger. It never returns nil; when
// no logger has been attached, the no-op logger is returned.
func (c *Context) Logger() *slog.Logger {
	if c.logger == nil {
		return noopLogger
	}
	return c.logger
}

// SetLogger attaches a request-scoped logger.
func (c *Context) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// reset clears the context for reuse by another request.
func (c *Context) reset() {
	c.Request = nil
	c.Response = nil
	c.handlers = nil
	c.index = -1
	c.paramCount = 0
	c.Params = nil
	c.state = nil
	c.logger = nil
	c.aborted = false
	c.errors = nil
}
