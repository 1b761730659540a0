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

// Package router matches parsed HTTP requests to registered routes and
// executes their middleware and handler chains.
//
// Patterns are /-separated segment templates. A segment is either a
// literal, a :name parameter capturing exactly one non-empty path
// segment, or a terminal * wildcard capturing the remainder of the path.
// Lookup is first-match in registration order within a method: register
// specific routes before generic ones.
package router

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/emberhttp/ember/http1"
	"github.com/emberhttp/ember/limits"
)

// noopLogger is a singleton no-op logger used when no logger is configured.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Option defines functional options for router configuration.
type Option func(*Router)

// WithMaxRoutes caps the number of routes that may be registered.
// Zero means no cap beyond memory.
func WithMaxRoutes(n int) Option {
	return func(r *Router) {
		r.maxRoutes = n
	}
}

// WithMaxMiddlewares caps the number of global middlewares.
// Zero means no cap beyond memory.
func WithMaxMiddlewares(n int) Option {
	return func(r *Router) {
		r.maxMiddlewares = n
	}
}

// WithLogger sets the logger attached to every request context.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// Route is a registered route: a method, a segment pattern, and the
// handler chain (route middleware followed by the handler).
type Route struct {
	Method  string
	Pattern string

	segments []string      // pattern split on "/", empty segments removed
	handlers []HandlerFunc // route middleware + handler
}

// Router stores routes indexed by method and executes handler chains.
//
// Routes are registered at startup and the table is immutable while
// serving; registration is not synchronized with lookup. The context
// pool makes concurrent Dispatch calls safe.
//
// Example:
//
//	r := router.MustNew()
//	r.Use(middleware.Logger())
//	r.GET("/users/:id", func(c *router.Context) {
//	    c.JSON(http1.StatusOK, map[string]string{"id": c.Param("id")})
//	})
type Router struct {
	byMethod   map[string][]*Route // insertion order preserved per method
	routeCount int

	middleware []HandlerFunc

	noRouteHandler HandlerFunc

	maxRoutes      int
	maxMiddlewares int
	logger         *slog.Logger

	ctxPool sync.Pool
}

// New creates a router with optional configuration.
func New(opts ...Option) (*Router, error) {
	r := &Router{
		byMethod: make(map[string][]*Route),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxRoutes < 0 {
		return nil, fmt.Errorf("max routes must be nonnegative, got %d", r.maxRoutes)
	}
	if r.maxMiddlewares < 0 {
		return nil, fmt.Errorf("max middlewares must be nonnegative, got %d", r.maxMiddlewares)
	}
	r.ctxPool.New = func() any {
		c := &Context{}
		c.reset()
		return c
	}
	return r, nil
}

// MustNew creates a router and panics if configuration is invalid.
func MustNew(opts ...Option) *Router {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("router.MustNew: %v", err))
	}
	return r
}

// Use adds global middleware executed for every request before any
// route-specific handlers. Registration order is execution order.
func (r *Router) Use(middleware ...HandlerFunc) error {
	if r.maxMiddlewares > 0 && len(r.middleware)+len(middleware) > r.maxMiddlewares {
		return fmt.Errorf("%w: limit %d", ErrTooManyMiddlewares, r.maxMiddlewares)
	}
	r.middleware = append(r.middleware, middleware...)
	return nil
}

// GET registers a route for the GET method.
func (r *Router) GET(pattern string, handlers ...HandlerFunc) *Route {
	return r.Handle("GET", pattern, handlers...)
}

// POST registers a route for the POST method.
func (r *Router) POST(pattern string, handlers ...HandlerFunc) *Route {
	return r.Handle("POST", pattern, handlers...)
}

// PUT registers a route for the PUT method.
func (r *Router) PUT(pattern string, handlers ...HandlerFunc) *Route {
	return r.Handle("PUT", pattern, handlers...)
}

// DELETE registers a route for the DELETE method.
func (r *Router) DELETE(pattern string, handlers ...HandlerFunc) *Route {
	return r.Handle("DELETE", pattern, handlers...)
}

// PATCH registers a route for the PATCH method.
func (r *Router) PATCH(pattern string, handlers ...HandlerFunc) *Route {
	return r.Handle("PATCH", pattern, handlers...)
}

// OPTIONS registers a route for the OPTIONS method.
func (r *Router) OPTIONS(pattern string, handlers ...HandlerFunc) *Route {
	return r.Handle("OPTIONS", pattern, handlers...)
}

// HEAD registers a route for the HEAD method.
func (r *Router) HEAD(pattern string, handlers ...HandlerFunc) *Route {
	return r.Handle("HEAD", pattern, handlers...)
}

// Handle registers a route for an arbitrary method. The last handler is
// the route handler; any preceding handlers are route middleware.
// Registration errors are programmer errors and panic immediately, in
// the same spirit as a malformed route pattern.
func (r *Router) Handle(method, pattern string, handlers ...HandlerFunc) *Route {
	route, err := r.addRoute(method, pattern, handlers)
	if err != nil {
		panic(fmt.Sprintf("router: cannot register %s %s: %v", method, pattern, err))
	}
	return route
}

// addRoute validates and stores a route.
func (r *Router) addRoute(method, pattern string, handlers []HandlerFunc) (*Route, error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}
	if len(handlers) == 0 {
		return nil, fmt.Errorf("route %s %s has no handler", method, pattern)
	}
	if r.maxRoutes > 0 && r.routeCount >= r.maxRoutes {
		return nil, fmt.Errorf("%w: limit %d", ErrTooManyRoutes, r.maxRoutes)
	}

	segments := splitPath(pattern)
	if len(segments) > limits.MaxPathDepth {
		return nil, ErrPatternTooDeep
	}
	for i, seg := range segments {
		if seg == "*" && i != len(segments)-1 {
			return nil, ErrWildcardNotTerminal
		}
	}

	route := &Route{
		Method:   method,
		Pattern:  pattern,
		segments: segments,
		handlers: handlers,
	}
	r.byMethod[method] = append(r.byMethod[method], route)
	r.routeCount++
	return route, nil
}

// NoRoute sets a custom handler for requests that match no registered
// route. The handler is responsible for the full response. Setting nil
// restores the default plain-text 404.
func (r *Router) NoRoute(handler HandlerFunc) {
	r.noRouteHandler = handler
}

// Routes returns a snapshot of all registered routes.
func (r *Router) Routes() []*Route {
	routes := make([]*Route, 0, r.routeCount)
	for _, list := range r.byMethod {
		routes = append(routes, list...)
	}
	return routes
}

// Find returns the first route registered under method whose pattern
// matches path, in registration order. It does not extract parameters.
func (r *Router) Find(method, path string) (*Route, error) {
	pathSegs := splitPath(path)
	for _, route := range r.byMethod[method] {
		if matchSegments(route.segments, pathSegs) {
			return route, nil
		}
	}
	return nil, ErrRouteNotFound
}

// Dispatch routes a parsed request and executes the matched chain,
// writing the outcome into resp. Unmatched requests get a 404 (or the
// NoRoute handler); paths deeper than the security bound get a 400.
// Dispatch never fails: every outcome is an HTTP response.
func (r *Router) Dispatch(req *http1.Request, resp *http1.Response) {
	c := r.ctxPool.Get().(*Context)
	defer func() {
		c.reset()
		r.ctxPool.Put(c)
	}()

	c.Request = req
	c.Response = resp
	c.logger = r.logger

	pathSegs := splitPath(req.Path)
	if len(pathSegs) > limits.MaxPathDepth {
		c.Text(http1.StatusBadRequest, "400 path too deep")
		return
	}

	route := r.match(req.Method, pathSegs, c)

	// Chain: global middleware, then route middleware, then handler.
	var tail []HandlerFunc
	if route != nil {
		tail = route.handlers
	} else if r.noRouteHandler != nil {
		tail = []HandlerFunc{r.noRouteHandler}
	} else {
		tail = []HandlerFunc{defaultNoRoute}
	}
	chain := make([]HandlerFunc, 0, len(r.middleware)+len(tail))
	chain = append(chain, r.middleware...)
	chain = append(chain, tail...)
	c.handlers = chain
	c.Next()
}

// match finds the first matching route and extracts its parameters into c.
func (r *Router) match(method string, pathSegs []string, c *Context) *Route {
	for _, route := range r.byMethod[method] {
		if matchSegments(route.segments, pathSegs) {
			extractParams(route.segments, pathSegs, c)
			return route
		}
	}
	return nil
}

// defaultNoRoute is the stock 404 handler.
func defaultNoRoute(c *Context) {
	c.Text(http1.StatusNotFound, "404 page not found")
}

// splitPath splits a path or pattern into its non-empty segments.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// matchSegments walks pattern and path segments in lockstep.
//
// A * pattern segment matches the entire remaining path. A :name
// segment matches any single non-empty path segment. A literal matches
// byte-equal. After the pattern is exhausted the path must be too.
func matchSegments(pattern, path []string) bool {
	for i, seg := range pattern {
		if seg == "*" {
			return true
		}
		if i >= len(path) {
			return false
		}
		if seg[0] == ':' {
			continue
		}
		if seg != path[i] {
			return false
		}
	}
	return len(pattern) == len(path)
}

// extractParams replays a successful match and records every :name
// capture. Wildcard segments do not populate parameters.
func extractParams(pattern, path []string, c *Context) {
	for i, seg := range pattern {
		if seg == "*" {
			return
		}
		if seg[0] == ':' {
			c.setParam(seg[1:], path[i])
		}
	}
}
