// Package middleware provides the built-in middleware suite: access
// logging, request IDs, CORS, panic recovery with error handling,
// token authentication, and per-client rate limiting.
//
// Every middleware is a router.HandlerFunc constructed with functional
// options:
//
//	r := router.MustNew()
//	r.Use(
//	    middleware.RequestID(),
//	    middleware.Logger(),
//	    middleware.Recovery(),
//	)
//
// Middleware runs in registration order. A middleware that calls
// c.Abort() stops the chain; one that calls c.Next() and then inspects
// c.Response wraps the downstream work.
package middleware
