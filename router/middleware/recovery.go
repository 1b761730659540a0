package middleware

import (
	"runtime/debug"

	"github.com/emberhttp/ember/http1"
	"github.com/emberhttp/ember/router"
)

// RecoveryOption defines functional options for Recovery middleware configuration.
type RecoveryOption func(*recoveryConfig)

// recoveryConfig holds the configuration for the Recovery middleware.
type recoveryConfig struct {
	// stackTrace enables logging stack traces on panic
	stackTrace bool

	// handler builds the response after a panic or collected error
	handler func(c *router.Context, err any)
}

// defaultRecoveryConfig returns the default configuration for Recovery middleware.
func defaultRecoveryConfig() *recoveryConfig {
	return &recoveryConfig{
		stackTrace: true,
		handler:    defaultRecoveryHandler,
	}
}

// defaultRecoveryHandler sends a 500 Internal Server Error response.
func defaultRecoveryHandler(c *router.Context, _ any) {
	_ = c.JSON(http1.StatusInternalServerError, map[string]string{
		"error": "Internal server error",
		"code":  "INTERNAL_ERROR",
	})
}

// WithStackTrace enables or disables stack trace logging on panic.
// Default: true.
func WithStackTrace(enabled bool) RecoveryOption {
	return func(cfg *recoveryConfig) {
		cfg.stackTrace = enabled
	}
}

// WithRecoveryHandler sets a custom handler invoked after a panic or a
// collected handler error. The handler owns the response.
//
// Example:
//
//	middleware.Recovery(middleware.WithRecoveryHandler(func(c *router.Context, err any) {
//	    c.Text(http1.StatusInternalServerError, "something broke")
//	}))
func WithRecoveryHandler(handler func(c *router.Context, err any)) RecoveryOption {
	return func(cfg *recoveryConfig) {
		cfg.handler = handler
	}
}

// Recovery returns a middleware that converts downstream panics and
// collected context errors into a 500 response. Register it before any
// middleware whose failures it should catch: it must sit on the outside
// of the onion.
//
// The process never dies on a request failure; the connection is the
// blast radius.
func Recovery(opts ...RecoveryOption) router.HandlerFunc {
	cfg := defaultRecoveryConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context) {
		defer func() {
			if err := recover(); err != nil {
				if cfg.stackTrace {
					c.Logger().Error("panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
					)
				} else {
					c.Logger().Error("panic recovered", "error", err)
				}
				c.Abort()
				cfg.handler(c, err)
			}
		}()

		c.Next()

		// Errors collected via c.Error() that no handler turned into a
		// response are mapped to 500 here.
		if c.HasErrors() && c.Response.Status() < http1.StatusBadRequest {
			errs := c.Errors()
			c.Logger().Error("handler error", "error", errs[len(errs)-1])
			cfg.handler(c, errs[len(errs)-1])
		}
	}
}
