package middleware

import (
	"log/slog"
	"time"

	"github.com/emberhttp/ember/router"
)

// LoggerOption defines functional options for Logger middleware configuration.
type LoggerOption func(*loggerConfig)

// loggerConfig holds the configuration for the Logger middleware.
type loggerConfig struct {
	// logger receives one record per request; nil means the context logger
	logger *slog.Logger

	// skipPaths are paths that should not be logged
	skipPaths map[string]bool
}

// defaultLoggerConfig returns the default configuration for Logger middleware.
func defaultLoggerConfig() *loggerConfig {
	return &loggerConfig{
		skipPaths: make(map[string]bool),
	}
}

// WithSlogger sets the logger records are written to.
// Default: the request context's logger.
//
// Example:
//
//	middleware.Logger(middleware.WithSlogger(myLogger))
func WithSlogger(logger *slog.Logger) LoggerOption {
	return func(cfg *loggerConfig) {
		cfg.logger = logger
	}
}

// WithSkipPaths sets paths that should not be logged, such as health
// check endpoints.
//
// Example:
//
//	middleware.Logger(middleware.WithSkipPaths("/healthz", "/metrics"))
func WithSkipPaths(paths ...string) LoggerOption {
	return func(cfg *loggerConfig) {
		for _, p := range paths {
			cfg.skipPaths[p] = true
		}
	}
}

// Logger returns a middleware that logs one structured record per
// request: method, path, status, response size, latency, client
// address, and the request ID when present.
func Logger(opts ...LoggerOption) router.HandlerFunc {
	cfg := defaultLoggerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context) {
		if cfg.skipPaths[c.Request.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		logger := cfg.logger
		if logger == nil {
			logger = c.Logger()
		}

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.Path,
			"status", c.Response.Status(),
			"size", len(c.Response.Body()),
			"duration", time.Since(start),
			"remote", c.Request.RemoteAddr,
		}
		if id := c.GetString(RequestIDKey); id != "" {
			attrs = append(attrs, "request_id", id)
		}

		if c.HasErrors() {
			attrs = append(attrs, "errors", len(c.Errors()))
			logger.Error("request", attrs...)
			return
		}
		logger.Info("request", attrs...)
	}
}
