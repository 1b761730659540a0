package middleware

import (
	"strconv"
	"strings"

	"github.com/emberhttp/ember/http1"
	"github.com/emberhttp/ember/router"
)

// CORSOption defines functional options for CORS middleware configuration.
type CORSOption func(*corsConfig)

// corsConfig holds the configuration for the CORS middleware.
type corsConfig struct {
	// allowedOrigins is the list of allowed origins for CORS requests
	allowedOrigins []string

	// allowedMethods is the list of allowed HTTP methods
	allowedMethods []string

	// allowedHeaders is the list of allowed request headers
	allowedHeaders []string

	// exposedHeaders is the list of headers exposed to the client
	exposedHeaders []string

	// allowCredentials indicates whether credentials are allowed
	allowCredentials bool

	// maxAge is the max age for preflight cache in seconds
	maxAge int

	// allowAllOrigins allows all origins (sets Access-Control-Allow-Origin: *)
	allowAllOrigins bool
}

// defaultCORSConfig returns the default configuration for CORS middleware.
// Default configuration is restrictive for security.
func defaultCORSConfig() *corsConfig {
	return &corsConfig{
		allowedOrigins: []string{},
		allowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		allowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		maxAge:         3600, // 1 hour
	}
}

// WithAllowedOrigins sets the list of allowed origins.
//
// Example:
//
//	middleware.CORS(middleware.WithAllowedOrigins("https://example.com"))
func WithAllowedOrigins(origins ...string) CORSOption {
	return func(cfg *corsConfig) {
		cfg.allowedOrigins = origins
		cfg.allowAllOrigins = false
	}
}

// WithAllowAllOrigins allows all origins by setting
// Access-Control-Allow-Origin: *.
// WARNING: This is insecure and should only be used for public APIs.
func WithAllowAllOrigins() CORSOption {
	return func(cfg *corsConfig) {
		cfg.allowAllOrigins = true
	}
}

// WithCORSAllowedMethods sets the list of allowed HTTP methods.
// Default: GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS.
func WithCORSAllowedMethods(methods ...string) CORSOption {
	return func(cfg *corsConfig) {
		cfg.allowedMethods = methods
	}
}

// WithCORSAllowedHeaders sets the list of allowed request headers.
// Default: Origin, Content-Type, Accept, Authorization.
func WithCORSAllowedHeaders(headers ...string) CORSOption {
	return func(cfg *corsConfig) {
		cfg.allowedHeaders = headers
	}
}

// WithCORSExposedHeaders sets the list of headers exposed to client-side
// code.
func WithCORSExposedHeaders(headers ...string) CORSOption {
	return func(cfg *corsConfig) {
		cfg.exposedHeaders = headers
	}
}

// WithCORSCredentials enables credentialed requests. When enabled the
// wildcard origin is never emitted.
func WithCORSCredentials() CORSOption {
	return func(cfg *corsConfig) {
		cfg.allowCredentials = true
	}
}

// WithCORSMaxAge sets the preflight cache lifetime in seconds.
// Default: 3600.
func WithCORSMaxAge(seconds int) CORSOption {
	return func(cfg *corsConfig) {
		cfg.maxAge = seconds
	}
}

// CORS returns a middleware that answers cross-origin resource sharing
// headers and short-circuits OPTIONS preflight requests with 204.
func CORS(opts ...CORSOption) router.HandlerFunc {
	cfg := defaultCORSConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context) {
		origin := c.Request.Headers.Get("Origin")
		if origin == "" {
			c.Next()
			return
		}

		switch {
		case cfg.allowAllOrigins && !cfg.allowCredentials:
			c.Header("Access-Control-Allow-Origin", "*")
		case cfg.originAllowed(origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		default:
			// Disallowed origin: no CORS headers; the browser blocks it.
			c.Next()
			return
		}

		if cfg.allowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		if len(cfg.exposedHeaders) > 0 {
			c.Header("Access-Control-Expose-Headers", strings.Join(cfg.exposedHeaders, ", "))
		}

		if c.Request.Method == "OPTIONS" {
			c.Header("Access-Control-Allow-Methods", strings.Join(cfg.allowedMethods, ", "))
			c.Header("Access-Control-Allow-Headers", strings.Join(cfg.allowedHeaders, ", "))
			c.Header("Access-Control-Max-Age", strconv.Itoa(cfg.maxAge))
			c.Status(http1.StatusNoContent)
			c.Abort()
			return
		}

		c.Next()
	}
}

// originAllowed reports whether origin is in the configured allow list.
func (cfg *corsConfig) originAllowed(origin string) bool {
	if cfg.allowAllOrigins {
		return true
	}
	for _, allowed := range cfg.allowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}
