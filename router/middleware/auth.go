package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/emberhttp/ember/http1"
	"github.com/emberhttp/ember/router"
)

// AuthTokenKey is the context state key the validated token is stored under.
const AuthTokenKey = "auth.token"

// AuthOption defines functional options for Auth middleware configuration.
type AuthOption func(*authConfig)

// authConfig holds the configuration for the Auth middleware.
type authConfig struct {
	// scheme is the Authorization scheme expected, e.g. "Bearer"
	scheme string

	// validator decides whether a presented token is acceptable
	validator func(token string) bool

	// unauthorizedHandler is called when authentication fails
	unauthorizedHandler func(c *router.Context)

	// skipPaths are paths that bypass authentication
	skipPaths map[string]bool
}

// defaultAuthConfig returns the default configuration for Auth middleware.
func defaultAuthConfig() *authConfig {
	return &authConfig{
		scheme:              "Bearer",
		unauthorizedHandler: defaultUnauthorizedHandler,
		skipPaths:           make(map[string]bool),
	}
}

// defaultUnauthorizedHandler sends a 401 Unauthorized response.
func defaultUnauthorizedHandler(c *router.Context) {
	_ = c.JSON(http1.StatusUnauthorized, map[string]string{
		"error": "Unauthorized",
		"code":  "UNAUTHORIZED",
	})
}

// WithScheme sets the expected Authorization scheme.
// Default: Bearer.
func WithScheme(scheme string) AuthOption {
	return func(cfg *authConfig) {
		cfg.scheme = scheme
	}
}

// WithStaticToken accepts exactly one token, compared in constant time.
//
// Example:
//
//	middleware.Auth(middleware.WithStaticToken("s3cret"))
func WithStaticToken(token string) AuthOption {
	return func(cfg *authConfig) {
		cfg.validator = func(presented string) bool {
			return subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1
		}
	}
}

// WithValidator sets a custom token validation function.
func WithValidator(validator func(token string) bool) AuthOption {
	return func(cfg *authConfig) {
		cfg.validator = validator
	}
}

// WithUnauthorizedHandler sets a custom handler for failed authentication.
func WithUnauthorizedHandler(handler func(c *router.Context)) AuthOption {
	return func(cfg *authConfig) {
		cfg.unauthorizedHandler = handler
	}
}

// WithAuthSkipPaths sets paths that bypass authentication.
func WithAuthSkipPaths(paths ...string) AuthOption {
	return func(cfg *authConfig) {
		for _, p := range paths {
			cfg.skipPaths[p] = true
		}
	}
}

// Auth returns a middleware that requires a valid token in the
// Authorization header. On success the token is stored in the context
// state under AuthTokenKey; on failure the chain is aborted with 401.
//
// The middleware is a validation contract, not an identity system: the
// validator decides what a token means.
func Auth(opts ...AuthOption) router.HandlerFunc {
	cfg := defaultAuthConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context) {
		if cfg.skipPaths[c.Request.Path] {
			c.Next()
			return
		}

		header := c.Request.Headers.Get("Authorization")
		prefix := cfg.scheme + " "

		var token string
		if header != "" && strings.HasPrefix(header, prefix) {
			token = header[len(prefix):]
		}
		if token == "" || cfg.validator == nil || !cfg.validator(token) {
			c.Abort()
			cfg.unauthorizedHandler(c)
			return
		}

		c.Set(AuthTokenKey, token)
		c.Next()
	}
}
