package middleware

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/emberhttp/ember/router"
)

// RequestIDKey is the context state key the request ID is stored under.
const RequestIDKey = "request_id"

// defaultRequestIDHeader is the header the ID is read from and echoed to.
const defaultRequestIDHeader = "X-Request-ID"

// RequestIDOption defines functional options for RequestID middleware configuration.
type RequestIDOption func(*requestIDConfig)

// requestIDConfig holds the configuration for the RequestID middleware.
type requestIDConfig struct {
	// headerName is the name of the header to use for the request ID
	headerName string

	// generator is the function used to generate new request IDs
	generator func() string

	// allowClientID allows using request IDs provided by clients
	allowClientID bool
}

// defaultRequestIDConfig returns the default configuration for RequestID middleware.
func defaultRequestIDConfig() *requestIDConfig {
	return &requestIDConfig{
		headerName:    defaultRequestIDHeader,
		generator:     generateUUIDv7,
		allowClientID: true,
	}
}

// generateUUIDv7 generates a UUID v7 string for request IDs.
// UUID v7 is time-ordered and lexicographically sortable (RFC 9562).
func generateUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ulidEntropy is a thread-safe entropy source for ULID generation.
// It provides monotonic ordering within the same millisecond.
var (
	ulidEntropy     = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyLock sync.Mutex
)

// generateULID generates a ULID string for request IDs.
func generateULID() string {
	ulidEntropyLock.Lock()
	defer ulidEntropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// WithRequestIDHeader sets the header name used to carry the request ID.
// Default: X-Request-ID.
func WithRequestIDHeader(name string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.headerName = name
	}
}

// WithULID switches ID generation to ULIDs: time-ordered,
// lexicographically sortable, and a compact 26 characters.
//
// Example:
//
//	middleware.RequestID(middleware.WithULID())
func WithULID() RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.generator = generateULID
	}
}

// WithGenerator sets a custom ID generator.
func WithGenerator(generator func() string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.generator = generator
	}
}

// WithAllowClientID controls whether an incoming request-ID header is
// trusted and propagated. When false a fresh ID is always generated.
// Default: true.
func WithAllowClientID(allow bool) RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.allowClientID = allow
	}
}

// RequestID returns a middleware that assigns each request a unique ID,
// stores it in the context state under RequestIDKey, and echoes it in
// the response header. By default UUID v7 is used.
func RequestID(opts ...RequestIDOption) router.HandlerFunc {
	cfg := defaultRequestIDConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context) {
		id := ""
		if cfg.allowClientID {
			id = c.Request.Headers.Get(cfg.headerName)
		}
		if id == "" {
			id = cfg.generator()
		}

		c.Set(RequestIDKey, id)
		c.Header(cfg.headerName, id)
		c.Next()
	}
}
