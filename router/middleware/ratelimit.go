package middleware

import (
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/emberhttp/ember/http1"
	"github.com/emberhttp/ember/limits"
	"github.com/emberhttp/ember/router"
)

// RateLimitOption defines functional options for RateLimit middleware configuration.
type RateLimitOption func(*rateLimitConfig)

// rateLimitConfig holds the configuration for the RateLimit middleware.
type rateLimitConfig struct {
	// limit is the number of requests allowed per window per client
	limit int

	// window is the fixed window length
	window time.Duration

	// keyFunc extracts the client key from the context
	keyFunc func(c *router.Context) string

	// limitHandler is called when a client exceeds the limit
	limitHandler func(c *router.Context)
}

// defaultRateLimitConfig returns the default configuration for RateLimit
// middleware: the per-IP-per-minute bound from the limits package.
func defaultRateLimitConfig() *rateLimitConfig {
	return &rateLimitConfig{
		limit:        limits.MaxRequestsPerIPPerMinute,
		window:       limits.RateLimitWindow,
		keyFunc:      clientIP,
		limitHandler: defaultLimitHandler,
	}
}

// clientIP extracts the client address without the port.
func clientIP(c *router.Context) string {
	addr := c.Request.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// defaultLimitHandler sends a 429 Too Many Requests response.
func defaultLimitHandler(c *router.Context) {
	_ = c.JSON(http1.StatusTooManyRequests, map[string]string{
		"error": "Too many requests",
		"code":  "RATE_LIMITED",
	})
}

// WithLimit sets the number of requests allowed per window.
// Default: 100.
func WithLimit(limit int) RateLimitOption {
	return func(cfg *rateLimitConfig) {
		cfg.limit = limit
	}
}

// WithWindow sets the fixed window length.
// Default: 60s.
func WithWindow(window time.Duration) RateLimitOption {
	return func(cfg *rateLimitConfig) {
		cfg.window = window
	}
}

// WithKeyFunc sets a custom client-key extractor, for example to key on
// an API token instead of the peer address.
func WithKeyFunc(keyFunc func(c *router.Context) string) RateLimitOption {
	return func(cfg *rateLimitConfig) {
		cfg.keyFunc = keyFunc
	}
}

// WithLimitHandler sets a custom handler for rejected requests.
func WithLimitHandler(handler func(c *router.Context)) RateLimitOption {
	return func(cfg *rateLimitConfig) {
		cfg.limitHandler = handler
	}
}

// windowEntry tracks one client's count inside the current window.
type windowEntry struct {
	count       int
	windowStart time.Time
}

// fixedWindowStore implements in-memory fixed-window counting.
type fixedWindowStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	limit   int
	window  time.Duration
}

func newFixedWindowStore(limit int, window time.Duration) *fixedWindowStore {
	return &fixedWindowStore{
		entries: make(map[string]*windowEntry),
		limit:   limit,
		window:  window,
	}
}

// allow counts a request for key and reports whether it is within the
// limit, along with the remaining allowance and seconds until reset.
func (s *fixedWindowStore) allow(key string, now time.Time) (allowed bool, remaining, resetSeconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || now.Sub(entry.windowStart) >= s.window {
		entry = &windowEntry{windowStart: now}
		s.entries[key] = entry

		// Opportunistic cleanup: drop stale peers so the map does not
		// grow without bound under churn.
		if len(s.entries) > 10000 {
			for k, e := range s.entries {
				if now.Sub(e.windowStart) >= s.window {
					delete(s.entries, k)
				}
			}
		}
	}

	reset := int(s.window.Seconds()) - int(now.Sub(entry.windowStart).Seconds())
	if entry.count >= s.limit {
		return false, 0, reset
	}
	entry.count++
	return true, s.limit - entry.count, reset
}

// RateLimit returns a middleware that enforces a fixed-window request
// budget per client. Rejected requests get 429 and a Retry-After
// header; accepted requests carry X-RateLimit-* headers.
//
// The store is in-memory and per-process. Deployments that need shared
// limits put them at the edge.
func RateLimit(opts ...RateLimitOption) router.HandlerFunc {
	cfg := defaultRateLimitConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	store := newFixedWindowStore(cfg.limit, cfg.window)

	return func(c *router.Context) {
		key := cfg.keyFunc(c)
		allowed, remaining, resetSeconds := store.allow(key, time.Now())

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSeconds))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(resetSeconds))
			c.Abort()
			cfg.limitHandler(c)
			return
		}
		c.Next()
	}
}
