package middleware

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberhttp/ember/http1"
	"github.com/emberhttp/ember/router"
)

// dispatch runs a synthetic request through the router and returns the
// response.
func dispatch(t *testing.T, r *router.Router, req *http1.Request) *http1.Response {
	t.Helper()
	resp := http1.NewResponse()
	r.Dispatch(req, resp)
	return resp
}

func getRequest(path string) *http1.Request {
	return &http1.Request{
		Method:     "GET",
		Path:       path,
		Version:    "HTTP/1.1",
		RemoteAddr: "192.0.2.1:50000",
	}
}

func TestRequestIDGenerated(t *testing.T) {
	r := router.MustNew()
	require.NoError(t, r.Use(RequestID()))

	var seen string
	r.GET("/", func(c *router.Context) {
		seen = c.GetString(RequestIDKey)
		c.NoContent()
	})

	resp := dispatch(t, r, getRequest("/"))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, resp.Header("X-Request-ID"))

	// UUID v7 shape: 36 chars, 4 dashes.
	assert.Len(t, seen, 36)
	assert.Equal(t, 4, strings.Count(seen, "-"))
}

func TestRequestIDClientProvided(t *testing.T) {
	r := router.MustNew()
	require.NoError(t, r.Use(RequestID()))
	r.GET("/", func(c *router.Context) { c.NoContent() })

	req := getRequest("/")
	req.Headers.Set("X-Request-ID", "client-id-1")
	resp := dispatch(t, r, req)
	assert.Equal(t, "client-id-1", resp.Header("X-Request-ID"))

	// With client IDs disallowed a fresh one is generated.
	r2 := router.MustNew()
	require.NoError(t, r2.Use(RequestID(WithAllowClientID(false))))
	r2.GET("/", func(c *router.Context) { c.NoContent() })

	resp = dispatch(t, r2, req)
	assert.NotEqual(t, "client-id-1", resp.Header("X-Request-ID"))
}

func TestRequestIDULID(t *testing.T) {
	r := router.MustNew()
	require.NoError(t, r.Use(RequestID(WithULID(), WithAllowClientID(false))))
	r.GET("/", func(c *router.Context) { c.NoContent() })

	resp := dispatch(t, r, getRequest("/"))
	assert.Len(t, resp.Header("X-Request-ID"), 26)
}

func TestLoggerRecordsRequest(t *testing.T) {
	var sb strings.Builder
	logger := slog.New(slog.NewTextHandler(&sb, nil))

	r := router.MustNew()
	require.NoError(t, r.Use(Logger(WithSlogger(logger))))
	r.GET("/ping", func(c *router.Context) {
		c.Text(http1.StatusOK, "pong")
	})

	dispatch(t, r, getRequest("/ping"))
	out := sb.String()
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "path=/ping")
	assert.Contains(t, out, "status=200")
}

func TestLoggerSkipPaths(t *testing.T) {
	var sb strings.Builder
	logger := slog.New(slog.NewTextHandler(&sb, nil))

	r := router.MustNew()
	require.NoError(t, r.Use(Logger(WithSlogger(logger), WithSkipPaths("/healthz"))))
	r.GET("/healthz", func(c *router.Context) { c.NoContent() })

	dispatch(t, r, getRequest("/healthz"))
	assert.Empty(t, sb.String())
}

func TestCORSPreflight(t *testing.T) {
	r := router.MustNew()
	require.NoError(t, r.Use(CORS(WithAllowedOrigins("https://app.example.com"))))

	handlerRan := false
	r.OPTIONS("/api/*", func(c *router.Context) { handlerRan = true })

	req := &http1.Request{Method: "OPTIONS", Path: "/api/users", Version: "HTTP/1.1"}
	req.Headers.Set("Origin", "https://app.example.com")

	resp := dispatch(t, r, req)
	assert.Equal(t, http1.StatusNoContent, resp.Status())
	assert.Equal(t, "https://app.example.com", resp.Header("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header("Access-Control-Allow-Methods"))
	assert.False(t, handlerRan, "preflight must short-circuit")
}

func TestCORSDisallowedOrigin(t *testing.T) {
	r := router.MustNew()
	require.NoError(t, r.Use(CORS(WithAllowedOrigins("https://app.example.com"))))
	r.GET("/", func(c *router.Context) { c.NoContent() })

	req := getRequest("/")
	req.Headers.Set("Origin", "https://evil.example.com")
	resp := dispatch(t, r, req)
	assert.Empty(t, resp.Header("Access-Control-Allow-Origin"))
	assert.Equal(t, http1.StatusNoContent, resp.Status(), "request itself still runs")
}

func TestCORSAllowAll(t *testing.T) {
	r := router.MustNew()
	require.NoError(t, r.Use(CORS(WithAllowAllOrigins())))
	r.GET("/", func(c *router.Context) { c.NoContent() })

	req := getRequest("/")
	req.Headers.Set("Origin", "https://anything.example.com")
	resp := dispatch(t, r, req)
	assert.Equal(t, "*", resp.Header("Access-Control-Allow-Origin"))
}

func TestRecoveryCatchesPanic(t *testing.T) {
	r := router.MustNew()
	require.NoError(t, r.Use(Recovery()))
	r.GET("/boom", func(c *router.Context) {
		panic("kaboom")
	})

	resp := dispatch(t, r, getRequest("/boom"))
	assert.Equal(t, http1.StatusInternalServerError, resp.Status())
	assert.Contains(t, string(resp.Body()), "INTERNAL_ERROR")
}

func TestRecoveryMapsCollectedErrors(t *testing.T) {
	r := router.MustNew()
	require.NoError(t, r.Use(Recovery()))
	r.GET("/fail", func(c *router.Context) {
		c.Error(errors.New("downstream dependency unavailable"))
		c.Text(http1.StatusOK, "partial")
	})

	resp := dispatch(t, r, getRequest("/fail"))
	assert.Equal(t, http1.StatusInternalServerError, resp.Status())
}

func TestRecoveryLeavesHandledErrorsAlone(t *testing.T) {
	r := router.MustNew()
	require.NoError(t, r.Use(Recovery()))
	r.GET("/teapot", func(c *router.Context) {
		c.Error(errors.New("told you"))
		c.Text(http1.StatusTeapot, "short and stout")
	})

	resp := dispatch(t, r, getRequest("/teapot"))
	assert.Equal(t, http1.StatusTeapot, resp.Status())
}

func TestAuthRejectsMissingToken(t *testing.T) {
	r := router.MustNew()
	require.NoError(t, r.Use(Auth(WithStaticToken("s3cret"))))
	r.GET("/private", func(c *router.Context) { c.NoContent() })

	resp := dispatch(t, r, getRequest("/private"))
	assert.Equal(t, http1.StatusUnauthorized, resp.Status())
}

func TestAuthAcceptsValidToken(t *testing.T) {
	r := router.MustNew()
	require.NoError(t, r.Use(Auth(WithStaticToken("s3cret"))))

	var token string
	r.GET("/private", func(c *router.Context) {
		token = c.GetString(AuthTokenKey)
		c.NoContent()
	})

	req := getRequest("/private")
	req.Headers.Set("Authorization", "Bearer s3cret")
	resp := dispatch(t, r, req)
	assert.Equal(t, http1.StatusNoContent, resp.Status())
	assert.Equal(t, "s3cret", token)
}

func TestAuthSkipPaths(t *testing.T) {
	r := router.MustNew()
	require.NoError(t, r.Use(Auth(WithStaticToken("s3cret"), WithAuthSkipPaths("/healthz"))))
	r.GET("/healthz", func(c *router.Context) { c.NoContent() })

	resp := dispatch(t, r, getRequest("/healthz"))
	assert.Equal(t, http1.StatusNoContent, resp.Status())
}

func TestRateLimitEnforced(t *testing.T) {
	r := router.MustNew()
	require.NoError(t, r.Use(RateLimit(WithLimit(3), WithWindow(time.Minute))))
	r.GET("/", func(c *router.Context) { c.NoContent() })

	for i := 0; i < 3; i++ {
		resp := dispatch(t, r, getRequest("/"))
		require.Equal(t, http1.StatusNoContent, resp.Status(), "request %d within budget", i)
	}

	resp := dispatch(t, r, getRequest("/"))
	assert.Equal(t, http1.StatusTooManyRequests, resp.Status())
	assert.NotEmpty(t, resp.Header("Retry-After"))
	assert.Equal(t, "0", resp.Header("X-RateLimit-Remaining"))
}

func TestRateLimitPerClient(t *testing.T) {
	r := router.MustNew()
	require.NoError(t, r.Use(RateLimit(WithLimit(1), WithWindow(time.Minute))))
	r.GET("/", func(c *router.Context) { c.NoContent() })

	require.Equal(t, http1.StatusNoContent, dispatch(t, r, getRequest("/")).Status())
	require.Equal(t, http1.StatusTooManyRequests, dispatch(t, r, getRequest("/")).Status())

	// A different client has its own budget.
	other := getRequest("/")
	other.RemoteAddr = "198.51.100.7:1234"
	assert.Equal(t, http1.StatusNoContent, dispatch(t, r, other).Status())
}
