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

package http1

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseRawResponse splits a serialized response into status line, header
// map, and body for assertions.
func parseRawResponse(t *testing.T, raw []byte) (string, map[string]string, string) {
	t.Helper()

	head, body, found := strings.Cut(string(raw), "\r\n\r\n")
	require.True(t, found, "response must contain a header terminator")

	lines := strings.Split(head, "\r\n")
	headers := make(map[string]string)
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ": ")
		require.True(t, ok, "malformed header line %q", line)
		headers[name] = value
	}
	return lines[0], headers, body
}

func TestBuildMinimal(t *testing.T) {
	resp := NewResponse()
	resp.Text([]byte("hi"))

	status, headers, body := parseRawResponse(t, resp.Build())
	assert.Equal(t, "HTTP/1.1 200 OK", status)
	assert.Equal(t, "ember", headers["Server"])
	assert.Equal(t, "close", headers["Connection"])
	assert.Equal(t, "2", headers["Content-Length"])
	assert.Equal(t, "text/plain; charset=utf-8", headers["Content-Type"])
	assert.Equal(t, "hi", body)
	assert.NotEmpty(t, headers["Date"])
}

func TestBuildStatusLine(t *testing.T) {
	resp := NewResponse()
	resp.SetStatus(StatusNotFound)
	status, _, _ := parseRawResponse(t, resp.Build())
	assert.Equal(t, "HTTP/1.1 404 Not Found", status)

	resp = NewResponse()
	resp.SetStatus(599)
	status, _, _ = parseRawResponse(t, resp.Build())
	assert.Equal(t, "HTTP/1.1 599 Unknown Status", status)
}

func TestBuildIdempotent(t *testing.T) {
	resp := NewResponse()
	resp.SetStatus(StatusCreated)
	resp.SetHeader("X-Thing", "1")
	resp.JSON([]byte(`{"ok":true}`))

	first := resp.Build()
	second := resp.Build()
	assert.Equal(t, first, second)
}

func TestBuildDefaultsNotDuplicated(t *testing.T) {
	resp := NewResponse()
	resp.SetHeader("Server", "custom/1.0")
	resp.SetHeader("Connection", "close")
	resp.SetHeader("Content-Length", "0")

	raw := string(resp.Build())
	assert.Equal(t, 1, strings.Count(raw, "Server:"))
	assert.Equal(t, 1, strings.Count(raw, "Connection:"))
	assert.Equal(t, 1, strings.Count(raw, "Content-Length:"))
	assert.Contains(t, raw, "Server: custom/1.0\r\n")
}

func TestBuildHeaderReplacement(t *testing.T) {
	resp := NewResponse()
	resp.SetHeader("X-Color", "red")
	resp.SetHeader("x-color", "blue")

	_, headers, _ := parseRawResponse(t, resp.Build())
	assert.Equal(t, "blue", headers["x-color"])
	assert.NotContains(t, headers, "X-Color")
}

func TestBuildCookies(t *testing.T) {
	resp := NewResponse()
	resp.SetCookie(Cookie{Name: "session", Value: "abc"})
	resp.SetCookie(Cookie{
		Name:     "prefs",
		Value:    "dark",
		Path:     "/",
		Domain:   "example.com",
		Expires:  time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
		MaxAge:   3600,
		Secure:   true,
		HttpOnly: true,
		SameSite: SameSiteLax,
	})

	raw := string(resp.Build())
	assert.Contains(t, raw, "Set-Cookie: session=abc\r\n")
	assert.Contains(t, raw,
		"Set-Cookie: prefs=dark; Path=/; Domain=example.com; Expires=Wed, 02 Jan 2030 03:04:05 UTC; Max-Age=3600; Secure; HttpOnly; SameSite=Lax\r\n")

	// Attribute order is canonical: Path before Domain before flags.
	prefs := raw[strings.Index(raw, "prefs=dark"):]
	assert.Less(t, strings.Index(prefs, "Path="), strings.Index(prefs, "Domain="))
	assert.Less(t, strings.Index(prefs, "Max-Age="), strings.Index(prefs, "Secure"))
}

// Round-trip: a bodyless response parsed back from its serialized form
// carries the same status and headers.
func TestBuildRoundTrip(t *testing.T) {
	resp := NewResponse()
	resp.SetStatus(StatusAccepted)
	resp.SetHeader("X-A", "1")
	resp.SetHeader("X-B", "two")

	status, headers, body := parseRawResponse(t, resp.Build())
	assert.Equal(t, "HTTP/1.1 202 Accepted", status)
	assert.Equal(t, "1", headers["X-A"])
	assert.Equal(t, "two", headers["X-B"])
	assert.Empty(t, body)

	// Re-serializing a response rebuilt from the parsed state matches.
	rebuilt := NewResponse()
	rebuilt.SetStatus(StatusAccepted)
	for name, value := range headers {
		rebuilt.SetHeader(name, value)
	}
	status2, headers2, _ := parseRawResponse(t, rebuilt.Build())
	assert.Equal(t, status, status2)
	assert.Equal(t, headers, headers2)
}

func TestReset(t *testing.T) {
	resp := NewResponse()
	resp.SetStatus(StatusTeapot)
	resp.SetHeader("X-A", "1")
	resp.SetCookie(Cookie{Name: "a", Value: "b"})
	resp.SetBody([]byte("x"))
	_ = resp.Build()

	resp.Reset()
	assert.Equal(t, StatusOK, resp.Status())
	assert.Empty(t, resp.Header("X-A"))
	assert.Empty(t, resp.Cookies())
	assert.Nil(t, resp.Body())
}

func TestStatusTextTable(t *testing.T) {
	assert.Equal(t, "OK", StatusText(StatusOK))
	assert.Equal(t, "Continue", StatusText(100))
	assert.Equal(t, "Network Authentication Required", StatusText(511))
	assert.Equal(t, "Payload Too Large", StatusText(413))
	assert.Equal(t, "Unknown Status", StatusText(999))
}
