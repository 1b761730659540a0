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
	"strconv"
	"strings"
	"time"
)

// serverName is the default Server header value.
const serverName = "ember"

// Response accumulates status, headers, cookies, and body, and
// serializes them to a single contiguous byte slice.
//
// Build is idempotent over the response state: the Date header is
// captured once on first Build, so repeated calls produce identical
// bytes for unchanged state.
type Response struct {
	status  int
	headers Headers
	cookies []Cookie
	body    []byte

	// buildTime pins the Date header across Build calls.
	buildTime time.Time

	// now is replaceable for tests.
	now func() time.Time
}

// NewResponse creates an empty 200 response.
func NewResponse() *Response {
	return &Response{status: StatusOK, now: time.Now}
}

// Status returns the current status code.
func (r *Response) Status() int {
	return r.status
}

// SetStatus sets the status code.
func (r *Response) SetStatus(code int) {
	r.status = code
}

// SetHeader sets a header, replacing any existing value for the name.
func (r *Response) SetHeader(name, value string) {
	r.headers.Set(name, value)
}

// Header returns the header value for name, or "" when unset.
func (r *Response) Header(name string) string {
	return r.headers.Get(name)
}

// SetCookie appends a Set-Cookie line to the response.
func (r *Response) SetCookie(c Cookie) {
	r.cookies = append(r.cookies, c)
}

// Cookies returns the cookies added so far, in insertion order.
func (r *Response) Cookies() []Cookie {
	return r.cookies
}

// SetBody replaces the response body.
func (r *Response) SetBody(body []byte) {
	r.body = body
}

// Body returns the current body, or nil when unset.
func (r *Response) Body() []byte {
	return r.body
}

// JSON sets Content-Type to application/json and replaces the body.
func (r *Response) JSON(body []byte) {
	r.headers.Set("Content-Type", "application/json")
	r.SetBody(body)
}

// Text sets Content-Type to text/plain and replaces the body.
func (r *Response) Text(body []byte) {
	r.headers.Set("Content-Type", "text/plain; charset=utf-8")
	r.SetBody(body)
}

// HTML sets Content-Type to text/html and replaces the body.
func (r *Response) HTML(body []byte) {
	r.headers.Set("Content-Type", "text/html; charset=utf-8")
	r.SetBody(body)
}

// Build serializes the response into a freshly allocated byte slice.
//
// Output order: status line, the default Server / Date / Connection
// headers (each only when not set by the caller), caller headers in
// insertion order, one Set-Cookie line per cookie, Content-Length (when
// not set by the caller), blank line, body.
func (r *Response) Build() []byte {
	if r.buildTime.IsZero() {
		r.buildTime = r.now()
	}

	var sb strings.Builder
	sb.Grow(256 + len(r.body))

	sb.WriteString("HTTP/1.1 ")
	sb.WriteString(strconv.Itoa(r.status))
	sb.WriteByte(' ')
	sb.WriteString(StatusText(r.status))
	sb.WriteString("\r\n")

	if !r.headers.Has("Server") {
		sb.WriteString("Server: ")
		sb.WriteString(serverName)
		sb.WriteString("\r\n")
	}
	if !r.headers.Has("Date") {
		sb.WriteString("Date: ")
		sb.WriteString(strconv.FormatInt(r.buildTime.Unix(), 10))
		sb.WriteString("\r\n")
	}
	if !r.headers.Has("Connection") {
		sb.WriteString("Connection: close\r\n")
	}

	for _, h := range r.headers.Entries() {
		sb.WriteString(h.Name)
		sb.WriteString(": ")
		sb.WriteString(h.Value)
		sb.WriteString("\r\n")
	}

	for i := range r.cookies {
		sb.WriteString("Set-Cookie: ")
		r.cookies[i].writeTo(&sb)
		sb.WriteString("\r\n")
	}

	if !r.headers.Has("Content-Length") {
		sb.WriteString("Content-Length: ")
		sb.WriteString(strconv.Itoa(len(r.body)))
		sb.WriteString("\r\n")
	}

	sb.WriteString("\r\n")

	out := make([]byte, 0, sb.Len()+len(r.body))
	out = append(out, sb.String()...)
	out = append(out, r.body...)
	return out
}

// Reset returns the response to its initial state so it can be reused
// for another request.
func (r *Response) Reset() {
	r.status = StatusOK
	r.headers.reset()
	r.cookies = r.cookies[:0]
	r.body = nil
	r.buildTime = time.Time{}
}
