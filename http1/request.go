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

// Package http1 implements the HTTP/1.1 wire layer: a strict request
// parser with hard security bounds, a response builder that serializes
// to a single contiguous byte slice, and the status-code table.
//
// The package intentionally supports only the subset of HTTP/1.1 the
// engines speak: one Content-Length-delimited request per connection, no
// chunked transfer encoding, no pipelining.
package http1

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/emberhttp/ember/limits"
)

var (
	crlf     = []byte("\r\n")
	crlfcrlf = []byte("\r\n\r\n")
)

// standardMethods is the set of accepted request methods.
var standardMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"HEAD":    true,
	"OPTIONS": true,
	"PATCH":   true,
	"TRACE":   true,
}

// Request is a parsed HTTP/1.1 request.
//
// Method, Path, Query, Version, and all header names and values are
// owned copies of the input. Body is NOT a copy: it is a subslice of the
// byte slice given to ParseRequest and must not outlive the buffer that
// backs it. Handlers that retain the body past the request must copy it.
type Request struct {
	Method  string
	Path    string
	Query   string
	Version string
	Headers Headers

	// Body borrows from the parse input. Nil when the request has no
	// Content-Length header or no bytes follow the header block.
	Body []byte

	// RemoteAddr is the peer address as reported by the engine that
	// accepted the connection. It is not part of the wire format.
	RemoteAddr string
}

// ContentLength returns the parsed Content-Length header value, or -1
// when the header is absent or not a nonnegative integer.
func (r *Request) ContentLength() int {
	v, ok := r.Headers.Lookup("Content-Length")
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// ParseRequest parses a complete HTTP/1.1 request from data.
//
// The parser enforces every bound in the limits package and rejects CR,
// LF, and NUL in header values to defeat response-splitting. The
// returned request owns copies of everything except Body, which borrows
// from data.
func ParseRequest(data []byte) (*Request, error) {
	if len(data) > limits.MaxRequestSize {
		return nil, ErrRequestTooLarge
	}

	headerEnd := bytes.Index(data, crlfcrlf)
	if headerEnd < 0 {
		return nil, ErrInvalidRequest
	}

	lines := bytes.Split(data[:headerEnd], crlf)
	req := &Request{}
	if err := parseRequestLine(req, lines[0]); err != nil {
		return nil, err
	}

	for _, line := range lines[1:] {
		if req.Headers.Len() >= limits.MaxHeaderCount {
			return nil, ErrTooManyHeaders
		}
		name, value, err := parseHeaderLine(line)
		if err != nil {
			return nil, err
		}
		req.Headers.Set(name, value)
	}

	if err := parseBody(req, data, headerEnd); err != nil {
		return nil, err
	}
	return req, nil
}

// parseRequestLine validates and splits "METHOD target HTTP/x.y".
func parseRequestLine(req *Request, line []byte) error {
	parts := strings.Split(string(line), " ")
	if len(parts) != 3 {
		return ErrInvalidRequestLine
	}
	method, target, version := parts[0], parts[1], parts[2]

	if len(method) == 0 || len(method) > limits.MaxMethodLength {
		return ErrInvalidRequestLine
	}
	if !standardMethods[method] {
		return ErrInvalidRequestLine
	}
	if len(target) == 0 || len(target) > limits.MaxURILength {
		return ErrInvalidRequestLine
	}
	if strings.IndexByte(target, 0) >= 0 {
		return ErrInvalidRequestLine
	}
	if len(version) == 0 || len(version) > limits.MaxVersionLength {
		return ErrInvalidRequestLine
	}
	if !strings.HasPrefix(version, "HTTP/") {
		return ErrInvalidRequestLine
	}

	req.Method = method
	req.Version = version
	if i := strings.IndexByte(target, '?'); i >= 0 {
		req.Path = target[:i]
		req.Query = target[i+1:]
	} else {
		req.Path = target
	}
	return nil
}

// parseHeaderLine validates and splits one "Name: value" line.
func parseHeaderLine(line []byte) (string, string, error) {
	colon := bytes.IndexByte(line, ':')
	if colon < 0 {
		return "", "", ErrInvalidHeaderLine
	}

	name := strings.Trim(string(line[:colon]), " ")
	value := strings.Trim(string(line[colon+1:]), " ")

	if len(name) == 0 || len(name) > limits.MaxHeaderNameSize {
		return "", "", ErrInvalidHeaderLine
	}
	if len(value) > limits.MaxHeaderValueSize {
		return "", "", ErrInvalidHeaderLine
	}
	if strings.ContainsAny(value, "\r\n\x00") {
		return "", "", ErrInvalidHeaderLine
	}
	return name, value, nil
}

// parseBody attaches the borrowed body subslice when a valid
// Content-Length is present and bytes remain after the header block.
//
// A declared length larger than what was read is not an error: the
// engines read a single buffer's worth, so the body is truncated to what
// is available.
func parseBody(req *Request, data []byte, headerEnd int) error {
	declared := req.ContentLength()
	if declared < 0 {
		return nil
	}

	start, err := limits.Add(headerEnd, len(crlfcrlf))
	if err != nil {
		return ErrInvalidRequest
	}
	if start == len(data) {
		// Header present but no body bytes were read; treat as bodyless.
		return nil
	}
	if start > len(data) {
		return ErrInvalidRequest
	}

	available := len(data) - start
	actual := min(declared, available)
	req.Body = data[start : start+actual]
	return nil
}
