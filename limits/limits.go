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

// Package limits centralizes the security bounds enforced across the
// framework and provides checked integer arithmetic for the code paths
// that compute sizes from untrusted input.
//
// Every bound here is a hard constant. They are not configurable at
// runtime: request parsing, header validation, and connection admission
// reference these values directly so a misconfigured deployment cannot
// accidentally widen them.
package limits

import "time"

const (
	// MaxRequestSize is the maximum total size of a single HTTP request,
	// including request line, headers, and body.
	MaxRequestSize = 1 << 20 // 1 MiB

	// MaxHeaderCount is the maximum number of headers accepted per request.
	MaxHeaderCount = 100

	// MaxHeaderNameSize is the maximum length of a header name in bytes.
	MaxHeaderNameSize = 256

	// MaxHeaderValueSize is the maximum length of a header value in bytes.
	MaxHeaderValueSize = 4 << 10 // 4 KiB

	// MaxURILength is the maximum length of the request target.
	MaxURILength = 2048

	// MaxBodySize is the request body size bound. No code path checks it:
	// ParseRequest does not compare Content-Length against it, and a body
	// is limited only to the bytes read, which MaxRequestSize bounds.
	MaxBodySize = 10 << 20 // 10 MiB

	// MaxMethodLength is the maximum length of an HTTP method token.
	MaxMethodLength = 16

	// MaxVersionLength is the maximum length of the HTTP version token.
	MaxVersionLength = 16

	// MaxConnections is the hard ceiling on concurrent connections,
	// regardless of configuration.
	MaxConnections = 10000

	// MaxPathDepth is the maximum number of path segments in a route
	// pattern or request path.
	MaxPathDepth = 20

	// MaxConfigFileSize is the maximum size of a configuration file the
	// loader will read.
	MaxConfigFileSize = 1 << 20 // 1 MiB
)

// Rate limiting defaults used by the ratelimit middleware.
const (
	// RateLimitWindow is the fixed window over which per-client request
	// counts are accumulated.
	RateLimitWindow = 60 * time.Second

	// MaxRequestsPerIPPerMinute is the default number of requests allowed
	// per client IP per window.
	MaxRequestsPerIPPerMinute = 100
)
