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

import "errors"

// Static parse errors. Engines map these onto HTTP status codes with
// StatusForError; they never escape the connection that produced them.
var (
	// ErrRequestTooLarge is returned when the raw request exceeds
	// limits.MaxRequestSize.
	ErrRequestTooLarge = errors.New("request too large")

	// ErrInvalidRequest is returned for structurally broken requests,
	// such as a missing header terminator.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidRequestLine is returned when the request line is
	// malformed or violates a security bound.
	ErrInvalidRequestLine = errors.New("invalid request line")

	// ErrInvalidHeaderLine is returned when a header line is malformed or
	// violates a security bound.
	ErrInvalidHeaderLine = errors.New("invalid header line")

	// ErrTooManyHeaders is returned when the header count exceeds
	// limits.MaxHeaderCount.
	ErrTooManyHeaders = errors.New("too many headers")
)

// StatusForError maps a parse error onto the HTTP status code the
// connection should answer with before closing. Unknown errors map to
// 500.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrRequestTooLarge):
		return StatusPayloadTooLarge
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidRequestLine),
		errors.Is(err, ErrInvalidHeaderLine),
		errors.Is(err, ErrTooManyHeaders):
		return StatusBadRequest
	default:
		return StatusInternalServerError
	}
}
