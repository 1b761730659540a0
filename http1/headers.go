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

import "strings"

// Header is a single name/value pair.
type Header struct {
	Name  string
	Value string
}

// Headers is an insertion-ordered header collection with case-preserving
// storage and case-insensitive lookup. Setting a name that already exists
// (under any casing) replaces the stored value in place, keeping the
// original position and the new spelling of the name.
//
// The zero value is ready to use. Headers is not safe for concurrent use;
// a request or response is owned by a single connection at a time.
type Headers struct {
	entries []Header
	index   map[string]int // lowercased name -> position in entries
}

// Set stores value under name, replacing any existing value for the same
// name regardless of case.
func (h *Headers) Set(name, value string) {
	key := strings.ToLower(name)
	if h.index == nil {
		h.index = make(map[string]int)
	}
	if i, ok := h.index[key]; ok {
		h.entries[i] = Header{Name: name, Value: value}
		return
	}
	h.index[key] = len(h.entries)
	h.entries = append(h.entries, Header{Name: name, Value: value})
}

// Get returns the value stored under name using case-insensitive lookup,
// or "" when absent.
func (h *Headers) Get(name string) string {
	v, _ := h.Lookup(name)
	return v
}

// Lookup returns the value stored under name and whether it is present.
func (h *Headers) Lookup(name string) (string, bool) {
	if h.index == nil {
		return "", false
	}
	i, ok := h.index[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return h.entries[i].Value, true
}

// Has reports whether name is present, case-insensitively.
func (h *Headers) Has(name string) bool {
	_, ok := h.Lookup(name)
	return ok
}

// Len returns the number of stored headers.
func (h *Headers) Len() int {
	return len(h.entries)
}

// Entries returns the stored headers in insertion order. The returned
// slice is the internal storage; callers must not mutate it.
func (h *Headers) Entries() []Header {
	return h.entries
}

// reset empties the collection, retaining allocated capacity.
func (h *Headers) reset() {
	h.entries = h.entries[:0]
	clear(h.index)
}
