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

package bufferpool

// Buffer is a fixed-capacity byte buffer owned by a Pool.
//
// The readable region is exactly storage[:validLen]. Reset shrinks the
// readable region to zero but never frees or reallocates storage, so a
// *Buffer handed out by a Pool keeps a stable address and backing array
// for its entire lifetime.
type Buffer struct {
	storage  []byte
	validLen int
}

// newBuffer allocates a buffer with the given fixed capacity.
func newBuffer(size int) *Buffer {
	return &Buffer{storage: make([]byte, size)}
}

// Storage returns the full backing array. Callers read from the network
// directly into this slice and then record the byte count with SetValidLen.
func (b *Buffer) Storage() []byte {
	return b.storage
}

// Bytes returns the readable region of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.storage[:b.validLen]
}

// Len returns the number of readable bytes.
func (b *Buffer) Len() int {
	return b.validLen
}

// Cap returns the fixed capacity of the buffer.
func (b *Buffer) Cap() int {
	return len(b.storage)
}

// SetValidLen records how many bytes of storage are readable.
// Values outside [0, Cap()] are clamped.
func (b *Buffer) SetValidLen(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(b.storage) {
		n = len(b.storage)
	}
	b.validLen = n
}

// Reset empties the readable region. Storage is retained for reuse.
func (b *Buffer) Reset() {
	b.validLen = 0
}
