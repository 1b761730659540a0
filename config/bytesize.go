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

package config

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// ByteSize is a byte count that unmarshals from either a plain integer
// or a humanized string such as "64 KiB" or "1MB".
type ByteSize int

// UnmarshalYAML implements yaml unmarshaling for humanized byte sizes.
func (b *ByteSize) UnmarshalYAML(unmarshal func(any) error) error {
	var n int
	if err := unmarshal(&n); err == nil {
		*b = ByteSize(n)
		return nil
	}

	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("byte size must be an integer or a size string: %w", err)
	}
	parsed, err := humanize.ParseBytes(s)
	if err != nil {
		return fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	*b = ByteSize(parsed)
	return nil
}

// String returns the humanized form, e.g. "8.2 kB".
func (b ByteSize) String() string {
	return humanize.Bytes(uint64(b))
}
