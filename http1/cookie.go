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

// SameSite controls the SameSite cookie attribute.
type SameSite int

const (
	// SameSiteUnset omits the attribute entirely.
	SameSiteUnset SameSite = iota
	SameSiteStrict
	SameSiteLax
	SameSiteNone
)

// String returns the attribute value for the Set-Cookie header.
func (s SameSite) String() string {
	switch s {
	case SameSiteStrict:
		return "Strict"
	case SameSiteLax:
		return "Lax"
	case SameSiteNone:
		return "None"
	default:
		return ""
	}
}

// Cookie represents a Set-Cookie header to be emitted with a response.
// Zero-valued optional fields are omitted from the serialized form.
type Cookie struct {
	Name  string
	Value string

	Path     string
	Domain   string
	Expires  time.Time
	MaxAge   int // seconds; 0 means unset, negative means delete now
	Secure   bool
	HttpOnly bool
	SameSite SameSite
}

// writeTo appends the Set-Cookie serialization of c to sb. Attributes
// appear in canonical order: Path, Domain, Expires, Max-Age, Secure,
// HttpOnly, SameSite.
func (c *Cookie) writeTo(sb *strings.Builder) {
	sb.WriteString(c.Name)
	sb.WriteByte('=')
	sb.WriteString(c.Value)

	if c.Path != "" {
		sb.WriteString("; Path=")
		sb.WriteString(c.Path)
	}
	if c.Domain != "" {
		sb.WriteString("; Domain=")
		sb.WriteString(c.Domain)
	}
	if !c.Expires.IsZero() {
		sb.WriteString("; Expires=")
		sb.WriteString(c.Expires.UTC().Format(time.RFC1123))
	}
	if c.MaxAge != 0 {
		maxAge := c.MaxAge
		if maxAge < 0 {
			maxAge = 0
		}
		sb.WriteString("; Max-Age=")
		sb.WriteString(strconv.Itoa(maxAge))
	}
	if c.Secure {
		sb.WriteString("; Secure")
	}
	if c.HttpOnly {
		sb.WriteString("; HttpOnly")
	}
	if c.SameSite != SameSiteUnset {
		sb.WriteString("; SameSite=")
		sb.WriteString(c.SameSite.String())
	}
}
