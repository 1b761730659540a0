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

// Package logging builds the structured slog loggers used across the
// server: a handler type, a level parsed from configuration strings,
// and service attributes attached to every record.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// HandlerType represents the type of logging handler.
type HandlerType string

const (
	// JSONHandler outputs structured JSON logs.
	JSONHandler HandlerType = "json"
	// TextHandler outputs key=value text logs.
	TextHandler HandlerType = "text"
)

// LevelCritical is one step above slog's built-in error level. It is
// reserved for conditions that indicate memory corruption or resource
// misuse, such as a buffer double release.
const LevelCritical = slog.Level(12)

// ParseLevel maps a configuration string onto a slog level.
// Accepted values: debug, info, warning, error, critical.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "critical":
		return LevelCritical, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// Option defines functional options for logger construction.
type Option func(*options)

type options struct {
	handlerType HandlerType
	level       slog.Level
	output      io.Writer
	service     []slog.Attr
}

// WithHandlerType selects the output format.
// Default: text.
func WithHandlerType(t HandlerType) Option {
	return func(o *options) {
		o.handlerType = t
	}
}

// WithLevel sets the minimum level.
// Default: info.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithOutput sets the destination writer.
// Default: os.Stderr.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithService attaches app identity attributes to every record.
//
// Example:
//
//	logging.New(logging.WithService("ember", "1.0.0", "production"))
func WithService(name, version, environment string) Option {
	return func(o *options) {
		o.service = []slog.Attr{
			slog.String("app", name),
			slog.String("version", version),
			slog.String("environment", environment),
		}
	}
}

// New constructs a logger from the options.
func New(opts ...Option) *slog.Logger {
	o := &options{
		handlerType: TextHandler,
		level:       slog.LevelInfo,
		output:      os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level}

	var handler slog.Handler
	switch o.handlerType {
	case JSONHandler:
		handler = slog.NewJSONHandler(o.output, handlerOpts)
	default:
		handler = slog.NewTextHandler(o.output, handlerOpts)
	}

	if len(o.service) > 0 {
		handler = handler.WithAttrs(o.service)
	}
	return slog.New(handler)
}
