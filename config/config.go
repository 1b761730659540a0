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

// Package config loads server configuration from an optional YAML file
// with environment-variable overrides.
//
// A missing file is not an error: defaults apply. A present file is
// capped at 1 MiB and validated after decoding.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cast"

	"github.com/emberhttp/ember/limits"
)

// Environment names accepted in the app section.
const (
	EnvDevelopment = "development"
	EnvTesting     = "testing"
	EnvProduction  = "production"
)

// Static errors for better error handling and testing.
var (
	// ErrConfigTooLarge is returned when the config file exceeds the
	// loader's size cap.
	ErrConfigTooLarge = errors.New("config file too large")

	// ErrInvalidConfig is returned when a decoded configuration fails
	// validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// App identifies the application embedding the server.
type App struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Config holds the server configuration.
//
// Byte-size fields accept humanized strings in YAML ("64 KiB", "1 MiB")
// as well as plain integers.
type Config struct {
	Address        string   `yaml:"address"`
	Port           int      `yaml:"port"`
	MaxConnections int      `yaml:"max_connections"`
	ReadTimeoutMS  int      `yaml:"read_timeout_ms"`
	WriteTimeoutMS int      `yaml:"write_timeout_ms"`
	BufferSize     ByteSize `yaml:"buffer_size"`
	MaxBuffers     int      `yaml:"max_buffers"`
	MaxRoutes      int      `yaml:"max_routes"`
	MaxMiddlewares int      `yaml:"max_middlewares"`
	LogLevel       string   `yaml:"log_level"`

	App App `yaml:"app"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Address:        "127.0.0.1",
		Port:           8080,
		MaxConnections: 1000,
		ReadTimeoutMS:  5000,
		WriteTimeoutMS: 5000,
		BufferSize:     8192,
		MaxBuffers:     1024,
		MaxRoutes:      100,
		MaxMiddlewares: 50,
		LogLevel:       "info",
		App: App{
			Name:        "ember",
			Version:     "dev",
			Environment: EnvDevelopment,
		},
	}
}

// Load reads the configuration from path. An empty path or a missing
// file yields the defaults. Environment overrides are applied after the
// file, and the result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := readCapped(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Absent file: defaults apply.
		case err != nil:
			return Config{}, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// readCapped reads path, refusing files over the size cap.
func readCapped(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > limits.MaxConfigFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrConfigTooLarge, path, info.Size())
	}
	return os.ReadFile(path)
}

// applyEnv overlays EMBER_* environment variables onto cfg.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("EMBER_ADDRESS"); v != "" {
		cfg.Address = v
	}
	if v := os.Getenv("EMBER_PORT"); v != "" {
		port, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("EMBER_PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("EMBER_MAX_CONNECTIONS"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("EMBER_MAX_CONNECTIONS: %w", err)
		}
		cfg.MaxConnections = n
	}
	if v := os.Getenv("EMBER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("EMBER_ENVIRONMENT"); v != "" {
		cfg.App.Environment = v
	}
	return nil
}

// Validate checks the configuration for nonsensical values and clamps
// nothing: a bad config is an error, not a guess.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.MaxConnections < 1 || c.MaxConnections > limits.MaxConnections {
		return fmt.Errorf("%w: max_connections %d out of range [1, %d]",
			ErrInvalidConfig, c.MaxConnections, limits.MaxConnections)
	}
	if c.ReadTimeoutMS < 0 || c.WriteTimeoutMS < 0 {
		return fmt.Errorf("%w: timeouts must be nonnegative", ErrInvalidConfig)
	}
	if c.BufferSize < 1 || int(c.BufferSize) > limits.MaxRequestSize {
		return fmt.Errorf("%w: buffer_size %d out of range [1, %d]",
			ErrInvalidConfig, c.BufferSize, limits.MaxRequestSize)
	}
	if c.MaxBuffers < 1 {
		return fmt.Errorf("%w: max_buffers must be positive", ErrInvalidConfig)
	}
	if c.MaxRoutes < 0 || c.MaxMiddlewares < 0 {
		return fmt.Errorf("%w: route and middleware caps must be nonnegative", ErrInvalidConfig)
	}
	switch c.App.Environment {
	case EnvDevelopment, EnvTesting, EnvProduction:
	default:
		return fmt.Errorf("%w: unknown environment %q", ErrInvalidConfig, c.App.Environment)
	}
	return nil
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}
