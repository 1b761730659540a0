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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ember.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Port, cfg.Port)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
address: 0.0.0.0
port: 9090
max_connections: 64
buffer_size: "64 KiB"
log_level: debug
app:
  name: demo
  version: 1.2.3
  environment: production
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr())
	assert.Equal(t, 64, cfg.MaxConnections)
	assert.Equal(t, ByteSize(64*1024), cfg.BufferSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "demo", cfg.App.Name)
	assert.Equal(t, EnvProduction, cfg.App.Environment)

	// Unset fields keep defaults.
	assert.Equal(t, Default().MaxBuffers, cfg.MaxBuffers)
}

func TestLoadNumericBufferSize(t *testing.T) {
	path := writeConfig(t, "buffer_size: 4096\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ByteSize(4096), cfg.BufferSize)
}

func TestLoadRejectsOversizeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.yaml")
	require.NoError(t, os.WriteFile(path, make([]byte, 1<<20+1), 0o644))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrConfigTooLarge)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "port: [not a port\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EMBER_PORT", "7070")
	t.Setenv("EMBER_LOG_LEVEL", "error")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestEnvOverrideBadValue(t *testing.T) {
	t.Setenv("EMBER_PORT", "not-a-number")
	_, err := Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "port zero", mutate: func(c *Config) { c.Port = 0 }},
		{name: "port too high", mutate: func(c *Config) { c.Port = 70000 }},
		{name: "no connections", mutate: func(c *Config) { c.MaxConnections = 0 }},
		{name: "too many connections", mutate: func(c *Config) { c.MaxConnections = 20000 }},
		{name: "negative timeout", mutate: func(c *Config) { c.ReadTimeoutMS = -1 }},
		{name: "zero buffer", mutate: func(c *Config) { c.BufferSize = 0 }},
		{name: "oversized buffer", mutate: func(c *Config) { c.BufferSize = 2 << 20 }},
		{name: "no buffers", mutate: func(c *Config) { c.MaxBuffers = 0 }},
		{name: "bad environment", mutate: func(c *Config) { c.App.Environment = "staging" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
