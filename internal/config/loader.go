// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hjson/hjson-go/v4"
)

// Loader handles configuration file loading.
type Loader struct{}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the configuration from the given path. HJSON is
// parsed to an intermediate map first, then round-tripped through
// encoding/json into the typed Config struct, for the same reason the
// teacher's loader does this: hjson-go only knows how to decode into
// interface{}-shaped values, not arbitrary structs.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw map[string]interface{}
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse hjson: %w", err)
	}

	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config with default values applied.
func (l *Loader) LoadWithDefaults(path string) (*Config, error) {
	cfg, err := l.Load(path)
	if err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// FindConfig searches for agency.hjson then agency.json in the current
// directory.
func (l *Loader) FindConfig() (string, error) {
	for _, name := range []string{"agency.hjson", "agency.json"} {
		path := filepath.Join(".", name)
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs, nil
			}
			return path, nil
		}
	}
	return "", fmt.Errorf("config file not found (looked for agency.hjson, agency.json)")
}

// applyDefaults sets default values for missing config fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Workspace.Dir == "" {
		if wd := os.Getenv("WORKSPACE_DIR"); wd != "" {
			cfg.Workspace.Dir = wd
		} else if cwd, err := os.Getwd(); err == nil {
			cfg.Workspace.Dir = cwd
		}
	}
	if cfg.Workspace.DefaultShell == "" {
		if sh := os.Getenv("SHELL"); sh != "" {
			cfg.Workspace.DefaultShell = sh
		} else {
			cfg.Workspace.DefaultShell = "/bin/bash"
		}
	}
	if cfg.Events.Capacity == 0 {
		cfg.Events.Capacity = 1000
	}
}
