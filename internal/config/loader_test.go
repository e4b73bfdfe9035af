// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agency.hjson")
	require.NoError(t, os.WriteFile(path, []byte(`{
		server: {
			host: "0.0.0.0"
			port: 4000
		}
		workspace: {
			dir: "/srv/work"
			default_shell: "/bin/zsh"
		}
		assistant: {
			cli_path: "/usr/local/bin/claude"
			default_model: "opus"
		}
		events: {
			capacity: 500
		}
	}`), 0o644))

	l := NewLoader()
	cfg, err := l.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "/srv/work", cfg.Workspace.Dir)
	assert.Equal(t, "/bin/zsh", cfg.Workspace.DefaultShell)
	assert.Equal(t, "/usr/local/bin/claude", cfg.Assistant.CLIPath)
	assert.Equal(t, "opus", cfg.Assistant.DefaultModel)
	assert.Equal(t, 500, cfg.Events.Capacity)
}

func TestLoader_Load_MissingFile(t *testing.T) {
	l := NewLoader()
	_, err := l.Load("/nonexistent/agency.hjson")
	assert.Error(t, err)
}

func TestLoader_Load_InvalidHJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agency.hjson")
	require.NoError(t, os.WriteFile(path, []byte(`{ not: valid :: hjson`), 0o644))

	l := NewLoader()
	_, err := l.Load(path)
	assert.Error(t, err)
}

func TestLoader_LoadWithDefaults_FillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agency.hjson")
	require.NoError(t, os.WriteFile(path, []byte(`{
		assistant: {
			cli_path: "/opt/claude/bin/claude"
		}
	}`), 0o644))

	l := NewLoader()
	cfg, err := l.LoadWithDefaults(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.NotEmpty(t, cfg.Workspace.Dir)
	assert.NotEmpty(t, cfg.Workspace.DefaultShell)
	assert.Equal(t, 1000, cfg.Events.Capacity)
	assert.Equal(t, "/opt/claude/bin/claude", cfg.Assistant.CLIPath)
}

func TestLoader_LoadWithDefaults_PreservesExplicitValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agency.hjson")
	require.NoError(t, os.WriteFile(path, []byte(`{
		server: { host: "0.0.0.0", port: 9090 }
	}`), 0o644))

	l := NewLoader()
	cfg, err := l.LoadWithDefaults(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoader_FindConfig(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { require.NoError(t, os.Chdir(wd)) }()
	require.NoError(t, os.Chdir(dir))

	l := NewLoader()
	_, err = l.FindConfig()
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "agency.json"), []byte(`{}`), 0o644))
	path, err := l.FindConfig()
	require.NoError(t, err)
	assert.Contains(t, path, "agency.json")
}
