// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the server's HJSON configuration file.
package config

// Config is the typed form of agency.hjson.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Workspace WorkspaceConfig `json:"workspace"`
	Assistant AssistantConfig `json:"assistant"`
	Events    EventsConfig    `json:"events"`
}

// ServerConfig controls the HTTP/WebSocket listener (loopback, port
// 3001 by default).
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// WorkspaceConfig holds the workspace settings of the config file. Both
// fields are loaded and defaulted, but session creation does not read
// them: create requests must name their own working_dir, and terminals
// take their shell from $SHELL.
type WorkspaceConfig struct {
	Dir           string `json:"dir"`
	DefaultShell  string `json:"default_shell"`
}

// AssistantConfig controls assistant-session defaults.
type AssistantConfig struct {
	CLIPath      string `json:"cli_path"`
	DefaultModel string `json:"default_model"`
}

// EventsConfig controls the event bus.
type EventsConfig struct {
	Capacity int `json:"capacity"`
}
