// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package registry implements the session registry component: two keyed
// collections (assistants, terminals) guarded for concurrent
// create/lookup/remove.
package registry

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/amirdauti/virtualagency/internal/assistant"
	"github.com/amirdauti/virtualagency/internal/bus"
	"github.com/amirdauti/virtualagency/internal/terminal"
)

// ErrConflict is returned by Create when the id is already present.
var ErrConflict = fmt.Errorf("registry: id already exists")

// ErrNotFound is returned by Get/Remove when the id is absent.
var ErrNotFound = fmt.Errorf("registry: id not found")

// AgentInfo is the snapshot summary Listing returns for an assistant
// session, suitable for the control plane.
type AgentInfo struct {
	ID          string
	WorkDir     string
	DisplayName string
	Settings    assistant.Settings
	Running     bool
}

// TerminalInfo is the snapshot summary Listing returns for a terminal
// session.
type TerminalInfo struct {
	ID      string
	WorkDir string
}

// Registry holds the two id→session mappings. Reads (Get/List, including
// the reads performed during inbound terminal-input routing) proceed
// concurrently; structural changes (create/remove) take the exclusive
// lock. Each session's own internal mutable state is guarded by its own
// lock, so concurrent registry readers never serialize on a single
// session's I/O.
type Registry struct {
	mu        sync.RWMutex
	agents    map[string]*assistant.Session
	terminals map[string]*terminal.Session

	factory *assistant.Factory
	pub     bus.Bus
}

// New constructs an empty registry bound to factory (for spawning
// assistant sessions) and pub (the bus every session publishes to).
func New(factory *assistant.Factory, pub bus.Bus) *Registry {
	return &Registry{
		agents:    make(map[string]*assistant.Session),
		terminals: make(map[string]*terminal.Session),
		factory:   factory,
		pub:       pub,
	}
}

// NextID mints a server-side session identifier: a random 128-bit value
// rendered as hex with dashes, via google/uuid.
func NextID() string {
	return uuid.New().String()
}

// CreateAgent inserts a newly constructed assistant session under id.
// Fails with ErrConflict if id is already present, or with
// assistant.ErrCLINotFound if the assistant CLI cannot be resolved.
func (r *Registry) CreateAgent(id, workDir, displayName string, settings assistant.Settings) (*assistant.Session, error) {
	r.mu.RLock()
	_, exists := r.agents[id]
	r.mu.RUnlock()
	if exists {
		return nil, ErrConflict
	}

	s, err := r.factory.New(id, workDir, displayName, settings)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[id]; exists {
		return nil, ErrConflict
	}
	r.agents[id] = s
	return s, nil
}

// GetAgent looks up an assistant session by id.
func (r *Registry) GetAgent(id string) (*assistant.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// RemoveAgent kills and removes an assistant session.
func (r *Registry) RemoveAgent(id string) error {
	r.mu.Lock()
	s, ok := r.agents[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.agents, id)
	r.mu.Unlock()

	s.Kill()
	return nil
}

// ListAgents returns a snapshot of (id, summary-fields) for every
// assistant session.
func (r *Registry) ListAgents() []AgentInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AgentInfo, 0, len(r.agents))
	for id, s := range r.agents {
		out = append(out, AgentInfo{
			ID:          id,
			WorkDir:     s.WorkDir,
			DisplayName: s.DisplayName,
			Settings:    s.GetSettings(),
			Running:     s.HasLiveChild(),
		})
	}
	return out
}

// CreateTerminal opens a PTY session and inserts it under id. Fails with
// ErrConflict if id is already present.
func (r *Registry) CreateTerminal(id, workDir string, cols, rows uint16) (*terminal.Session, error) {
	r.mu.Lock()
	if _, exists := r.terminals[id]; exists {
		r.mu.Unlock()
		return nil, ErrConflict
	}
	r.mu.Unlock()

	s, err := terminal.Create(id, workDir, cols, rows, r.pub)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, exists := r.terminals[id]; exists {
		r.mu.Unlock()
		s.Kill()
		return nil, ErrConflict
	}
	r.terminals[id] = s
	r.mu.Unlock()
	return s, nil
}

// GetTerminal looks up a terminal session by id. This is the lookup
// inbound terminal-input/terminal-resize routing uses; it only takes the
// registry's read lock, never a session's own lock.
func (r *Registry) GetTerminal(id string) (*terminal.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.terminals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// RemoveTerminal kills and removes a terminal session. After it returns,
// no further events with that id are observed on new subscriptions,
// since the reader goroutine's master has been closed and nothing will
// publish under that id again.
func (r *Registry) RemoveTerminal(id string) error {
	r.mu.Lock()
	s, ok := r.terminals[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.terminals, id)
	r.mu.Unlock()

	s.Kill()
	return nil
}

// ListTerminals returns a snapshot of (id, summary-fields) for every
// terminal session.
func (r *Registry) ListTerminals() []TerminalInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TerminalInfo, 0, len(r.terminals))
	for id, s := range r.terminals {
		out = append(out, TerminalInfo{ID: id, WorkDir: s.WorkDir})
	}
	return out
}

// Shutdown kills every session in the registry. There is no graceful
// drain of in-flight bus events.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	agents := make([]*assistant.Session, 0, len(r.agents))
	for _, s := range r.agents {
		agents = append(agents, s)
	}
	terminals := make([]*terminal.Session, 0, len(r.terminals))
	for _, s := range r.terminals {
		terminals = append(terminals, s)
	}
	r.agents = make(map[string]*assistant.Session)
	r.terminals = make(map[string]*terminal.Session)
	r.mu.Unlock()

	for _, s := range agents {
		s.Kill()
	}
	for _, s := range terminals {
		s.Kill()
	}
}
