// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package assistant implements the Assistant session component: one
// external-CLI child, its stream parser, and its conversation-id state.
package assistant

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/amirdauti/virtualagency/internal/bus"
	"github.com/mitchellh/go-ps"
	"golang.org/x/sync/errgroup"
)

// Settings is the mutable triple UpdateSettings/GetSettings operate on.
type Settings struct {
	Model      string
	Thinking   bool
	Extensions []string
}

// Session is one assistant session: identity, settings, and the
// mutable conversation-id / current-child state that tracks its
// active child process.
// Fine-grained locks guard each mutable field independently so that a
// registry-level read of the session (e.g. for a list summary) never
// serializes on a reader goroutine performing subprocess I/O.
type Session struct {
	ID          string
	WorkDir     string
	DisplayName string

	cliPath string
	pub     bus.Bus

	settingsMu sync.Mutex
	settings   Settings

	convMu sync.Mutex
	convID string

	childMu    sync.Mutex
	cmd        *exec.Cmd
	cancel     context.CancelFunc
	processGen int
}

// NewSession constructs a session. cliPath is the resolved assistant CLI
// binary (see FindCLI); pub is the bus every reader publishes to.
func NewSession(id, workDir, displayName, cliPath string, pub bus.Bus, settings Settings) *Session {
	return &Session{
		ID:          id,
		WorkDir:     workDir,
		DisplayName: displayName,
		cliPath:     cliPath,
		pub:         pub,
		settings:    settings,
	}
}

// GetSettings returns the current model/thinking/extensions triple.
func (s *Session) GetSettings() Settings {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.settings
}

// UpdateSettings mutates session fields; affects subsequent Send calls
// only, never a child already running.
func (s *Session) UpdateSettings(model *string, thinking *bool, extensions []string) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	if model != nil {
		s.settings.Model = *model
	}
	if thinking != nil {
		s.settings.Thinking = *thinking
	}
	if extensions != nil {
		s.settings.Extensions = extensions
	}
}

// conversationID returns the currently stored conversation id, or "" if
// none has been observed yet.
func (s *Session) conversationID() string {
	s.convMu.Lock()
	defer s.convMu.Unlock()
	return s.convID
}

// observeConversationID stores id the first time one is seen, leaving
// it untouched on subsequent calls.
func (s *Session) observeConversationID(id string) {
	if id == "" {
		return
	}
	s.convMu.Lock()
	if s.convID == "" {
		s.convID = id
	}
	s.convMu.Unlock()
}

// overwriteConversationID unconditionally replaces the stored id, the
// authoritative update a `result` frame performs.
func (s *Session) overwriteConversationID(id string) {
	if id == "" {
		return
	}
	s.convMu.Lock()
	s.convID = id
	s.convMu.Unlock()
}

// Send spawns one child instance of the assistant CLI. It returns once
// the child has been spawned and reader goroutines installed; it does
// not await completion. A previous child still alive on a subsequent
// Send is the caller's responsibility — the session neither queues
// nor rejects:
// the new child simply replaces the old child handle.
func (s *Session) Send(message string, images []string) error {
	s.pub.Publish(bus.NewAgentStatus(s.ID, bus.StatusThinking))

	prompt := message
	if len(images) > 0 {
		prompt = fmt.Sprintf("Images attached: %s\n\n%s", strings.Join(images, " "), message)
	}

	settings := s.GetSettings()
	args := []string{
		"-p", prompt,
		"--output-format", "stream-json",
		"--verbose",
		"--dangerously-skip-permissions",
	}
	if settings.Model != "" {
		args = append(args, "--model", settings.Model)
	}
	if resumeID := s.conversationID(); resumeID != "" {
		args = append(args, "--resume", resumeID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, s.cliPath, args...)
	cmd.Dir = s.WorkDir
	cmd.Stdin = nil
	cmd.Env = os.Environ()
	if settings.Thinking {
		cmd.Env = append(cmd.Env, "MAX_THINKING_TOKENS=31999")
	}
	if len(settings.Extensions) > 0 {
		if encoded, err := json.Marshal(settings.Extensions); err == nil {
			cmd.Env = append(cmd.Env, "CLAUDE_MCP_SERVERS="+string(encoded))
		}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		s.pub.Publish(bus.NewAgentStatus(s.ID, bus.StatusError))
		return fmt.Errorf("assistant: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		s.pub.Publish(bus.NewAgentStatus(s.ID, bus.StatusError))
		return fmt.Errorf("assistant: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		s.pub.Publish(bus.NewAgentStatus(s.ID, bus.StatusError))
		return fmt.Errorf("assistant: spawn failed: %w", err)
	}

	s.childMu.Lock()
	s.cmd = cmd
	s.cancel = cancel
	s.processGen++
	gen := s.processGen
	s.childMu.Unlock()

	go s.superviseChild(cmd, gen, stdout, stderr)

	return nil
}

// superviseChild runs the stdout/stderr readers to completion, reaps the
// child, and clears the child handle — but only if no newer Send has
// already replaced it (the generation-counter guard mirrors the
// teacher's claude.Manager readLoop, which checks processGen before
// clearing session state for the same reason: a slow-to-exit old child
// must never clobber a freshly spawned one's bookkeeping).
func (s *Session) superviseChild(cmd *exec.Cmd, gen int, stdout, stderr io.Reader) {
	var g errgroup.Group
	g.Go(func() error {
		s.readStdout(stdout)
		return nil
	})
	g.Go(func() error {
		s.readStderr(stderr)
		return nil
	})
	g.Wait()

	// Child exit is reaped explicitly, purely for resource hygiene —
	// no status transition depends on the wait result.
	if err := cmd.Wait(); err != nil {
		log.Printf("assistant %s: child exited: %v", s.ID, err)
	}

	s.childMu.Lock()
	if s.processGen == gen {
		s.cmd = nil
		s.cancel = nil
	}
	s.childMu.Unlock()
}

// readStdout forwards every line verbatim, then attempts to parse it
// for conversation-id capture and status transitions. A parse failure
// is silently tolerated; one malformed frame never desynchronizes the
// session.
func (s *Session) readStdout(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		s.pub.Publish(bus.NewAgentOutput(s.ID, bus.StreamStdout, string(line)))

		f, ok := parseLine(line)
		if !ok {
			continue
		}
		if f.Type == "result" {
			s.overwriteConversationID(f.SessionID)
		} else {
			s.observeConversationID(f.SessionID)
		}
		if status, ok := statusForType(f.Type); ok {
			s.pub.Publish(bus.NewAgentStatus(s.ID, status))
		}
	}
	// End of stream: emit a final idle status.
	s.pub.Publish(bus.NewAgentStatus(s.ID, bus.StatusIdle))
}

// readStderr forwards lines verbatim with no parsing and no terminal
// status.
func (s *Session) readStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.pub.Publish(bus.NewAgentOutput(s.ID, bus.StreamStderr, scanner.Text()))
	}
}

// Stop forcibly terminates the current child if any, keeping the session
// alive, and emits idle.
func (s *Session) Stop() {
	s.killChild()
	s.pub.Publish(bus.NewAgentStatus(s.ID, bus.StatusIdle))
}

// Kill is like Stop but marks the session terminal; the caller (the
// registry) is responsible for removing it afterward.
func (s *Session) Kill() {
	s.killChild()
	s.pub.Publish(bus.NewAgentStatus(s.ID, bus.StatusExited))
}

func (s *Session) killChild() {
	s.childMu.Lock()
	cmd, cancel := s.cmd, s.cancel
	s.cmd, s.cancel = nil, nil
	s.childMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// HasLiveChild reports whether the session believes it has an attached
// child, cross-checked against the OS process table via go-ps so a
// session whose recorded child has silently died (e.g. SIGKILLed by
// something outside the server) is reported as idle rather than
// perpetually "working" in list summaries.
func (s *Session) HasLiveChild() bool {
	s.childMu.Lock()
	cmd := s.cmd
	s.childMu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return false
	}
	proc, err := ps.FindProcess(cmd.Process.Pid)
	return err == nil && proc != nil
}
