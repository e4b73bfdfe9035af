// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package assistant

import (
	"testing"

	"github.com/amirdauti/virtualagency/internal/bus"
	"github.com/stretchr/testify/assert"
)

func TestStatusForType(t *testing.T) {
	cases := []struct {
		in     string
		status bus.Status
		ok     bool
	}{
		{"assistant", bus.StatusWorking, true},
		{"content_block_delta", bus.StatusWorking, true},
		{"content_block_start", bus.StatusWorking, true},
		{"result", bus.StatusIdle, true},
		{"message_stop", bus.StatusIdle, true},
		{"content_block_stop", bus.StatusIdle, true},
		{"message_end", bus.StatusIdle, true},
		{"error", bus.StatusError, true},
		{"system", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		status, ok := statusForType(c.in)
		assert.Equal(t, c.ok, ok, "type=%s", c.in)
		if ok {
			assert.Equal(t, c.status, status, "type=%s", c.in)
		}
	}
}

func TestParseLine(t *testing.T) {
	f, ok := parseLine([]byte(`{"type":"result","session_id":"S-1"}`))
	assert.True(t, ok)
	assert.Equal(t, "result", f.Type)
	assert.Equal(t, "S-1", f.SessionID)

	_, ok = parseLine([]byte(`not json`))
	assert.False(t, ok)

	// Parse idempotence: replaying the same line twice yields the same
	// frame both times.
	f2, ok2 := parseLine([]byte(`{"type":"result","session_id":"S-1"}`))
	assert.True(t, ok2)
	assert.Equal(t, f, f2)
}

func TestSession_ConversationIDCapture(t *testing.T) {
	b := bus.NewMemoryBus(0)
	defer b.Close()
	s := NewSession("a1", "/tmp", "test", "/bin/true", b, Settings{})

	s.observeConversationID("")
	assert.Equal(t, "", s.conversationID())

	s.observeConversationID("S-1")
	assert.Equal(t, "S-1", s.conversationID())

	// First-observation-only: a second observe must not clobber it.
	s.observeConversationID("S-2")
	assert.Equal(t, "S-1", s.conversationID())

	// A result frame overwrites unconditionally.
	s.overwriteConversationID("S-3")
	assert.Equal(t, "S-3", s.conversationID())
}

func TestSession_Settings(t *testing.T) {
	b := bus.NewMemoryBus(0)
	defer b.Close()
	s := NewSession("a1", "/tmp", "test", "/bin/true", b, Settings{Model: "sonnet"})

	got := s.GetSettings()
	assert.Equal(t, "sonnet", got.Model)
	assert.False(t, got.Thinking)

	model := "opus"
	thinking := true
	s.UpdateSettings(&model, &thinking, []string{"fs", "web"})

	got = s.GetSettings()
	assert.Equal(t, "opus", got.Model)
	assert.True(t, got.Thinking)
	assert.Equal(t, []string{"fs", "web"}, got.Extensions)
}

func TestSession_KillWithNoChildIsSafe(t *testing.T) {
	b := NewMemoryBusWithCapturedEvents(t)
	s := NewSession("a1", "/tmp", "test", "/bin/true", b.bus, Settings{})

	s.Kill()

	e := b.next(t)
	assert.Equal(t, bus.KindAgentStatus, e.Kind)
	assert.Equal(t, bus.StatusExited, e.Status)
}

// capturingBus is a tiny test harness around MemoryBus that exposes a
// single subscriber channel for assertions.
type capturingBus struct {
	bus *bus.MemoryBus
	ch  <-chan bus.Event
}

func NewMemoryBusWithCapturedEvents(t *testing.T) *capturingBus {
	t.Helper()
	b := bus.NewMemoryBus(0)
	ch, unsub := b.Subscribe()
	t.Cleanup(func() {
		unsub()
		b.Close()
	})
	return &capturingBus{bus: b, ch: ch}
}

func (c *capturingBus) next(t *testing.T) bus.Event {
	t.Helper()
	select {
	case e := <-c.ch:
		return e
	default:
		t.Fatal("expected a buffered event")
		return bus.Event{}
	}
}
