// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package bus implements the bounded multi-producer/multi-consumer
// broadcast channel that carries session output and status to every
// subscribed gateway.
package bus

import "time"

// Kind discriminates the three event shapes the core ever emits.
type Kind string

const (
	KindAgentOutput    Kind = "agent-output"
	KindAgentStatus    Kind = "agent-status"
	KindTerminalOutput Kind = "terminal-output"
)

// Stream identifies which fd an assistant-output line came from.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// Status is one state in an assistant session's status machine.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusThinking Status = "thinking"
	StatusWorking  Status = "working"
	StatusError    Status = "error"
	StatusExited   Status = "exited"
)

// Event is the single tagged variant every producer emits and every
// subscriber receives. Exactly one payload group below is meaningful,
// selected by Kind.
type Event struct {
	Kind Kind
	At   time.Time

	// AgentOutput / AgentStatus
	AgentID string
	Stream  Stream // AgentOutput only
	Data    string // AgentOutput / TerminalOutput
	Status  Status // AgentStatus only

	// TerminalOutput
	TerminalID string
}

// NewAgentOutput builds an agent-output event.
func NewAgentOutput(agentID string, stream Stream, data string) Event {
	return Event{Kind: KindAgentOutput, AgentID: agentID, Stream: stream, Data: data}
}

// NewAgentStatus builds an agent-status event.
func NewAgentStatus(agentID string, status Status) Event {
	return Event{Kind: KindAgentStatus, AgentID: agentID, Status: status}
}

// NewTerminalOutput builds a terminal-output event.
func NewTerminalOutput(terminalID, data string) Event {
	return Event{Kind: KindTerminalOutput, TerminalID: terminalID, Data: data}
}

// Envelope is the wire shape sent to WebSocket subscribers: an Event
// flattened into a single tagged JSON object.
type Envelope struct {
	Type       Kind   `json:"type"`
	AgentID    string `json:"agent_id,omitempty"`
	Stream     Stream `json:"stream,omitempty"`
	Data       string `json:"data,omitempty"`
	Status     Status `json:"status,omitempty"`
	TerminalID string `json:"terminal_id,omitempty"`
}

// Envelope converts an Event to its wire representation.
func (e Event) Envelope() Envelope {
	switch e.Kind {
	case KindAgentOutput:
		return Envelope{Type: e.Kind, AgentID: e.AgentID, Stream: e.Stream, Data: e.Data}
	case KindAgentStatus:
		return Envelope{Type: e.Kind, AgentID: e.AgentID, Status: e.Status}
	case KindTerminalOutput:
		return Envelope{Type: e.Kind, TerminalID: e.TerminalID, Data: e.Data}
	default:
		return Envelope{Type: e.Kind}
	}
}

// Bus is the minimal broadcast contract the rest of the core depends on.
// Producers never block; a subscriber that falls behind drops the oldest
// buffered event rather than stalling the producer.
type Bus interface {
	// Publish fans an event out to every current subscriber. Never blocks.
	Publish(e Event)

	// Subscribe registers a new subscriber and returns its event channel
	// plus an unsubscribe function. Subscribing after an event has been
	// published yields only subsequent events; there is no replay.
	Subscribe() (<-chan Event, func())

	// Close tears down all subscriptions. In-flight events may be lost.
	Close()
}

// DefaultCapacity is the per-subscriber bounded channel size used when
// no explicit capacity is configured.
const DefaultCapacity = 1000
