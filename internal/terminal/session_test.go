// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirdauti/virtualagency/internal/bus"
)

func TestSession_EchoRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns a real PTY-backed shell")
	}

	b := bus.NewMemoryBus(0)
	defer b.Close()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	s, err := Create("t1", ".", 80, 24, b)
	require.NoError(t, err)
	defer s.Kill()

	require.NoError(t, s.Write([]byte("echo hi\n")))

	deadline := time.After(5 * time.Second)
	var seen string
	for {
		select {
		case e := <-ch:
			if e.Kind == bus.KindTerminalOutput && e.TerminalID == "t1" {
				seen += e.Data
				if contains(seen, "hi") {
					return
				}
			}
		case <-deadline:
			t.Fatalf("did not observe echoed output, saw: %q", seen)
		}
	}
}

func TestSession_KillIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns a real PTY-backed shell")
	}

	b := bus.NewMemoryBus(0)
	defer b.Close()

	s, err := Create("t1", ".", 80, 24, b)
	require.NoError(t, err)

	s.Kill()
	assert.NotPanics(t, func() { s.Kill() })
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
