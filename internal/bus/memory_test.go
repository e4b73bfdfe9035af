// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	b := NewMemoryBus(0)
	defer b.Close()

	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	b.Publish(NewAgentStatus("a1", StatusThinking))

	select {
	case e := <-ch:
		assert.Equal(t, KindAgentStatus, e.Kind)
		assert.Equal(t, "a1", e.AgentID)
		assert.Equal(t, StatusThinking, e.Status)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestMemoryBus_NoReplay(t *testing.T) {
	b := NewMemoryBus(0)
	defer b.Close()

	b.Publish(NewAgentStatus("a1", StatusThinking))

	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	select {
	case e := <-ch:
		t.Fatalf("unexpected replayed event: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBus_FIFOPerProducer(t *testing.T) {
	b := NewMemoryBus(0)
	defer b.Close()

	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	for i := 0; i < 10; i++ {
		b.Publish(NewAgentOutput("a1", StreamStdout, string(rune('0'+i))))
	}

	for i := 0; i < 10; i++ {
		select {
		case e := <-ch:
			require.Equal(t, string(rune('0'+i)), e.Data)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestMemoryBus_MultipleSubscribersAllReceive(t *testing.T) {
	b := NewMemoryBus(0)
	defer b.Close()

	ch1, unsub1 := b.Subscribe()
	defer unsub1()
	ch2, unsub2 := b.Subscribe()
	defer unsub2()

	b.Publish(NewTerminalOutput("t1", "hi"))

	var wg sync.WaitGroup
	wg.Add(2)
	for _, ch := range []<-chan Event{ch1, ch2} {
		ch := ch
		go func() {
			defer wg.Done()
			select {
			case e := <-ch:
				assert.Equal(t, KindTerminalOutput, e.Kind)
			case <-time.After(time.Second):
				t.Error("timed out waiting for event")
			}
		}()
	}
	wg.Wait()
}

func TestMemoryBus_OverflowDropsOldestWithoutBlocking(t *testing.T) {
	b := NewMemoryBus(0)
	defer b.Close()

	_, unsubscribe := b.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < DefaultCapacity+10; i++ {
			b.Publish(NewTerminalOutput("t1", "x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}
}

func TestMemoryBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewMemoryBus(0)
	defer b.Close()

	ch, unsubscribe := b.Subscribe()
	unsubscribe()

	b.Publish(NewAgentStatus("a1", StatusExited))

	select {
	case e, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event after unsubscribe: %+v", e)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEvent_Envelope(t *testing.T) {
	assert.Equal(t, Kind("agent-output"), NewAgentOutput("a", StreamStderr, "x").Envelope().Type)
	assert.Equal(t, Kind("agent-status"), NewAgentStatus("a", StatusError).Envelope().Type)
	assert.Equal(t, Kind("terminal-output"), NewTerminalOutput("t", "x").Envelope().Type)
}
