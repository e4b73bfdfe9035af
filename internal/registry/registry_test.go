// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirdauti/virtualagency/internal/assistant"
	"github.com/amirdauti/virtualagency/internal/bus"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	b := bus.NewMemoryBus(0)
	t.Cleanup(b.Close)
	factory := assistant.NewFactory("/bin/true", b)
	return New(factory, b)
}

func TestRegistry_CreateAgent_UniquenessOnInsert(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.CreateAgent("a1", "/tmp", "first", assistant.Settings{})
	require.NoError(t, err)

	_, err = r.CreateAgent("a1", "/tmp", "dup", assistant.Settings{})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegistry_CreateAndListAgent(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.CreateAgent("a1", "/tmp", "first", assistant.Settings{Model: "sonnet"})
	require.NoError(t, err)

	list := r.ListAgents()
	require.Len(t, list, 1)
	assert.Equal(t, "a1", list[0].ID)
	assert.Equal(t, "sonnet", list[0].Settings.Model)
}

func TestRegistry_GetAgent_NotFound(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.GetAgent("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_RemoveAgent(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.CreateAgent("a1", "/tmp", "first", assistant.Settings{})
	require.NoError(t, err)

	require.NoError(t, r.RemoveAgent("a1"))
	_, err = r.GetAgent("a1")
	assert.ErrorIs(t, err, ErrNotFound)

	err = r.RemoveAgent("a1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_CreateAgent_DependencyMissing(t *testing.T) {
	b := bus.NewMemoryBus(0)
	t.Cleanup(b.Close)
	factory := assistant.NewFactory("/nonexistent/path/to/claude", b)
	r := New(factory, b)

	_, err := r.CreateAgent("a1", "/tmp", "first", assistant.Settings{})
	assert.ErrorIs(t, err, assistant.ErrCLINotFound)

	_, err = r.GetAgent("a1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNextID_IsUniqueAndNonEmpty(t *testing.T) {
	a := NextID()
	b := NextID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
