// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirdauti/virtualagency/internal/assistant"
	"github.com/amirdauti/virtualagency/internal/bus"
	"github.com/amirdauti/virtualagency/internal/registry"
)

func newTestTerminalHandler(t *testing.T) *TerminalHandler {
	t.Helper()
	b := bus.NewMemoryBus(0)
	t.Cleanup(b.Close)
	factory := assistant.NewFactory("/bin/true", b)
	reg := registry.New(factory, b)
	return NewTerminalHandler(reg)
}

func TestTerminalHandler_CreateAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns a real PTY-backed shell")
	}
	h := newTestTerminalHandler(t)

	rec := doJSON(t, h.Create, "POST", "/api/terminals", createTerminalRequest{
		ID: "t1", WorkingDir: ".", Cols: 80, Rows: 24,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h.List, "GET", "/api/terminals", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"t1"`)
}

func TestTerminalHandler_Create_MissingWorkingDir(t *testing.T) {
	h := newTestTerminalHandler(t)

	rec := doJSON(t, h.Create, "POST", "/api/terminals", createTerminalRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTerminalHandler_Delete_NotFound(t *testing.T) {
	h := newTestTerminalHandler(t)

	rec := doJSON(t, h.Delete, "DELETE", "/api/terminals/missing", nil, map[string]string{"id": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
