// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/amirdauti/virtualagency/internal/registry"
)

// TerminalHandler adapts the registry's terminal operations to HTTP.
type TerminalHandler struct {
	reg *registry.Registry
}

// NewTerminalHandler creates a new terminal handler.
func NewTerminalHandler(reg *registry.Registry) *TerminalHandler {
	return &TerminalHandler{reg: reg}
}

type createTerminalRequest struct {
	ID         string `json:"id,omitempty"`
	WorkingDir string `json:"working_dir"`
	Cols       uint16 `json:"cols"`
	Rows       uint16 `json:"rows"`
}

type terminalResponse struct {
	ID      string `json:"id"`
	WorkDir string `json:"working_dir"`
}

// Create handles POST /api/terminals.
func (h *TerminalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTerminalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}
	if req.WorkingDir == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "working_dir is required")
		return
	}
	cols, rows := req.Cols, req.Rows
	if cols == 0 {
		cols = 80
	}
	if rows == 0 {
		rows = 24
	}

	id := req.ID
	if id == "" {
		id = registry.NextID()
	}

	sess, err := h.reg.CreateTerminal(id, req.WorkingDir, cols, rows)
	if err != nil {
		if errors.Is(err, registry.ErrConflict) {
			WriteError(w, http.StatusConflict, ErrConflict, "terminal id already exists")
			return
		}
		WriteError(w, http.StatusInternalServerError, ErrSpawnFailed, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, terminalResponse{ID: sess.ID, WorkDir: sess.WorkDir})
}

// List handles GET /api/terminals.
func (h *TerminalHandler) List(w http.ResponseWriter, r *http.Request) {
	list := h.reg.ListTerminals()
	out := make([]terminalResponse, 0, len(list))
	for _, info := range list {
		out = append(out, terminalResponse{ID: info.ID, WorkDir: info.WorkDir})
	}
	WriteJSON(w, http.StatusOK, out)
}

// Delete handles DELETE /api/terminals/:id.
func (h *TerminalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.reg.RemoveTerminal(id); err != nil {
		WriteError(w, http.StatusNotFound, ErrNotFound, "terminal not found")
		return
	}
	WriteNoContent(w)
}
