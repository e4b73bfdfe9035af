// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/amirdauti/virtualagency/internal/assistant"
	"github.com/amirdauti/virtualagency/internal/registry"
)

// AgentHandler adapts the registry's assistant operations to HTTP.
type AgentHandler struct {
	reg *registry.Registry

	// defaultModel returns the currently configured default model tag,
	// re-read on every call so a config hot-reload takes effect on the
	// next agent creation without restarting the server.
	defaultModel func() string
}

// NewAgentHandler creates a new agent handler. defaultModel supplies the
// model tag applied to a create request that doesn't specify one.
func NewAgentHandler(reg *registry.Registry, defaultModel func() string) *AgentHandler {
	return &AgentHandler{reg: reg, defaultModel: defaultModel}
}

type createAgentRequest struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name"`
	WorkingDir string   `json:"working_dir"`
	Model      string   `json:"model,omitempty"`
	Thinking   bool     `json:"thinking,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
}

type agentResponse struct {
	ID          string   `json:"id"`
	WorkDir     string   `json:"working_dir"`
	DisplayName string   `json:"name"`
	Model       string   `json:"model"`
	Thinking    bool     `json:"thinking"`
	Extensions  []string `json:"extensions,omitempty"`
	Running     bool     `json:"running"`
}

func toAgentResponse(info registry.AgentInfo) agentResponse {
	return agentResponse{
		ID:          info.ID,
		WorkDir:     info.WorkDir,
		DisplayName: info.DisplayName,
		Model:       info.Settings.Model,
		Thinking:    info.Settings.Thinking,
		Extensions:  info.Settings.Extensions,
		Running:     info.Running,
	}
}

// Create handles POST /api/agents.
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}
	if req.WorkingDir == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "working_dir is required")
		return
	}

	id := req.ID
	if id == "" {
		id = registry.NextID()
	}

	model := req.Model
	if model == "" && h.defaultModel != nil {
		model = h.defaultModel()
	}
	settings := assistant.Settings{
		Model:      model,
		Thinking:   req.Thinking,
		Extensions: req.Extensions,
	}

	sess, err := h.reg.CreateAgent(id, req.WorkingDir, req.Name, settings)
	if err != nil {
		if errors.Is(err, registry.ErrConflict) {
			WriteError(w, http.StatusConflict, ErrConflict, "agent id already exists")
			return
		}
		if errors.Is(err, assistant.ErrCLINotFound) {
			WriteError(w, http.StatusFailedDependency, ErrDependencyMissing, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, ErrSpawnFailed, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, toAgentResponse(registry.AgentInfo{
		ID:          sess.ID,
		WorkDir:     sess.WorkDir,
		DisplayName: sess.DisplayName,
		Settings:    sess.GetSettings(),
	}))
}

// List handles GET /api/agents.
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	list := h.reg.ListAgents()
	out := make([]agentResponse, 0, len(list))
	for _, info := range list {
		out = append(out, toAgentResponse(info))
	}
	WriteJSON(w, http.StatusOK, out)
}

type updateAgentRequest struct {
	Model      *string  `json:"model,omitempty"`
	Thinking   *bool    `json:"thinking,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
}

// Update handles PATCH /api/agents/:id.
func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, err := h.reg.GetAgent(id)
	if err != nil {
		WriteError(w, http.StatusNotFound, ErrNotFound, "agent not found")
		return
	}

	var req updateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}

	sess.UpdateSettings(req.Model, req.Thinking, req.Extensions)
	WriteJSON(w, http.StatusOK, toAgentResponse(registry.AgentInfo{
		ID:          sess.ID,
		WorkDir:     sess.WorkDir,
		DisplayName: sess.DisplayName,
		Settings:    sess.GetSettings(),
		Running:     sess.HasLiveChild(),
	}))
}

// Delete handles DELETE /api/agents/:id.
func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.reg.RemoveAgent(id); err != nil {
		WriteError(w, http.StatusNotFound, ErrNotFound, "agent not found")
		return
	}
	WriteNoContent(w)
}

type sendMessageRequest struct {
	Message string   `json:"message"`
	Images  []string `json:"images,omitempty"`
}

// SendMessage handles POST /api/agents/:id/messages.
func (h *AgentHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, err := h.reg.GetAgent(id)
	if err != nil {
		WriteError(w, http.StatusNotFound, ErrNotFound, "agent not found")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}

	if err := sess.Send(req.Message, req.Images); err != nil {
		WriteError(w, http.StatusInternalServerError, ErrSpawnFailed, err.Error())
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// Stop handles POST /api/agents/:id/stop.
func (h *AgentHandler) Stop(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, err := h.reg.GetAgent(id)
	if err != nil {
		WriteError(w, http.StatusNotFound, ErrNotFound, "agent not found")
		return
	}
	sess.Stop()
	WriteJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}
