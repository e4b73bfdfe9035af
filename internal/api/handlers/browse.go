// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
)

// BrowseHandler implements the directory-browsing endpoint used by
// clients to pick a working directory for a new session (a feature
// present in the original desktop-host implementation's workspace
// picker but left out of the distilled file-endpoint table).
type BrowseHandler struct{}

// NewBrowseHandler creates a new browse handler.
func NewBrowseHandler() *BrowseHandler {
	return &BrowseHandler{}
}

// BrowseEntry is one directory entry returned by Browse.
type BrowseEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	IsDirectory bool   `json:"is_directory"`
}

// Browse handles GET /api/browse?path=.
func (h *BrowseHandler) Browse(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "path query parameter is required")
		return
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid path")
		return
	}

	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "path not found")
		return
	}
	if errors.Is(err, os.ErrPermission) {
		WriteError(w, http.StatusForbidden, ErrPermissionDenied, "permission denied")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	if !info.IsDir() {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "path is not a directory")
		return
	}

	entries, err := os.ReadDir(abs)
	if errors.Is(err, os.ErrPermission) {
		WriteError(w, http.StatusForbidden, ErrPermissionDenied, "permission denied")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	out := make([]BrowseEntry, 0, len(entries))
	for _, entry := range entries {
		if ignoredEntries[entry.Name()] {
			continue
		}
		out = append(out, BrowseEntry{
			Name:        entry.Name(),
			Path:        filepath.Join(abs, entry.Name()),
			IsDirectory: entry.IsDir(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDirectory != out[j].IsDirectory {
			return out[i].IsDirectory
		}
		return out[i].Name < out[j].Name
	})

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"path":    abs,
		"entries": out,
	})
}
