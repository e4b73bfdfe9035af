// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"github.com/amirdauti/virtualagency/internal/registry"
)

// FileHandler implements the session-keyed file-read/write/tree
// endpoints. A client-supplied path is resolved against the owning
// session's working directory, both sides are canonicalized, and the
// request is rejected unless the canonical file
// is a descendant of the canonical workspace.
type FileHandler struct {
	reg *registry.Registry
}

// NewFileHandler creates a new file handler.
func NewFileHandler(reg *registry.Registry) *FileHandler {
	return &FileHandler{reg: reg}
}

var ignoredEntries = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	".next":        true,
	"dist":         true,
	"build":        true,
	".DS_Store":    true,
}

// FileNode is one entry in a recursive file-tree response.
type FileNode struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	IsDirectory bool       `json:"is_directory"`
	Children    []FileNode `json:"children,omitempty"`
}

// workDir resolves id to its owning session's working directory, trying
// assistant sessions first and falling back to terminal sessions.
func (h *FileHandler) workDir(id string) (string, bool) {
	if sess, err := h.reg.GetAgent(id); err == nil {
		return sess.WorkDir, true
	}
	if sess, err := h.reg.GetTerminal(id); err == nil {
		return sess.WorkDir, true
	}
	return "", false
}

// Tree handles GET /api/files/tree/:id.
func (h *FileHandler) Tree(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	base, ok := h.workDir(id)
	if !ok {
		WriteError(w, http.StatusNotFound, ErrNotFound, "session not found")
		return
	}

	node, err := buildFileTree(base, base)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrStreamIO, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, node)
}

func buildFileTree(path, base string) (FileNode, error) {
	name := filepath.Base(path)
	rel, err := filepath.Rel(base, path)
	if err != nil {
		rel = path
	}

	info, err := os.Stat(path)
	if err != nil {
		return FileNode{}, err
	}

	if !info.IsDir() {
		return FileNode{Name: name, Path: rel, IsDirectory: false}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return FileNode{Name: name, Path: rel, IsDirectory: true}, nil
	}

	children := make([]FileNode, 0, len(entries))
	for _, entry := range entries {
		if ignoredEntries[entry.Name()] {
			continue
		}
		child, err := buildFileTree(filepath.Join(path, entry.Name()), base)
		if err != nil {
			continue
		}
		children = append(children, child)
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].IsDirectory != children[j].IsDirectory {
			return children[i].IsDirectory
		}
		return children[i].Name < children[j].Name
	})

	return FileNode{Name: name, Path: rel, IsDirectory: true, Children: children}, nil
}

// canonicalDescendant reports whether canonical(path) is a descendant of
// (or equal to) canonical(base). This is the anti-traversal check every
// file endpoint runs before touching disk.
func canonicalDescendant(base, path string) (string, bool, error) {
	canonicalBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		return "", false, err
	}
	canonicalBase, err = filepath.Abs(canonicalBase)
	if err != nil {
		return "", false, err
	}

	canonicalPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false, err
	}
	canonicalPath, err = filepath.Abs(canonicalPath)
	if err != nil {
		return "", false, err
	}

	rel, err := filepath.Rel(canonicalBase, canonicalPath)
	if err != nil {
		return canonicalPath, false, nil
	}
	if rel == "." {
		return canonicalPath, true, nil
	}
	safe := rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
	return canonicalPath, safe, nil
}

type readFileRequest struct {
	Path string `json:"path"`
}

type fileContentResponse struct {
	Content string `json:"content"`
}

// Read handles POST /api/files/read/:id.
func (h *FileHandler) Read(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	base, ok := h.workDir(id)
	if !ok {
		WriteError(w, http.StatusNotFound, ErrNotFound, "session not found")
		return
	}

	var req readFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}

	target := filepath.Join(base, req.Path)
	canonicalFile, safe, err := canonicalDescendant(base, target)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, "file not found: "+err.Error())
		return
	}
	if !safe {
		WriteError(w, http.StatusForbidden, ErrPermissionDenied, "access denied: path outside workspace")
		return
	}

	content, err := os.ReadFile(canonicalFile)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrStreamIO, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, fileContentResponse{Content: string(content)})
}

type writeFileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Write handles POST /api/files/write/:id.
func (h *FileHandler) Write(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	base, ok := h.workDir(id)
	if !ok {
		WriteError(w, http.StatusNotFound, ErrNotFound, "session not found")
		return
	}

	var req writeFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}

	target := filepath.Join(base, req.Path)
	parent := filepath.Dir(target)

	if err := os.MkdirAll(parent, 0o755); err != nil {
		WriteError(w, http.StatusInternalServerError, ErrStreamIO, "failed to create directory: "+err.Error())
		return
	}

	_, safe, err := canonicalDescendant(base, parent)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, "invalid parent directory: "+err.Error())
		return
	}
	if !safe {
		WriteError(w, http.StatusForbidden, ErrPermissionDenied, "access denied: path outside workspace")
		return
	}

	if err := os.WriteFile(target, []byte(req.Content), 0o644); err != nil {
		WriteError(w, http.StatusInternalServerError, ErrStreamIO, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
