// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package api wires the HTTP control plane and WebSocket event plane
// on top of gorilla/mux.
package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/amirdauti/virtualagency/internal/api/handlers"
	"github.com/amirdauti/virtualagency/internal/api/middleware"
	"github.com/amirdauti/virtualagency/internal/bus"
	"github.com/amirdauti/virtualagency/internal/registry"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Host string
	Port int
}

// Dependencies holds all dependencies for API handlers.
type Dependencies struct {
	Registry *registry.Registry
	Bus      bus.Bus
	Version  string

	// DefaultModel supplies the assistant.default_model config value at
	// call time, so a config hot-reload is reflected in the next agent
	// creation. May be nil, in which case no default is applied.
	DefaultModel func() string
}

// NewRouter creates the API router: global middleware, the HTTP control
// plane under /api, and the /ws event-plane gateway.
func NewRouter(deps Dependencies) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS)

	agentHandler := handlers.NewAgentHandler(deps.Registry, deps.DefaultModel)
	r.HandleFunc("/api/agents", agentHandler.Create).Methods("POST")
	r.HandleFunc("/api/agents", agentHandler.List).Methods("GET")
	r.HandleFunc("/api/agents/{id}", agentHandler.Update).Methods("PATCH")
	r.HandleFunc("/api/agents/{id}", agentHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/agents/{id}/messages", agentHandler.SendMessage).Methods("POST")
	r.HandleFunc("/api/agents/{id}/stop", agentHandler.Stop).Methods("POST")

	terminalHandler := handlers.NewTerminalHandler(deps.Registry)
	r.HandleFunc("/api/terminals", terminalHandler.Create).Methods("POST")
	r.HandleFunc("/api/terminals", terminalHandler.List).Methods("GET")
	r.HandleFunc("/api/terminals/{id}", terminalHandler.Delete).Methods("DELETE")

	fileHandler := handlers.NewFileHandler(deps.Registry)
	r.HandleFunc("/api/files/tree/{id}", fileHandler.Tree).Methods("GET")
	r.HandleFunc("/api/files/read/{id}", fileHandler.Read).Methods("POST")
	r.HandleFunc("/api/files/write/{id}", fileHandler.Write).Methods("POST")

	browseHandler := handlers.NewBrowseHandler()
	r.HandleFunc("/api/browse", browseHandler.Browse).Methods("GET")

	healthHandler := handlers.NewHealthHandler(deps.Version)
	r.HandleFunc("/api/health", healthHandler.Health).Methods("GET")

	gatewayHandler := handlers.NewGatewayHandler(deps.Registry, deps.Bus)
	r.HandleFunc("/ws", gatewayHandler.ServeWS)

	return r
}

// Server represents the API server.
type Server struct {
	router *mux.Router
	cfg    ServerConfig
	server *http.Server
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Dependencies) *Server {
	return &Server{
		router: NewRouter(deps),
		cfg:    cfg,
	}
}

// Router returns the underlying router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ListenAndServe starts the server on the configured loopback address.
func (s *Server) ListenAndServe() error {
	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Printf("API server listening on http://%s", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	log.Println("Shutting down API server...")

	shutdownCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	return s.server.Shutdown(shutdownCtx)
}
