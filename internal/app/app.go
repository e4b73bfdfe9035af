// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app wires the server's components together: config, event
// bus, assistant factory, session registry, and the API server, plus
// the process lifecycle (signal handling, graceful shutdown) around
// them.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/amirdauti/virtualagency/internal/api"
	"github.com/amirdauti/virtualagency/internal/assistant"
	"github.com/amirdauti/virtualagency/internal/bus"
	"github.com/amirdauti/virtualagency/internal/config"
	"github.com/amirdauti/virtualagency/internal/registry"
)

// Options holds configuration options for the app.
type Options struct {
	ConfigPath string
	Host       string
	Port       int
	Version    string
}

// App is the main application container.
type App struct {
	mu sync.RWMutex

	configPath string
	version    string
	cfg        *config.Config
	watcher    *config.Watcher

	eventBus  bus.Bus
	registry  *registry.Registry
	apiServer *api.Server

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new App instance: it loads configuration, constructs
// the event bus and the assistant factory, and builds the registry and
// API server, but starts nothing yet (see Start). The assistant CLI is
// not resolved here; the factory resolves it when an assistant session
// is created.
func New(opts Options) (*App, error) {
	app := &App{
		configPath: opts.ConfigPath,
		version:    opts.Version,
		done:       make(chan struct{}),
	}

	watcher, err := config.WatchFile(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.watcher = watcher
	cfg := watcher.Current()

	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port > 0 {
		cfg.Server.Port = opts.Port
	}
	app.cfg = cfg

	app.eventBus = bus.NewMemoryBus(cfg.Events.Capacity)

	factory := assistant.NewFactory(cfg.Assistant.CLIPath, app.eventBus)
	app.registry = registry.New(factory, app.eventBus)

	app.apiServer = api.NewServer(
		api.ServerConfig{Host: cfg.Server.Host, Port: cfg.Server.Port},
		api.Dependencies{
			Registry: app.registry,
			Bus:      app.eventBus,
			Version:  opts.Version,
			DefaultModel: func() string {
				return app.watcher.Current().Assistant.DefaultModel
			},
		},
	)

	return app, nil
}

// Start launches the API server in the background.
func (app *App) Start(ctx context.Context) error {
	app.mu.RLock()
	cfg := app.cfg
	app.mu.RUnlock()

	go func() {
		log.Printf("Starting API server on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("API server error: %v", err)
		}
	}()

	return nil
}

// Run starts the app and blocks until shutdown.
func (app *App) Run(ctx context.Context) error {
	if err := app.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case <-ctx.Done():
		log.Printf("Context cancelled, shutting down...")
	case <-app.done:
		log.Printf("Shutdown requested...")
	}

	return app.Shutdown(context.Background())
}

// Shutdown gracefully shuts down all components. There is no graceful
// drain of in-flight bus events — sessions are simply killed.
func (app *App) Shutdown(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if app.apiServer != nil {
		if err := app.apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down API server: %v", err)
		}
	}

	if app.registry != nil {
		app.registry.Shutdown()
	}

	if app.watcher != nil {
		if err := app.watcher.Stop(); err != nil {
			log.Printf("Error stopping config watcher: %v", err)
		}
	}

	if app.eventBus != nil {
		app.eventBus.Close()
	}

	log.Println("Shutdown complete")
	return nil
}

// Stop signals the app to shut down. Safe to call multiple times.
func (app *App) Stop() {
	app.stopOnce.Do(func() {
		close(app.done)
	})
}
