// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file on write and hands the new value to
// subscribers. It is best-effort: a reload that fails to parse is logged
// and the previous config is kept in place, since a typo in a running
// server's config file should not take the server down.
type Watcher struct {
	path   string
	loader *Loader

	mu  sync.RWMutex
	cur *Config

	subsMu sync.Mutex
	subs   []chan *Config

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// WatchFile loads path once, then starts watching it for writes. Call
// Stop to release the underlying fsnotify watcher.
func WatchFile(path string) (*Watcher, error) {
	l := NewLoader()
	cfg, err := l.LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:   path,
		loader: l,
		cur:    cfg,
		fsw:    fsw,
		done:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Current returns the most recently loaded config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cur
}

// Subscribe returns a channel that receives every successfully reloaded
// config. The channel has capacity 1 and is updated in place (an unread
// reload is overwritten by the next one) so a slow subscriber never
// blocks reloading.
func (w *Watcher) Subscribe() chan *Config {
	ch := make(chan *Config, 1)
	w.subsMu.Lock()
	w.subs = append(w.subs, ch)
	w.subsMu.Unlock()
	return ch
}

// Stop releases the underlying filesystem watch.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("config: watch error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := w.loader.LoadWithDefaults(w.path)
	if err != nil {
		log.Printf("config: reload of %s failed, keeping previous config: %v", w.path, err)
		return
	}

	w.mu.Lock()
	w.cur = cfg
	w.mu.Unlock()

	w.subsMu.Lock()
	defer w.subsMu.Unlock()
	for _, ch := range w.subs {
		select {
		case <-ch:
		default:
		}
		ch <- cfg
	}
}
