// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config when the file changes on disk, so edits to
// ~/.samadhan/config.toml apply without restarting the TUI.
//
// Editors replace files with write-temp-then-rename, which fsnotify reports
// as a burst of events; changes are debounced before reloading.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(*Config)

	mu      sync.Mutex
	pending bool
	closed  chan struct{}
}

// NewWatcher creates a watcher for the given config path. onReload fires
// with the freshly loaded config after each settled change; load failures
// are swallowed, the previous config stays in effect.
func NewWatcher(path string, onReload func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     path,
		watcher:  fsw,
		debounce: 250 * time.Millisecond,
		onReload: onReload,
		closed:   make(chan struct{}),
	}
	return w, nil
}

// Watch starts watching. The parent directory is watched rather than the
// file itself so rename-style saves keep being observed.
func (w *Watcher) Watch() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	go w.processEvents()
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	close(w.closed)
	return w.watcher.Close()
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.closed:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	if w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = true
	w.mu.Unlock()

	time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.pending = false
		w.mu.Unlock()

		select {
		case <-w.closed:
			return
		default:
		}

		cfg, err := LoadFromPath(w.path)
		if err != nil {
			return
		}
		if w.onReload != nil {
			w.onReload(cfg)
		}
	})
}
