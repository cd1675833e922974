// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package state holds the persisted client state: who is logged in, their
// bearer token, the session they were last viewing, and the selected model.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/techiesflock/samadhan-tui/internal/model"
	"github.com/techiesflock/samadhan-tui/internal/util"
)

// persisted is the on-disk snapshot. Only these four fields survive a
// restart; everything else (transcripts, folder listings, poll results) is
// server truth and is re-fetched on demand.
type persisted struct {
	User             *model.Identity `json:"user,omitempty"`
	Token            string          `json:"token,omitempty"`
	CurrentSessionID string          `json:"currentSessionId,omitempty"`
	SelectedModel    string          `json:"selectedModel,omitempty"`
}

// Store is the mutex-guarded client state container.
//
// Reads are safe at any time, but until Load has run the store reports an
// empty token and no user, so nothing authenticates with a token that may be
// about to be replaced by the hydrated one. Every mutation persists the new
// snapshot atomically before returning.
type Store struct {
	mu       sync.RWMutex
	path     string
	hydrated bool
	data     persisted

	// onChange fires after every committed mutation, outside the lock.
	onChange func()
}

// DefaultPath returns the standard state file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".samadhan", "state.json"), nil
}

// NewStore creates a store backed by the given file. The store starts
// unhydrated; call Load before trusting its contents.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// SetOnChange installs a callback fired after each committed mutation.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// =============================================================================
// HYDRATION
// =============================================================================

// Load reads the persisted snapshot from disk. A missing file hydrates to the
// empty state; a corrupt file is discarded rather than crashing the app, the
// user just has to log in again.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hydrated = true

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var data persisted
	if err := json.Unmarshal(raw, &data); err != nil {
		s.data = persisted{}
		return nil
	}

	// A token without an identity (or the reverse) is a half-written legacy
	// state; treat it as logged out.
	if data.Token == "" || data.User == nil {
		data.Token = ""
		data.User = nil
	}

	s.data = data
	return nil
}

// Hydrated reports whether Load has run.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// =============================================================================
// READS
// =============================================================================

// Token returns the bearer token, or "" when logged out or not yet hydrated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hydrated {
		return ""
	}
	return s.data.Token
}

// User returns the logged-in identity, or nil.
func (s *Store) User() *model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hydrated || s.data.User == nil {
		return nil
	}
	u := *s.data.User
	return &u
}

// LoggedIn reports whether a hydrated, authenticated identity is present.
func (s *Store) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated && s.data.Token != "" && s.data.User != nil
}

// CurrentSessionID returns the session pointer, or "" for a fresh chat.
func (s *Store) CurrentSessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.CurrentSessionID
}

// SelectedModel returns the chosen generation model, or "" when the user
// never picked one (callers fall back to the configured default).
func (s *Store) SelectedModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.SelectedModel
}

// =============================================================================
// MUTATIONS
// =============================================================================

// SetAuth installs a fresh login. Identity and token change together; there
// is no state where one is set without the other.
func (s *Store) SetAuth(user model.Identity, token string) error {
	return s.mutate(func(d *persisted) {
		u := user
		d.User = &u
		d.Token = token
	})
}

// Logout clears the identity, token, and session pointer in one step. The
// selected model survives logout; it is a preference, not a credential.
func (s *Store) Logout() error {
	return s.mutate(func(d *persisted) {
		d.User = nil
		d.Token = ""
		d.CurrentSessionID = ""
	})
}

// SetCurrentSession moves the session pointer. An empty id means "new chat".
func (s *Store) SetCurrentSession(sessionID string) error {
	return s.mutate(func(d *persisted) {
		d.CurrentSessionID = sessionID
	})
}

// SetSelectedModel records the user's model choice.
func (s *Store) SetSelectedModel(name string) error {
	return s.mutate(func(d *persisted) {
		d.SelectedModel = name
	})
}

// mutate applies fn under the lock, persists the result atomically, and then
// fires the change callback outside the lock.
func (s *Store) mutate(fn func(*persisted)) error {
	s.mu.Lock()
	fn(&s.data)
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to encode state: %w", err)
	}
	writeErr := util.AtomicWriteFile(s.path, raw, 0600)
	hook := s.onChange
	s.mu.Unlock()

	if writeErr != nil {
		return fmt.Errorf("failed to persist state: %w", writeErr)
	}
	if hook != nil {
		hook()
	}
	return nil
}
