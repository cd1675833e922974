// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session keeps the sidebar's session list fresh by polling the
// backend while a user is logged in.
package session

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/techiesflock/samadhan-tui/internal/api"
	"github.com/techiesflock/samadhan-tui/internal/model"
	"github.com/techiesflock/samadhan-tui/internal/state"
)

// DefaultInterval is how often the list is re-fetched.
const DefaultInterval = 30 * time.Second

// Poller maintains the deduplicated session list.
//
// Login state is re-checked on every tick, not just at start: a logout (or a
// token expiry handled elsewhere) between ticks silently turns the next tick
// into a no-op instead of firing an unauthenticated request.
type Poller struct {
	client   *api.Client
	store    *state.Store
	interval time.Duration

	mu       sync.Mutex
	sessions []model.Session
	lastErr  error
}

// NewPoller creates a poller. A zero interval uses DefaultInterval.
func NewPoller(client *api.Client, store *state.Store, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		client:   client,
		store:    store,
		interval: interval,
	}
}

// Sessions returns a copy of the current list.
func (p *Poller) Sessions() []model.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Session, len(p.sessions))
	copy(out, p.sessions)
	return out
}

// LastError returns the most recent refresh failure, cleared by the next
// successful refresh.
func (p *Poller) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Refresh fetches the list once. Logged out, it clears the list and returns
// nil; a stale sidebar after logout would leak another user's titles into the
// next login screen.
func (p *Poller) Refresh(ctx context.Context) error {
	if !p.store.LoggedIn() {
		p.mu.Lock()
		p.sessions = nil
		p.lastErr = nil
		p.mu.Unlock()
		return nil
	}

	sessions, err := p.client.ListSessions(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.lastErr = err
		return err
	}
	p.sessions = model.DedupeSessions(sessions)
	p.lastErr = nil
	return nil
}

// Delete removes a session and refreshes the list. The caller decides what
// to do when the deleted session was the active one.
func (p *Poller) Delete(ctx context.Context, sessionID string) error {
	if err := p.client.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	return p.Refresh(ctx)
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// TickMsg fires when the poll interval elapses.
type TickMsg struct {
	Time time.Time
}

// UpdatedMsg carries a refreshed session list (or the failure) to the UI.
type UpdatedMsg struct {
	Sessions []model.Session
	Err      error
}

// TickCmd schedules the next poll tick.
func (p *Poller) TickCmd() tea.Cmd {
	return tea.Tick(p.interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// RefreshCmd runs one refresh off the UI goroutine and delivers the result.
func (p *Poller) RefreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), p.interval)
		defer cancel()
		err := p.Refresh(ctx)
		return UpdatedMsg{Sessions: p.Sessions(), Err: err}
	}
}
