// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat orchestrates conversation turns: optimistic message inserts,
// the single-turn-in-flight rule, session adoption, and truncation for edit
// and regenerate.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/techiesflock/samadhan-tui/internal/api"
	"github.com/techiesflock/samadhan-tui/internal/model"
	"github.com/techiesflock/samadhan-tui/internal/state"
)

// Errors returned by turn operations before anything hits the network.
var (
	ErrTurnInFlight = errors.New("a turn is already in flight")
	ErrEmptyInput   = errors.New("message text is empty")
	ErrBadIndex     = errors.New("message index does not support this operation")
)

// Options tune how turns are submitted.
type Options struct {
	// Model is the generation model used when the store has no selection.
	Model string

	// TopK is the number of chunks retrieved per turn.
	TopK int

	// IncludeHistory sends prior turns as context.
	IncludeHistory bool
}

// DefaultOptions matches the backend's expected retrieval settings.
func DefaultOptions() Options {
	return Options{
		Model:          "gemini-2.5-flash",
		TopK:           5,
		IncludeHistory: true,
	}
}

// Turns owns the transcript of the active conversation.
//
// All methods are safe for concurrent use. Only one turn may be in flight at
// a time; Send, Edit, and Regenerate fail fast with ErrTurnInFlight rather
// than queueing. Switching conversations while a turn is in flight abandons
// that turn's result: the reply belongs to a transcript the user has left.
type Turns struct {
	client *api.Client
	store  *state.Store
	opts   Options

	mu        sync.Mutex
	messages  []model.Message
	sessionID string
	busy      bool

	// generation increments on every transcript swap (new chat, session
	// load). A turn commits only if the generation it started under is still
	// current.
	generation uint64
}

// NewTurns creates a turn orchestrator. The store supplies the selected model
// and receives the session pointer when the backend mints a session.
func NewTurns(client *api.Client, store *state.Store, opts Options) *Turns {
	if opts.Model == "" {
		opts.Model = DefaultOptions().Model
	}
	if opts.TopK == 0 {
		opts.TopK = DefaultOptions().TopK
	}
	return &Turns{
		client: client,
		store:  store,
		opts:   opts,
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Messages returns a copy of the transcript.
func (t *Turns) Messages() []model.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Busy reports whether a turn is in flight.
func (t *Turns) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

// SessionID returns the server session this transcript belongs to, or ""
// before the first turn of a fresh chat completes.
func (t *Turns) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

// =============================================================================
// TRANSCRIPT SWAPS
// =============================================================================

// NewChat abandons the current transcript and starts fresh. Any in-flight
// turn's result is discarded when it lands.
func (t *Turns) NewChat() {
	t.mu.Lock()
	t.messages = nil
	t.sessionID = ""
	t.busy = false
	t.generation++
	t.mu.Unlock()

	t.store.SetCurrentSession("")
}

// LoadSession fetches a session's history from the backend and makes it the
// active transcript.
func (t *Turns) LoadSession(ctx context.Context, sessionID string) error {
	session, err := t.client.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.messages = session.Messages
	t.sessionID = session.ID
	t.busy = false
	t.generation++
	t.mu.Unlock()

	t.store.SetCurrentSession(session.ID)
	return nil
}

// ClearHistory empties the active session on the backend and locally. A fresh
// chat with no server session only clears locally.
func (t *Turns) ClearHistory(ctx context.Context) error {
	t.mu.Lock()
	sessionID := t.sessionID
	t.mu.Unlock()

	if sessionID != "" {
		if err := t.client.ClearHistory(ctx, sessionID); err != nil {
			return err
		}
	}

	t.mu.Lock()
	t.messages = nil
	t.generation++
	t.mu.Unlock()
	return nil
}

// =============================================================================
// TURNS
// =============================================================================

// Send submits a user message and blocks until the assistant reply (or an
// error surrogate) is appended. Callers run it from a goroutine and re-render
// on completion.
func (t *Turns) Send(ctx context.Context, text string, attachment *api.Upload) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}

	userMsg := model.NewUserMessage(text)
	if attachment != nil {
		userMsg.Attachment = &model.Attachment{
			Name:     attachment.Name,
			Size:     int64(len(attachment.Data)),
			MimeType: attachment.MimeType,
		}
	}

	t.mu.Lock()
	if t.busy {
		t.mu.Unlock()
		return ErrTurnInFlight
	}
	t.busy = true
	t.messages = append(t.messages, userMsg)
	gen := t.generation
	sessionID := t.sessionID
	t.mu.Unlock()

	return t.completeTurn(ctx, gen, api.Question{
		Text:           text,
		SessionID:      sessionID,
		Model:          t.selectedModel(),
		TopK:           t.opts.TopK,
		IncludeHistory: t.opts.IncludeHistory,
		Attachment:     attachment,
	})
}

// Edit rewrites the user message at index, discards it and everything after
// it, and resubmits the new text as the tail of the conversation.
func (t *Turns) Edit(ctx context.Context, index int, newText string) error {
	newText = strings.TrimSpace(newText)
	if newText == "" {
		return ErrEmptyInput
	}

	t.mu.Lock()
	if t.busy {
		t.mu.Unlock()
		return ErrTurnInFlight
	}
	truncated, ok := model.TruncateForEdit(t.messages, index)
	if !ok || t.messages[index].Role != model.RoleUser {
		t.mu.Unlock()
		return ErrBadIndex
	}
	t.busy = true
	t.messages = append(truncated, model.NewUserMessage(newText))
	gen := t.generation
	sessionID := t.sessionID
	t.mu.Unlock()

	return t.completeTurn(ctx, gen, api.Question{
		Text:           newText,
		SessionID:      sessionID,
		Model:          t.selectedModel(),
		TopK:           t.opts.TopK,
		IncludeHistory: t.opts.IncludeHistory,
	})
}

// Regenerate discards the assistant message at index and everything after it,
// then resubmits the user message that preceded it.
func (t *Turns) Regenerate(ctx context.Context, index int) error {
	t.mu.Lock()
	if t.busy {
		t.mu.Unlock()
		return ErrTurnInFlight
	}
	truncated, prompt, ok := model.TruncateForRegenerate(t.messages, index)
	if !ok {
		t.mu.Unlock()
		return ErrBadIndex
	}
	t.busy = true
	t.messages = truncated
	gen := t.generation
	sessionID := t.sessionID
	t.mu.Unlock()

	return t.completeTurn(ctx, gen, api.Question{
		Text:           prompt.Content,
		SessionID:      sessionID,
		Model:          t.selectedModel(),
		TopK:           t.opts.TopK,
		IncludeHistory: t.opts.IncludeHistory,
	})
}

// completeTurn runs the network call and commits its outcome, unless the
// transcript was swapped while the call was in flight.
func (t *Turns) completeTurn(ctx context.Context, gen uint64, q api.Question) error {
	answer, err := t.client.Ask(ctx, q)

	t.mu.Lock()
	if t.generation != gen {
		// The user moved on; this reply has no transcript to land in.
		t.mu.Unlock()
		return err
	}
	t.busy = false

	if err != nil {
		// An expired session is handled globally by the unauthorized hook;
		// appending a surrogate would write into a transcript that is about
		// to be torn down.
		if !api.IsUnauthorized(err) {
			t.messages = append(t.messages, model.NewErrorMessage(err.Error()))
		}
		t.mu.Unlock()
		return err
	}

	adopted := false
	if t.sessionID == "" && answer.SessionID != "" {
		t.sessionID = answer.SessionID
		adopted = true
	}
	t.messages = append(t.messages, answer.ToMessage())
	t.mu.Unlock()

	if adopted {
		t.store.SetCurrentSession(answer.SessionID)
	}
	return nil
}

// selectedModel resolves the store's model choice, falling back to the
// configured default.
func (t *Turns) selectedModel() string {
	if m := t.store.SelectedModel(); m != "" {
		return m
	}
	return t.opts.Model
}
