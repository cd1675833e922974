// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/techiesflock/samadhan-tui/internal/api"
	"github.com/techiesflock/samadhan-tui/internal/chat"
)

// turnTimeout bounds a single ask round trip, attachments included.
const turnTimeout = 3 * time.Minute

// TurnDoneMsg fires when a send/edit/regenerate settles. The transcript is
// read back from the orchestrator, so the message only carries the error.
type TurnDoneMsg struct {
	Err error
}

// SessionLoadedMsg fires when a sidebar selection finished loading.
type SessionLoadedMsg struct {
	Err error
}

// SessionDeletedMsg fires when a session delete settles.
type SessionDeletedMsg struct {
	ID  string
	Err error
}

// HistoryClearedMsg fires when a clear-history round trip settles.
type HistoryClearedMsg struct {
	Err error
}

// sendCmd submits the text (and any pending attachment) as a new turn.
func sendCmd(turns *chat.Turns, text string, attachment *api.Upload) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()
		return TurnDoneMsg{Err: turns.Send(ctx, text, attachment)}
	}
}

// editCmd rewrites the user message at index and resubmits.
func editCmd(turns *chat.Turns, index int, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()
		return TurnDoneMsg{Err: turns.Edit(ctx, index, text)}
	}
}

// regenerateCmd re-asks the question behind the assistant message at index.
func regenerateCmd(turns *chat.Turns, index int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()
		return TurnDoneMsg{Err: turns.Regenerate(ctx, index)}
	}
}

// loadSessionCmd switches the transcript to a sidebar selection.
func loadSessionCmd(turns *chat.Turns, sessionID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return SessionLoadedMsg{Err: turns.LoadSession(ctx, sessionID)}
	}
}

// clearHistoryCmd empties the active session.
func clearHistoryCmd(turns *chat.Turns) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return HistoryClearedMsg{Err: turns.ClearHistory(ctx)}
	}
}

// deleteSessionCmd removes a sidebar session.
func deleteSessionCmd(poller sessionDeleter, sessionID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return SessionDeletedMsg{ID: sessionID, Err: poller.Delete(ctx, sessionID)}
	}
}

// sessionDeleter is the slice of the poller the delete command needs.
type sessionDeleter interface {
	Delete(ctx context.Context, sessionID string) error
}

// openAttachmentCmd validates and reads a file for the next send.
func openAttachmentCmd(path string) tea.Cmd {
	return func() tea.Msg {
		upload, err := api.OpenUpload(path)
		return attachmentOpenedMsg{upload: upload, err: err}
	}
}

// attachmentOpenedMsg carries the result of reading an attachment.
type attachmentOpenedMsg struct {
	upload *api.Upload
	err    error
}
