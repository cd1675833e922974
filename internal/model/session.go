// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the client: messages,
// sessions, documents and folders.
package model

import (
	"time"
)

// =============================================================================
// IDENTITY TYPE
// =============================================================================

// Identity is the authenticated user as reported by the backend.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is a server-tracked conversation. A brand-new conversation has no
// session ID until the first successful exchange assigns one.
type Session struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

// Title derives a listing title from the first user message.
func (s Session) Title() string {
	for _, msg := range s.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			return msg.Preview(40)
		}
	}
	return "New conversation"
}

// MessageCount returns the number of messages in the session.
func (s Session) MessageCount() int {
	return len(s.Messages)
}

// =============================================================================
// SESSION LIST HELPERS
// =============================================================================

// DedupeSessions returns the list with one entry per session ID, keeping the
// first occurrence. The backend has been observed to return duplicates.
func DedupeSessions(sessions []Session) []Session {
	seen := make(map[string]bool, len(sessions))
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}

// =============================================================================
// TRANSCRIPT EDITING
// =============================================================================

// TruncateForEdit returns the transcript cut to [0..index): editing the user
// message at index discards it and everything after it. The edited content is
// then resubmitted as a fresh message. Returns nil, false when the index is
// out of range.
func TruncateForEdit(messages []Message, index int) ([]Message, bool) {
	if index < 0 || index >= len(messages) {
		return nil, false
	}
	out := make([]Message, index)
	copy(out, messages[:index])
	return out, true
}

// TruncateForRegenerate removes exactly the assistant message at index and
// returns the preceding user message whose content is to be resent verbatim.
// Fails when index does not name an assistant message directly preceded by a
// user message.
func TruncateForRegenerate(messages []Message, index int) ([]Message, Message, bool) {
	if index <= 0 || index >= len(messages) {
		return nil, Message{}, false
	}
	if messages[index].Role != RoleAssistant || messages[index-1].Role != RoleUser {
		return nil, Message{}, false
	}
	out := make([]Message, index)
	copy(out, messages[:index])
	return out, messages[index-1], true
}
