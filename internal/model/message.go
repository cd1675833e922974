// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the client: messages,
// sessions, documents and folders.
package model

import (
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// RESPONSE PROVENANCE
// =============================================================================

// ResponseSource says where the backend sourced an answer from.
type ResponseSource string

const (
	SourceCached        ResponseSource = "cached"
	SourceKnowledgeBase ResponseSource = "knowledge_base"
	SourceAIGenerated   ResponseSource = "ai_generated"
	SourceHybrid        ResponseSource = "hybrid"
)

// DisplayName returns a short label for the source badge.
func (s ResponseSource) DisplayName() string {
	switch s {
	case SourceCached:
		return "Cached"
	case SourceKnowledgeBase:
		return "Knowledge Base"
	case SourceAIGenerated:
		return "AI"
	case SourceHybrid:
		return "Hybrid"
	default:
		return string(s)
	}
}

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// Attachment carries metadata about a file sent alongside a chat message.
// Only metadata is kept in the transcript; the bytes travel in the request.
type Attachment struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	MimeType    string `json:"type"`
	PreviewPath string `json:"url,omitempty"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation transcript.
type Message struct {
	// Identity
	ID        ID        `json:"-"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Server-supplied fields (assistant messages)
	SuggestedQuestions []string       `json:"suggestedQuestions,omitempty"`
	FromCache          bool           `json:"fromCache,omitempty"`
	CacheSimilarity    float64        `json:"cacheSimilarity,omitempty"`
	ResponseSource     ResponseSource `json:"responseSource,omitempty"`

	// Optional file sent with a user message
	Attachment *Attachment `json:"file,omitempty"`

	// IsError marks an in-transcript error surrogate appended when a turn
	// fails. The failure stays visible in history but is never resent.
	IsError bool `json:"isError,omitempty"`
}

// NewUserMessage creates a user message with a provisional ID.
func NewUserMessage(content string) Message {
	return Message{
		ID:        NewProvisionalID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates an assistant message with a provisional ID.
func NewAssistantMessage(content string) Message {
	return Message{
		ID:        NewProvisionalID(),
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewErrorMessage creates the assistant-role error surrogate recorded in the
// transcript when a turn fails.
func NewErrorMessage(detail string) Message {
	msg := NewAssistantMessage("Error: " + detail)
	msg.IsError = true
	return msg
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m Message) IsEmpty() bool {
	return len(m.Content) == 0
}
