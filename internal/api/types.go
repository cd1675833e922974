// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"time"

	"github.com/techiesflock/samadhan-tui/internal/model"
)

// =============================================================================
// WIRE TYPES
// =============================================================================
// The backend speaks camelCase JSON inside a {success, message, data}
// envelope. Types whose shape matches the domain model decode straight into
// it; messages need a translation step because the client distinguishes
// provisional from server-confirmed identifiers and the wire does not.

// messageDTO is a chat message as the backend serializes it.
type messageDTO struct {
	ID                 string               `json:"id"`
	Role               model.Role           `json:"role"`
	Timestamp          time.Time            `json:"timestamp"`
	Content            string               `json:"content"`
	SuggestedQuestions []string             `json:"suggestedQuestions,omitempty"`
	FromCache          bool                 `json:"fromCache,omitempty"`
	CacheSimilarity    float64              `json:"cacheSimilarity,omitempty"`
	ResponseSource     model.ResponseSource `json:"responseSource,omitempty"`
	Attachment         *model.Attachment    `json:"file,omitempty"`
}

// toModel converts a wire message into a domain message. Server identifiers
// become confirmed IDs; messages the backend stored without one get a fresh
// provisional ID so list rendering still has a stable key.
func (d messageDTO) toModel() model.Message {
	id := model.NewProvisionalID()
	if d.ID != "" {
		id = model.ConfirmedID(d.ID)
	}
	return model.Message{
		ID:                 id,
		Role:               d.Role,
		Timestamp:          d.Timestamp,
		Content:            d.Content,
		SuggestedQuestions: d.SuggestedQuestions,
		FromCache:          d.FromCache,
		CacheSimilarity:    d.CacheSimilarity,
		ResponseSource:     d.ResponseSource,
		Attachment:         d.Attachment,
	}
}

func toModelMessages(dtos []messageDTO) []model.Message {
	if len(dtos) == 0 {
		return nil
	}
	messages := make([]model.Message, len(dtos))
	for i, d := range dtos {
		messages[i] = d.toModel()
	}
	return messages
}

// sessionDTO is a chat session as the backend serializes it.
type sessionDTO struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"userId"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Messages  []messageDTO `json:"messages,omitempty"`
}

func (d sessionDTO) toModel() model.Session {
	return model.Session{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Messages:  toModelMessages(d.Messages),
	}
}

func toModelSessions(dtos []sessionDTO) []model.Session {
	sessions := make([]model.Session, len(dtos))
	for i, d := range dtos {
		sessions[i] = d.toModel()
	}
	return sessions
}

// =============================================================================
// CHAT ANSWERS
// =============================================================================

// Answer is the backend's reply to a question.
type Answer struct {
	// SessionID is the session the answer belongs to. For a question asked
	// without a session, the backend mints one and reports it here.
	SessionID string `json:"sessionId"`

	// Response is the assistant's answer text (markdown).
	Response string `json:"answer"`

	// SuggestedQuestions are follow-up prompts the caller may offer the user.
	SuggestedQuestions []string `json:"suggestedQuestions,omitempty"`

	// FromCache reports whether the answer was served from the semantic cache.
	FromCache bool `json:"fromCache,omitempty"`

	// CacheSimilarity is the cache-hit similarity score, when FromCache is set.
	CacheSimilarity float64 `json:"cacheSimilarity,omitempty"`

	// ResponseSource names the retrieval path that produced the answer.
	ResponseSource model.ResponseSource `json:"responseSource,omitempty"`
}

// ToMessage converts an answer into an assistant message for the transcript.
func (a Answer) ToMessage() model.Message {
	msg := model.NewAssistantMessage(a.Response)
	msg.SuggestedQuestions = a.SuggestedQuestions
	msg.FromCache = a.FromCache
	msg.CacheSimilarity = a.CacheSimilarity
	msg.ResponseSource = a.ResponseSource
	return msg
}
