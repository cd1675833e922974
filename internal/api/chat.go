// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/techiesflock/samadhan-tui/internal/model"
)

// =============================================================================
// ASK
// =============================================================================

// Question is a single turn sent to the retrieval pipeline.
type Question struct {
	// Text is the user's question. Required.
	Text string

	// SessionID scopes the turn to an existing session. Empty asks the
	// backend to mint a new session and report its ID in the answer.
	SessionID string

	// Model selects the generation model for this turn.
	Model string

	// TopK is the number of document chunks retrieved for grounding.
	TopK int

	// IncludeHistory sends prior turns of the session as context.
	IncludeHistory bool

	// Attachment optionally carries a file alongside the question.
	Attachment *Upload
}

// Ask submits a question and waits for the full answer. Turns with an
// attachment go up as multipart; plain turns as JSON. The two paths return
// the same envelope shape.
func (c *Client) Ask(ctx context.Context, q Question) (*Answer, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, &ClientError{Type: ErrTypeValidation, Message: "question text is required"}
	}

	var answer Answer
	if q.Attachment != nil {
		if err := q.Attachment.validate(); err != nil {
			return nil, err
		}
		fields := map[string]string{
			"message":        text,
			"topK":           strconv.Itoa(q.TopK),
			"includeHistory": strconv.FormatBool(q.IncludeHistory),
		}
		if q.SessionID != "" {
			fields["sessionId"] = q.SessionID
		}
		if q.Model != "" {
			fields["model"] = q.Model
		}
		files := []filePart{{field: "file", name: q.Attachment.Name, data: q.Attachment.Data}}
		if err := c.doMultipart(ctx, http.MethodPost, "/chat/ask", fields, files, &answer); err != nil {
			return nil, err
		}
	} else {
		payload := struct {
			Message        string `json:"message"`
			SessionID      string `json:"sessionId,omitempty"`
			Model          string `json:"model,omitempty"`
			TopK           int    `json:"topK"`
			IncludeHistory bool   `json:"includeHistory"`
		}{text, q.SessionID, q.Model, q.TopK, q.IncludeHistory}
		if err := c.doJSON(ctx, http.MethodPost, "/chat/ask", payload, &answer); err != nil {
			return nil, err
		}
	}

	if answer.Response == "" {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "answer carried no response text"}
	}
	return &answer, nil
}

// =============================================================================
// SESSIONS
// =============================================================================

// CreateSession asks the backend for a fresh empty session.
func (c *Client) CreateSession(ctx context.Context) (*model.Session, error) {
	var dto sessionDTO
	if err := c.doJSON(ctx, http.MethodPost, "/chat/sessions", nil, &dto); err != nil {
		return nil, err
	}
	session := dto.toModel()
	return &session, nil
}

// ListSessions returns the caller's sessions, newest first, without message
// bodies.
func (c *Client) ListSessions(ctx context.Context) ([]model.Session, error) {
	var dtos []sessionDTO
	if err := c.doJSON(ctx, http.MethodGet, "/chat/sessions", nil, &dtos); err != nil {
		return nil, err
	}
	return toModelSessions(dtos), nil
}

// GetSession returns one session with its full message history.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, &ClientError{Type: ErrTypeValidation, Message: "session id is required"}
	}
	var dto sessionDTO
	if err := c.doJSON(ctx, http.MethodGet, "/chat/sessions/"+url.PathEscape(sessionID), nil, &dto); err != nil {
		return nil, err
	}
	session := dto.toModel()
	return &session, nil
}

// DeleteSession removes a session and its history.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return &ClientError{Type: ErrTypeValidation, Message: "session id is required"}
	}
	return c.doJSON(ctx, http.MethodDelete, "/chat/sessions/"+url.PathEscape(sessionID), nil, nil)
}

// ClearHistory empties a session's messages while keeping the session itself.
func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return &ClientError{Type: ErrTypeValidation, Message: "session id is required"}
	}
	return c.doJSON(ctx, http.MethodPost, "/chat/sessions/"+url.PathEscape(sessionID)+"/clear", nil, nil)
}

// =============================================================================
// HEALTH
// =============================================================================

// ChatHealth reports the retrieval pipeline's readiness.
type ChatHealth struct {
	Status string `json:"status"`
	Model  string `json:"model,omitempty"`
}

// Health probes the chat pipeline.
func (c *Client) Health(ctx context.Context) (*ChatHealth, error) {
	var health ChatHealth
	if err := c.doJSON(ctx, http.MethodGet, "/chat/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
