// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the client.
//
// This package defines the domain types mirrored from the backend contract:
// chat messages and sessions, documents and the folder tree, and the
// authenticated identity.
//
// # Key Types
//
//   - Message: single transcript entry with role, content, and provenance
//   - Session: server-tracked conversation with its message history
//   - Document / Folder: knowledge-base entries scoped to a folder tree
//   - Identity: the authenticated user
//   - ID: a provisional-or-confirmed identifier; local objects carry a
//     provisional ID until the server issues the authoritative one
//
// # Usage
//
// Create an optimistic user message and later adopt a server session ID:
//
//	msg := model.NewUserMessage("Hello")
//	sid, err := model.NoID.Confirm(resp.SessionID)
package model
