// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the client: messages,
// sessions, documents and folders.
package model

import (
	"errors"

	"github.com/google/uuid"
)

// =============================================================================
// PROVISIONAL / CONFIRMED IDENTIFIERS
// =============================================================================

// ID identifies a message or session. A freshly created local object carries a
// provisional ID until the server assigns an authoritative one; adopting the
// server ID is a one-shot transition.
type ID struct {
	value     string
	confirmed bool
}

// ErrAlreadyConfirmed is returned when confirming an ID that already carries a
// server-issued value.
var ErrAlreadyConfirmed = errors.New("id already confirmed")

// NewProvisionalID mints a client-local identifier.
func NewProvisionalID() ID {
	return ID{value: "local-" + uuid.NewString()}
}

// ConfirmedID wraps a server-issued identifier.
func ConfirmedID(serverID string) ID {
	return ID{value: serverID, confirmed: true}
}

// NoID is the zero ID: no session selected / not yet created.
var NoID = ID{}

// Confirm adopts the server-issued identifier. It may be called exactly once:
// a second call, or a call on an already-confirmed ID, fails.
func (id ID) Confirm(serverID string) (ID, error) {
	if id.confirmed {
		return id, ErrAlreadyConfirmed
	}
	return ID{value: serverID, confirmed: true}, nil
}

// String returns the current identifier value, provisional or confirmed.
func (id ID) String() string {
	return id.value
}

// IsConfirmed reports whether the ID is server-issued.
func (id ID) IsConfirmed() bool {
	return id.confirmed
}

// IsZero reports whether the ID holds no value at all.
func (id ID) IsZero() bool {
	return id.value == ""
}

// ServerID returns the confirmed value, or "" while the ID is provisional.
// The API layer uses this to decide whether to send a sessionId at all.
func (id ID) ServerID() string {
	if !id.confirmed {
		return ""
	}
	return id.value
}
