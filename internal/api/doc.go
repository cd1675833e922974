// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the Samadhan backend.
//
// The backend wraps every response in a {success, message, data} envelope;
// the client unwraps it and returns typed domain values from internal/model.
// Errors come back as *ClientError with a machine-checkable type, plus
// IsUnauthorized / IsFolderNotEmpty / IsValidation / IsTimeout helpers.
//
// # Authentication
//
// The client pulls the bearer token lazily from a TokenSource on every
// request, so callers never re-configure it after login or logout. A 401 or
// 403 response fires the unauthorized hook exactly once until the next
// successful login, which keeps several concurrently failing requests from
// stacking logout transitions.
//
// # Usage
//
//	client := api.NewClient()
//	client.SetTokenSource(store.Token)
//	client.SetUnauthorizedHook(store.Logout)
//
//	answer, err := client.Ask(ctx, api.Question{
//		Text:           "What does the onboarding doc say about leave?",
//		SessionID:      sessionID,
//		TopK:           5,
//		IncludeHistory: true,
//	})
package api
