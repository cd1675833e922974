// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/techiesflock/samadhan-tui/internal/model"
)

// Credentials are the login request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the backend's answer to a successful login.
type LoginResult struct {
	Token string         `json:"token"`
	User  model.Identity `json:"user"`
}

// Login exchanges credentials for a bearer token and the user identity.
// A successful login re-arms the unauthorized hook.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, &ClientError{Type: ErrTypeValidation, Message: "email and password are required"}
	}

	var result LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", Credentials{Email: email, Password: password}, &result)
	if err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "login response carried no token"}
	}

	c.ArmUnauthorized()
	return &result, nil
}

// Register creates an account and logs it in, returning the same shape as
// Login.
func (c *Client) Register(ctx context.Context, username, email, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, &ClientError{Type: ErrTypeValidation, Message: "username, email and password are required"}
	}

	payload := struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}{username, email, password}

	var result LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", payload, &result); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "register response carried no token"}
	}

	c.ArmUnauthorized()
	return &result, nil
}

// Profile fetches the identity behind the current token. Useful as a cheap
// token validity probe on startup.
func (c *Client) Profile(ctx context.Context) (*model.Identity, error) {
	var identity model.Identity
	if err := c.doJSON(ctx, http.MethodGet, "/auth/profile", nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}
