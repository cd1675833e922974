// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the Samadhan
// backend API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches two client errors by type, so sentinel comparisons with
// errors.Is work for dynamically built errors of the same class.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeUnauthorized
	ErrTypeValidation
	ErrTypeNotFound
	ErrTypeFolderNotEmpty
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrTimeout            = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrUnauthorized       = &ClientError{Type: ErrTypeUnauthorized, Message: "session is no longer valid"}
	ErrNotFound           = &ClientError{Type: ErrTypeNotFound, Message: "resource not found"}
	ErrFolderNotEmpty     = &ClientError{Type: ErrTypeFolderNotEmpty, Message: "folder is not empty"}
	ErrAttachmentTooLarge = &ClientError{Type: ErrTypeValidation, Message: "file exceeds the 10 MB upload limit"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// MaxUploadBytes caps file payloads client-side. Oversized files are rejected
// before any request is built, so no bytes ever leave the machine.
const MaxUploadBytes = 10 * 1024 * 1024

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend API base URL (default: http://127.0.0.1:3000/api/v1)
	BaseURL string

	// Timeout for standard requests (default: 30s)
	Timeout time.Duration

	// UploadTimeout for multipart requests carrying file payloads (default: 2m)
	UploadTimeout time.Duration

	// RefreshPerSecond bounds how many requests per second the client will
	// issue. Refresh-after-mutate can fan out several reads per user action;
	// the limiter keeps a burst of mutations from hammering the backend.
	RefreshPerSecond float64

	// RefreshBurst is the limiter burst size (default: 8)
	RefreshBurst int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:          "http://127.0.0.1:3000/api/v1",
		Timeout:          30 * time.Second,
		UploadTimeout:    2 * time.Minute,
		RefreshPerSecond: 10,
		RefreshBurst:     8,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// TokenSource supplies the current bearer token, or "" when the client is not
// authenticated (or the store has not hydrated yet).
type TokenSource func() string

// Client handles communication with the Samadhan backend API.
//
// The Client is safe for concurrent use. Every request attaches the bearer
// token from the token source when one is present. A 401-class response is
// fatal to the session: the unauthorized hook fires exactly once until the
// client is re-armed by a fresh login.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	uploads    *http.Client
	limiter    *rate.Limiter

	tokenSource TokenSource

	mu                sync.Mutex
	onUnauthorized    func()
	unauthorizedFired bool
}

// NewClient creates a backend client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a backend client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:3000/api/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UploadTimeout == 0 {
		config.UploadTimeout = 2 * time.Minute
	}
	if config.RefreshPerSecond == 0 {
		config.RefreshPerSecond = 10
	}
	if config.RefreshBurst == 0 {
		config.RefreshBurst = 8
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		uploads:    &http.Client{Timeout: config.UploadTimeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RefreshPerSecond), config.RefreshBurst),
	}
}

// SetTokenSource installs the bearer token provider.
func (c *Client) SetTokenSource(src TokenSource) {
	c.tokenSource = src
}

// SetUnauthorizedHook installs the callback fired when the backend reports an
// authorization failure. The hook fires at most once until ArmUnauthorized
// re-arms it, which guards against redirect loops when several in-flight
// requests fail together.
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
	c.unauthorizedFired = false
}

// ArmUnauthorized re-arms the unauthorized hook after a successful login.
func (c *Client) ArmUnauthorized() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unauthorizedFired = false
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// RESPONSE ENVELOPE
// =============================================================================

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// doJSON issues a JSON request and decodes the envelope data into out.
// A nil body sends no payload; a nil out discards the data.
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.execute(c.httpClient, req, out)
}

// filePart is one file carried by a multipart request.
type filePart struct {
	field string
	name  string
	data  []byte
}

// doMultipart issues a multipart/form-data request with the given text fields
// and file parts. Every file must already have passed the size cap.
func (c *Client) doMultipart(ctx context.Context, method, path string, fields map[string]string, files []filePart, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to encode form field", Cause: err}
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to encode file part", Cause: err}
		}
		if _, err := part.Write(f.data); err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to encode file part", Cause: err}
		}
	}
	if err := w.Close(); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to finalize multipart body", Cause: err}
	}

	req, err := c.newRequest(ctx, method, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.execute(c.uploads, req, out)
}

// newRequest builds a request against the base URL and attaches the bearer
// token when the token source yields one.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ClientError{Type: ErrTypeTimeout, Message: "request canceled while rate limited", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

// execute runs the request and decodes the envelope.
func (c *Client) execute(httpClient *http.Client, req *http.Request, out interface{}) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return &ClientError{Type: ErrTypeConnection, Message: "backend is unreachable", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.fireUnauthorized()
		return ErrUnauthorized
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	if resp.StatusCode >= 400 {
		return classifyServerError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	if len(env.Data) == 0 {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "response carried no data"}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response data", Cause: err}
	}

	return nil
}

// fireUnauthorized invokes the unauthorized hook at most once per arming.
func (c *Client) fireUnauthorized() {
	c.mu.Lock()
	hook := c.onUnauthorized
	fired := c.unauthorizedFired
	c.unauthorizedFired = true
	c.mu.Unlock()

	if hook != nil && !fired {
		hook()
	}
}

// classifyServerError reads the envelope of a 4xx/5xx response and maps
// recognized error shapes onto typed errors.
func classifyServerError(resp *http.Response) error {
	var env envelope
	message := ""
	if err := json.NewDecoder(resp.Body).Decode(&env); err == nil {
		message = env.Message
	}

	if message == "" {
		return &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: "request failed: " + resp.Status,
		}
	}

	// The only semantic error-driven branch in the client: a non-empty-folder
	// rejection is re-offered to the caller as an explicit force-delete choice.
	if strings.Contains(strings.ToLower(message), "not empty") {
		return &ClientError{Type: ErrTypeFolderNotEmpty, Message: message}
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		return &ClientError{Type: ErrTypeValidation, Message: message}
	}

	return &ClientError{Type: ErrTypeUnknown, Message: message}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsUnauthorized checks if an error is a session-fatal authorization failure.
func IsUnauthorized(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeUnauthorized
	}
	return false
}

// IsFolderNotEmpty checks if an error is a non-empty-folder rejection.
func IsFolderNotEmpty(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeFolderNotEmpty
	}
	return false
}

// IsValidation checks if an error is a validation failure (client- or
// server-reported).
func IsValidation(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeValidation
	}
	return false
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return false
}
