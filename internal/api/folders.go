// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/techiesflock/samadhan-tui/internal/model"
)

// =============================================================================
// FOLDERS
// =============================================================================

// FolderContents is one folder level: its subfolders, its documents, and the
// path from the root down to it.
type FolderContents struct {
	Folders     []model.Folder     `json:"folders"`
	Documents   []model.Document   `json:"documents"`
	Breadcrumbs []model.Breadcrumb `json:"breadcrumbs,omitempty"`
}

// CreateFolder creates a folder, optionally under a parent. An empty parent
// creates at the root.
func (c *Client) CreateFolder(ctx context.Context, name, description, parentID string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ClientError{Type: ErrTypeValidation, Message: "folder name is required"}
	}

	payload := struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		ParentID    string `json:"parentId,omitempty"`
	}{name, description, parentID}

	var folder model.Folder
	if err := c.doJSON(ctx, http.MethodPost, "/folders", payload, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// FolderTree returns the caller's full folder hierarchy.
func (c *Client) FolderTree(ctx context.Context) ([]model.Folder, error) {
	var folders []model.Folder
	if err := c.doJSON(ctx, http.MethodGet, "/folders", nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// FolderContents returns one folder's immediate children and documents. An
// empty folder id lists the root level.
func (c *Client) FolderContents(ctx context.Context, folderID string) (*FolderContents, error) {
	path := "/folders/contents"
	if folderID != "" {
		path += "?folderId=" + url.QueryEscape(folderID)
	}
	var contents FolderContents
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &contents); err != nil {
		return nil, err
	}
	return &contents, nil
}

// UpdateFolder renames a folder or changes its description.
func (c *Client) UpdateFolder(ctx context.Context, folderID, name, description string) (*model.Folder, error) {
	if folderID == "" {
		return nil, &ClientError{Type: ErrTypeValidation, Message: "folder id is required"}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ClientError{Type: ErrTypeValidation, Message: "folder name is required"}
	}

	payload := struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}{name, description}

	var folder model.Folder
	if err := c.doJSON(ctx, http.MethodPut, "/folders/"+url.PathEscape(folderID), payload, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// DeleteFolder removes a folder. Without force the backend rejects non-empty
// folders; callers should surface that as a confirmation and retry with
// force=true to cascade.
func (c *Client) DeleteFolder(ctx context.Context, folderID string, force bool) error {
	if folderID == "" {
		return &ClientError{Type: ErrTypeValidation, Message: "folder id is required"}
	}
	path := "/folders/" + url.PathEscape(folderID)
	if force {
		path += "?force=true"
	}
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// SearchRequest scopes a name search. The zero value beyond Query searches
// the whole hierarchy.
type SearchRequest struct {
	Query             string `json:"query"`
	FolderID          string `json:"folderId,omitempty"`
	IncludeSubfolders bool   `json:"includeSubfolders,omitempty"`
	Limit             int    `json:"limit,omitempty"`
}

// SearchResults is a cross-folder name search over folders and documents.
// AISuggestions are optional related-question hints the backend may attach.
type SearchResults struct {
	Folders       []model.Folder   `json:"folders"`
	Documents     []model.Document `json:"documents"`
	AISuggestions []string         `json:"aiSuggestions,omitempty"`
}

// Search runs a name search over folders and documents.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResults, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return &SearchResults{}, nil
	}

	var results SearchResults
	if err := c.doJSON(ctx, http.MethodPost, "/search", req, &results); err != nil {
		return nil, err
	}
	return &results, nil
}
