// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/techiesflock/samadhan-tui/internal/model"
	"github.com/techiesflock/samadhan-tui/internal/util"
)

// =============================================================================
// UPLOADS
// =============================================================================

// Upload is a file payload bound for the backend.
type Upload struct {
	Name     string
	MimeType string
	Data     []byte
}

// OpenUpload reads a file from disk into an upload, rejecting oversized files
// from their stat size before reading a byte.
func OpenUpload(path string) (*Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeValidation, Message: "cannot read file", Cause: err}
	}
	if info.IsDir() {
		return nil, &ClientError{Type: ErrTypeValidation, Message: fmt.Sprintf("%s is a directory", path)}
	}
	if info.Size() > MaxUploadBytes {
		return nil, &ClientError{
			Type: ErrTypeValidation,
			Message: fmt.Sprintf("%s is %s, over the %s upload limit",
				filepath.Base(path), util.FormatBytes(info.Size()), util.FormatBytes(MaxUploadBytes)),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeValidation, Message: "cannot read file", Cause: err}
	}

	return &Upload{
		Name:     filepath.Base(path),
		MimeType: util.MimeTypeFor(path),
		Data:     data,
	}, nil
}

func (u *Upload) validate() error {
	if u.Name == "" || len(u.Data) == 0 {
		return &ClientError{Type: ErrTypeValidation, Message: "upload needs a name and content"}
	}
	if len(u.Data) > MaxUploadBytes {
		return ErrAttachmentTooLarge
	}
	return nil
}

// =============================================================================
// DOCUMENT OPERATIONS
// =============================================================================

// UploadDocument ingests one file, optionally into a folder. The returned
// document usually starts in the processing state.
func (c *Client) UploadDocument(ctx context.Context, upload *Upload, folderID string) (*model.Document, error) {
	if err := upload.validate(); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if folderID != "" {
		fields["folderId"] = folderID
	}
	files := []filePart{{field: "file", name: upload.Name, data: upload.Data}}

	var doc model.Document
	if err := c.doMultipart(ctx, http.MethodPost, "/documents/upload", fields, files, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UploadDocuments ingests several files in one request. Validation is
// all-or-nothing: one oversized file fails the whole batch before any bytes
// move.
func (c *Client) UploadDocuments(ctx context.Context, uploads []*Upload, folderID string) ([]model.Document, error) {
	if len(uploads) == 0 {
		return nil, &ClientError{Type: ErrTypeValidation, Message: "no files to upload"}
	}
	files := make([]filePart, len(uploads))
	for i, u := range uploads {
		if err := u.validate(); err != nil {
			return nil, err
		}
		files[i] = filePart{field: "files", name: u.Name, data: u.Data}
	}

	fields := map[string]string{}
	if folderID != "" {
		fields["folderId"] = folderID
	}

	var docs []model.Document
	if err := c.doMultipart(ctx, http.MethodPost, "/documents/upload/multiple", fields, files, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ListDocuments returns all of the caller's documents across folders.
func (c *Client) ListDocuments(ctx context.Context) ([]model.Document, error) {
	var docs []model.Document
	if err := c.doJSON(ctx, http.MethodGet, "/documents", nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDocument returns one document's metadata.
func (c *Client) GetDocument(ctx context.Context, documentID string) (*model.Document, error) {
	if documentID == "" {
		return nil, &ClientError{Type: ErrTypeValidation, Message: "document id is required"}
	}
	var doc model.Document
	if err := c.doJSON(ctx, http.MethodGet, "/documents/"+url.PathEscape(documentID), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DocumentStats returns corpus-wide counts.
func (c *Client) DocumentStats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := c.doJSON(ctx, http.MethodGet, "/documents/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// DeleteDocument removes a document and its index entries.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return &ClientError{Type: ErrTypeValidation, Message: "document id is required"}
	}
	return c.doJSON(ctx, http.MethodDelete, "/documents/"+url.PathEscape(documentID), nil, nil)
}

// ReindexDocuments rebuilds the retrieval index over the full corpus.
func (c *Client) ReindexDocuments(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/documents/reindex", nil, nil)
}
