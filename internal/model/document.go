// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the client: messages,
// sessions, documents and folders.
package model

import (
	"time"
)

// =============================================================================
// DOCUMENT TYPE
// =============================================================================

// DocumentStatus is the server-side processing state of an uploaded document.
type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// DisplayName returns a human-readable status label.
func (s DocumentStatus) DisplayName() string {
	switch s {
	case StatusProcessing:
		return "Processing..."
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Document is a file ingested by the backend, optionally scoped to a folder.
type Document struct {
	ID         string         `json:"id"`
	FileName   string         `json:"fileName"`
	Status     DocumentStatus `json:"status"`
	UploadedAt time.Time      `json:"uploadedAt"`
	FolderID   string         `json:"folderId,omitempty"`
}

// Stats are the aggregate knowledge-base statistics for the current scope.
type Stats struct {
	TotalDocuments int `json:"totalDocuments"`
	TotalChunks    int `json:"totalChunks"`
}

// =============================================================================
// FOLDER TYPE
// =============================================================================

// Folder is a node in the document folder tree. An empty folder ID denotes
// the root ("All Documents") scope.
type Folder struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	ParentID      string   `json:"parentId,omitempty"`
	DocumentCount int      `json:"documentCount"`
	Children      []Folder `json:"children,omitempty"`
}

// Breadcrumb is one entry of the path from root to the current folder.
type Breadcrumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// =============================================================================
// FOLDER TREE HELPERS
// =============================================================================

// FindFolder locates a folder by ID anywhere in the tree.
func FindFolder(folders []Folder, id string) (Folder, bool) {
	for _, f := range folders {
		if f.ID == id {
			return f, true
		}
		if found, ok := FindFolder(f.Children, id); ok {
			return found, true
		}
	}
	return Folder{}, false
}

// FlattenFolders returns the tree in depth-first order, parents before
// children. Useful for rendering and for counting.
func FlattenFolders(folders []Folder) []Folder {
	var out []Folder
	for _, f := range folders {
		out = append(out, f)
		out = append(out, FlattenFolders(f.Children)...)
	}
	return out
}

// CountDescendants returns how many folders sit below the given node.
func CountDescendants(f Folder) int {
	n := 0
	for _, c := range f.Children {
		n += 1 + CountDescendants(c)
	}
	return n
}
