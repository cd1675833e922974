// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docs keeps a client-side view of the knowledge base folders and
// documents in sync with the backend.
//
// The backend owns the hierarchy; the syncer never recomputes it locally.
// Every mutation is followed by a refresh of the current scope, so the view
// converges on server truth even when a mutation has side effects the client
// cannot predict (cascading deletes, server-side renames, processing
// documents finishing).
package docs

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/techiesflock/samadhan-tui/internal/api"
	"github.com/techiesflock/samadhan-tui/internal/model"
)

// ErrNoPendingDelete is returned when ConfirmForceDelete runs without a
// folder awaiting confirmation.
var ErrNoPendingDelete = errors.New("no folder delete awaiting confirmation")

// View is a snapshot of the current folder scope for rendering.
type View struct {
	// FolderID is the scope, "" at the root.
	FolderID string

	Folders     []model.Folder
	Documents   []model.Document
	Breadcrumbs []model.Breadcrumb

	// Stats are corpus-wide, independent of scope.
	Stats model.Stats
}

// SearchView is the cross-folder search overlay. While active it replaces the
// scoped listing; the scope underneath is untouched.
type SearchView struct {
	Query     string
	Folders   []model.Folder
	Documents []model.Document

	// AISuggestions are optional related-question hints from the backend.
	AISuggestions []string
}

// Syncer mirrors one folder scope of the backend hierarchy.
//
// All methods are safe for concurrent use. Mutations block until the
// follow-up refresh lands, so a caller re-rendering after a mutation always
// sees the post-mutation server state.
type Syncer struct {
	client *api.Client

	mu            sync.Mutex
	view          View
	search        *SearchView
	pendingDelete string // folder id awaiting force confirmation
}

// NewSyncer creates a syncer rooted at the top of the hierarchy. Call
// Refresh to populate it.
func NewSyncer(client *api.Client) *Syncer {
	return &Syncer{client: client}
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// View returns a copy of the current scope.
func (s *Syncer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Search returns the active search overlay, or nil.
func (s *Syncer) Search() *SearchView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.search == nil {
		return nil
	}
	sv := *s.search
	return &sv
}

// PendingDelete returns the folder id awaiting force confirmation, or "".
func (s *Syncer) PendingDelete() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingDelete
}

// =============================================================================
// NAVIGATION
// =============================================================================

// Refresh re-fetches the current scope and the corpus stats.
func (s *Syncer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	folderID := s.view.FolderID
	s.mu.Unlock()
	return s.load(ctx, folderID)
}

// Enter descends into a folder. An empty id returns to the root.
func (s *Syncer) Enter(ctx context.Context, folderID string) error {
	return s.load(ctx, folderID)
}

// Up moves one level towards the root, using the breadcrumbs the backend
// returned with the current scope.
func (s *Syncer) Up(ctx context.Context) error {
	s.mu.Lock()
	crumbs := s.view.Breadcrumbs
	parent := ""
	if len(crumbs) >= 2 {
		parent = crumbs[len(crumbs)-2].ID
	}
	atRoot := s.view.FolderID == ""
	s.mu.Unlock()

	if atRoot {
		return nil
	}
	return s.load(ctx, parent)
}

func (s *Syncer) load(ctx context.Context, folderID string) error {
	contents, err := s.client.FolderContents(ctx, folderID)
	if err != nil {
		return err
	}
	stats, err := s.client.DocumentStats(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	// Changing scope invalidates any pending confirmation and dismisses the
	// search overlay; the user is no longer looking at what they were shown.
	if folderID != s.view.FolderID {
		s.search = nil
	}
	s.view = View{
		FolderID:    folderID,
		Folders:     contents.Folders,
		Documents:   contents.Documents,
		Breadcrumbs: contents.Breadcrumbs,
		Stats:       *stats,
	}
	s.pendingDelete = ""
	s.mu.Unlock()
	return nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// UploadFiles reads the given paths and ingests them into the current scope.
// Validation is all-or-nothing: one unreadable or oversized file fails the
// batch before any upload starts.
func (s *Syncer) UploadFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	uploads := make([]*api.Upload, len(paths))
	for i, path := range paths {
		u, err := api.OpenUpload(path)
		if err != nil {
			return err
		}
		uploads[i] = u
	}

	s.mu.Lock()
	folderID := s.view.FolderID
	s.mu.Unlock()

	if len(uploads) == 1 {
		if _, err := s.client.UploadDocument(ctx, uploads[0], folderID); err != nil {
			return err
		}
	} else {
		if _, err := s.client.UploadDocuments(ctx, uploads, folderID); err != nil {
			return err
		}
	}

	return s.Refresh(ctx)
}

// CreateFolder creates a subfolder in the current scope.
func (s *Syncer) CreateFolder(ctx context.Context, name, description string) error {
	s.mu.Lock()
	parentID := s.view.FolderID
	s.mu.Unlock()

	if _, err := s.client.CreateFolder(ctx, name, description, parentID); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// RenameFolder renames a folder in the current scope.
func (s *Syncer) RenameFolder(ctx context.Context, folderID, name, description string) error {
	if _, err := s.client.UpdateFolder(ctx, folderID, name, description); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// DeleteDocument removes a document and refreshes.
func (s *Syncer) DeleteDocument(ctx context.Context, documentID string) error {
	if err := s.client.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// DeleteFolder attempts a plain delete. If the backend rejects it because the
// folder still has contents, the folder is parked as pending and the
// folder-not-empty error is returned so the caller can ask the user;
// ConfirmForceDelete then cascades, CancelForceDelete walks away.
func (s *Syncer) DeleteFolder(ctx context.Context, folderID string) error {
	err := s.client.DeleteFolder(ctx, folderID, false)
	if err != nil {
		if api.IsFolderNotEmpty(err) {
			s.mu.Lock()
			s.pendingDelete = folderID
			s.mu.Unlock()
		}
		return err
	}
	return s.Refresh(ctx)
}

// ConfirmForceDelete cascades the delete the user just confirmed.
func (s *Syncer) ConfirmForceDelete(ctx context.Context) error {
	s.mu.Lock()
	folderID := s.pendingDelete
	s.pendingDelete = ""
	s.mu.Unlock()

	if folderID == "" {
		return ErrNoPendingDelete
	}
	if err := s.client.DeleteFolder(ctx, folderID, true); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// CancelForceDelete drops the pending confirmation without deleting.
func (s *Syncer) CancelForceDelete() {
	s.mu.Lock()
	s.pendingDelete = ""
	s.mu.Unlock()
}

// Reindex asks the backend to rebuild the retrieval index, then reloads the
// listing so refreshed document statuses show up.
func (s *Syncer) Reindex(ctx context.Context) error {
	if err := s.client.ReindexDocuments(ctx); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// =============================================================================
// SEARCH OVERLAY
// =============================================================================

// RunSearch executes a cross-folder name search and activates the overlay.
// A blank query clears it instead. An overlay with zero hits is still an
// overlay; "nothing matched" is an answer.
func (s *Syncer) RunSearch(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		s.ClearSearch()
		return nil
	}

	results, err := s.client.Search(ctx, api.SearchRequest{Query: query, IncludeSubfolders: true})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.search = &SearchView{
		Query:         query,
		Folders:       results.Folders,
		Documents:     results.Documents,
		AISuggestions: results.AISuggestions,
	}
	s.mu.Unlock()
	return nil
}

// ClearSearch dismisses the overlay, returning to the scoped listing.
func (s *Syncer) ClearSearch() {
	s.mu.Lock()
	s.search = nil
	s.mu.Unlock()
}
