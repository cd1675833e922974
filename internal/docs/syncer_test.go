// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/techiesflock/samadhan-tui/internal/api"
)

// fakeBackend is a minimal in-memory hierarchy server.
type fakeBackend struct {
	mu        sync.Mutex
	folders   map[string][]map[string]interface{} // parent scope -> folders
	documents map[string][]map[string]interface{} // folder scope -> documents
	deletes   []string                            // "<id>:<force>"
	requests  []string                            // "<method> <path>"
	uploads   int
	reindexes int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		folders: map[string][]map[string]interface{}{
			"": {
				{"id": "f-hr", "name": "HR", "documentCount": 2},
			},
			"f-hr": {},
		},
		documents: map[string][]map[string]interface{}{
			"":     {{"id": "d-root", "fileName": "readme.txt", "status": "completed"}},
			"f-hr": {{"id": "d-leave", "fileName": "leave.pdf", "status": "completed"}},
		},
	}
}

func ok(w http.ResponseWriter, data interface{}) {
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "message": "ok", "data": data})
}

func (b *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)

		switch {
		case r.URL.Path == "/folders/contents":
			id := r.URL.Query().Get("folderId")
			crumbs := []map[string]string{}
			if id != "" {
				crumbs = append(crumbs, map[string]string{"id": id, "name": "HR"})
			}
			ok(w, map[string]interface{}{
				"folders":     b.folders[id],
				"documents":   b.documents[id],
				"breadcrumbs": crumbs,
			})

		case r.URL.Path == "/documents/stats":
			total := 0
			for _, docs := range b.documents {
				total += len(docs)
			}
			ok(w, map[string]int{"totalDocuments": total, "totalChunks": total * 10})

		case r.URL.Path == "/documents/upload" || r.URL.Path == "/documents/upload/multiple":
			r.ParseMultipartForm(1 << 20)
			scope := r.FormValue("folderId")
			files := r.MultipartForm.File["file"]
			files = append(files, r.MultipartForm.File["files"]...)
			var created []map[string]interface{}
			for _, f := range files {
				b.uploads++
				doc := map[string]interface{}{"id": "d-new", "fileName": f.Filename, "status": "processing"}
				b.documents[scope] = append(b.documents[scope], doc)
				created = append(created, doc)
			}
			if r.URL.Path == "/documents/upload" {
				ok(w, created[0])
			} else {
				ok(w, created)
			}

		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/folders/"):
			id := strings.TrimPrefix(r.URL.Path, "/folders/")
			force := r.URL.Query().Get("force") == "true"
			b.deletes = append(b.deletes, id+":"+r.URL.Query().Get("force"))
			if !force && (len(b.folders[id]) > 0 || len(b.documents[id]) > 0) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"message": "Folder is not empty. Use force=true to delete recursively.",
				})
				return
			}
			delete(b.documents, id)
			root := b.folders[""]
			for i, f := range root {
				if f["id"] == id {
					b.folders[""] = append(root[:i:i], root[i+1:]...)
					break
				}
			}
			ok(w, map[string]bool{"deleted": true})

		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/documents/"):
			id := strings.TrimPrefix(r.URL.Path, "/documents/")
			for scope, docs := range b.documents {
				for i, d := range docs {
					if d["id"] == id {
						b.documents[scope] = append(docs[:i:i], docs[i+1:]...)
					}
				}
			}
			ok(w, map[string]bool{"deleted": true})

		case r.Method == http.MethodPost && r.URL.Path == "/search":
			var req map[string]interface{}
			json.NewDecoder(r.Body).Decode(&req)
			q, _ := req["query"].(string)
			q = strings.ToLower(q)
			results := map[string]interface{}{"folders": []interface{}{}, "documents": []interface{}{}}
			var hits []map[string]interface{}
			for _, docs := range b.documents {
				for _, d := range docs {
					if strings.Contains(strings.ToLower(d["fileName"].(string)), q) {
						hits = append(hits, d)
					}
				}
			}
			if hits != nil {
				results["documents"] = hits
				results["aiSuggestions"] = []string{"What is the leave policy?"}
			}
			ok(w, results)

		case r.Method == http.MethodPost && r.URL.Path == "/documents/reindex":
			b.reindexes++
			ok(w, map[string]bool{"started": true})

		case r.Method == http.MethodPost && r.URL.Path == "/folders":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			folder := map[string]interface{}{"id": "f-new", "name": body["name"], "documentCount": 0}
			scope := body["parentId"]
			b.folders[scope] = append(b.folders[scope], folder)
			ok(w, folder)

		default:
			http.NotFound(w, r)
		}
	})
}

func newTestSyncer(t *testing.T) (*Syncer, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	config := api.DefaultConfig()
	config.BaseURL = server.URL
	return NewSyncer(api.NewClientWithConfig(config)), backend
}

func TestRefreshPopulatesRootScope(t *testing.T) {
	syncer, _ := newTestSyncer(t)
	if err := syncer.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	view := syncer.View()
	if view.FolderID != "" {
		t.Errorf("FolderID = %q, want root", view.FolderID)
	}
	if len(view.Folders) != 1 || view.Folders[0].Name != "HR" {
		t.Errorf("Folders = %+v", view.Folders)
	}
	if len(view.Documents) != 1 {
		t.Errorf("Documents = %+v", view.Documents)
	}
	if view.Stats.TotalDocuments != 2 {
		t.Errorf("Stats = %+v", view.Stats)
	}
}

func TestEnterAndUp(t *testing.T) {
	syncer, _ := newTestSyncer(t)
	syncer.Refresh(context.Background())

	if err := syncer.Enter(context.Background(), "f-hr"); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	view := syncer.View()
	if view.FolderID != "f-hr" {
		t.Errorf("FolderID = %q", view.FolderID)
	}
	if len(view.Documents) != 1 || view.Documents[0].FileName != "leave.pdf" {
		t.Errorf("Documents = %+v", view.Documents)
	}

	if err := syncer.Up(context.Background()); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if syncer.View().FolderID != "" {
		t.Error("Up from a first-level folder should land at the root")
	}

	// Up at the root is a no-op, not an error
	if err := syncer.Up(context.Background()); err != nil {
		t.Errorf("Up at root: %v", err)
	}
}

func TestUploadRefreshesScope(t *testing.T) {
	syncer, backend := newTestSyncer(t)
	syncer.Refresh(context.Background())
	syncer.Enter(context.Background(), "f-hr")

	dir := t.TempDir()
	path := filepath.Join(dir, "policy.txt")
	os.WriteFile(path, []byte("policy text"), 0644)

	if err := syncer.UploadFiles(context.Background(), []string{path}); err != nil {
		t.Fatalf("UploadFiles: %v", err)
	}

	if backend.uploads != 1 {
		t.Errorf("uploads = %d, want 1", backend.uploads)
	}
	view := syncer.View()
	if len(view.Documents) != 2 {
		t.Errorf("scope should show the new document after refresh, got %+v", view.Documents)
	}
}

func TestUploadBatchFailsFastOnBadFile(t *testing.T) {
	syncer, backend := newTestSyncer(t)
	syncer.Refresh(context.Background())

	dir := t.TempDir()
	good := filepath.Join(dir, "ok.txt")
	os.WriteFile(good, []byte("fine"), 0644)
	missing := filepath.Join(dir, "nope.txt")

	err := syncer.UploadFiles(context.Background(), []string{good, missing})
	if !api.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
	if backend.uploads != 0 {
		t.Errorf("no bytes should move when the batch fails validation, uploads = %d", backend.uploads)
	}
}

func TestDeleteFolderForceFlow(t *testing.T) {
	syncer, backend := newTestSyncer(t)
	syncer.Refresh(context.Background())

	err := syncer.DeleteFolder(context.Background(), "f-hr")
	if !api.IsFolderNotEmpty(err) {
		t.Fatalf("err = %v, want folder-not-empty", err)
	}
	if syncer.PendingDelete() != "f-hr" {
		t.Errorf("PendingDelete = %q, want f-hr", syncer.PendingDelete())
	}

	if err := syncer.ConfirmForceDelete(context.Background()); err != nil {
		t.Fatalf("ConfirmForceDelete: %v", err)
	}
	if syncer.PendingDelete() != "" {
		t.Error("confirmation should clear the pending id")
	}

	backend.mu.Lock()
	deletes := append([]string(nil), backend.deletes...)
	backend.mu.Unlock()
	if len(deletes) != 2 || deletes[0] != "f-hr:" || deletes[1] != "f-hr:true" {
		t.Errorf("deletes = %v, want plain then forced", deletes)
	}

	if len(syncer.View().Folders) != 0 {
		t.Error("deleted folder should vanish from the refreshed view")
	}
}

func TestCancelForceDelete(t *testing.T) {
	syncer, backend := newTestSyncer(t)
	syncer.Refresh(context.Background())

	syncer.DeleteFolder(context.Background(), "f-hr")
	syncer.CancelForceDelete()

	if syncer.PendingDelete() != "" {
		t.Error("cancel should clear the pending id")
	}
	if err := syncer.ConfirmForceDelete(context.Background()); !errors.Is(err, ErrNoPendingDelete) {
		t.Errorf("err = %v, want ErrNoPendingDelete", err)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.deletes) != 1 {
		t.Errorf("no forced delete should run after cancel, deletes = %v", backend.deletes)
	}
}

func TestNavigationInvalidatesPendingDelete(t *testing.T) {
	syncer, _ := newTestSyncer(t)
	syncer.Refresh(context.Background())

	syncer.DeleteFolder(context.Background(), "f-hr")
	if syncer.PendingDelete() != "f-hr" {
		t.Fatal("expected pending delete")
	}

	syncer.Enter(context.Background(), "f-hr")
	if syncer.PendingDelete() != "" {
		t.Error("changing scope should drop the pending confirmation")
	}
}

func TestSearchOverlay(t *testing.T) {
	syncer, _ := newTestSyncer(t)
	syncer.Refresh(context.Background())

	if err := syncer.RunSearch(context.Background(), "leave"); err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	overlay := syncer.Search()
	if overlay == nil {
		t.Fatal("expected an active overlay")
	}
	if len(overlay.Documents) != 1 || overlay.Documents[0].FileName != "leave.pdf" {
		t.Errorf("overlay documents = %+v", overlay.Documents)
	}
	if len(overlay.AISuggestions) != 1 {
		t.Errorf("overlay suggestions = %+v", overlay.AISuggestions)
	}

	// The scope underneath is untouched
	if view := syncer.View(); len(view.Documents) != 1 || view.Documents[0].FileName != "readme.txt" {
		t.Errorf("scope changed under the overlay: %+v", view.Documents)
	}

	// Zero hits is still an overlay
	if err := syncer.RunSearch(context.Background(), "zzz-no-match"); err != nil {
		t.Fatal(err)
	}
	overlay = syncer.Search()
	if overlay == nil || len(overlay.Documents) != 0 {
		t.Errorf("overlay = %+v, want empty results", overlay)
	}

	// Blank query dismisses without a network call
	if err := syncer.RunSearch(context.Background(), "   "); err != nil {
		t.Fatal(err)
	}
	if syncer.Search() != nil {
		t.Error("blank query should clear the overlay")
	}
}

func TestReindexRefreshesListing(t *testing.T) {
	syncer, backend := newTestSyncer(t)
	syncer.Refresh(context.Background())

	backend.mu.Lock()
	backend.requests = nil
	backend.mu.Unlock()

	if err := syncer.Reindex(context.Background()); err != nil {
		t.Fatalf("Reindex: %v", err)
	}

	backend.mu.Lock()
	requests := append([]string(nil), backend.requests...)
	reindexes := backend.reindexes
	backend.mu.Unlock()

	if reindexes != 1 {
		t.Fatalf("reindexes = %d, want 1", reindexes)
	}
	want := []string{
		"POST /documents/reindex",
		"GET /folders/contents",
		"GET /documents/stats",
	}
	if len(requests) != len(want) {
		t.Fatalf("requests = %v, want %v", requests, want)
	}
	for i := range want {
		if requests[i] != want[i] {
			t.Errorf("requests[%d] = %q, want %q", i, requests[i], want[i])
		}
	}
}

func TestEnteringFolderDismissesOverlay(t *testing.T) {
	syncer, _ := newTestSyncer(t)
	syncer.Refresh(context.Background())

	if err := syncer.RunSearch(context.Background(), "leave"); err != nil {
		t.Fatalf("RunSearch: %v", err)
	}
	if syncer.Search() == nil {
		t.Fatal("expected an active overlay")
	}

	if err := syncer.Enter(context.Background(), "f-hr"); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if syncer.Search() != nil {
		t.Error("navigating to a different folder should dismiss the overlay")
	}

	// A same-scope refresh keeps an overlay alive
	syncer.Up(context.Background())
	syncer.RunSearch(context.Background(), "leave")
	if err := syncer.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if syncer.Search() == nil {
		t.Error("refreshing the same scope should not dismiss the overlay")
	}
}

func TestBackendRequestShapes(t *testing.T) {
	syncer, backend := newTestSyncer(t)
	syncer.Refresh(context.Background())
	syncer.Enter(context.Background(), "f-hr")
	syncer.RunSearch(context.Background(), "leave")

	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	os.WriteFile(a, []byte("a"), 0644)
	os.WriteFile(b, []byte("b"), 0644)
	if err := syncer.UploadFiles(context.Background(), []string{a, b}); err != nil {
		t.Fatalf("UploadFiles: %v", err)
	}

	backend.mu.Lock()
	requests := append([]string(nil), backend.requests...)
	backend.mu.Unlock()

	var sawContents, sawSearch, sawBatch bool
	for _, req := range requests {
		switch req {
		case "GET /folders/contents":
			sawContents = true
		case "POST /search":
			sawSearch = true
		case "POST /documents/upload/multiple":
			sawBatch = true
		}
	}
	if !sawContents {
		t.Error("folder listings must go through GET /folders/contents")
	}
	if !sawSearch {
		t.Error("search must go through POST /search")
	}
	if !sawBatch {
		t.Error("batch uploads must go through POST /documents/upload/multiple")
	}
}

func TestCreateFolderInScope(t *testing.T) {
	syncer, _ := newTestSyncer(t)
	syncer.Refresh(context.Background())
	syncer.Enter(context.Background(), "f-hr")

	if err := syncer.CreateFolder(context.Background(), "Policies", ""); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}

	view := syncer.View()
	if len(view.Folders) != 1 || view.Folders[0].Name != "Policies" {
		t.Errorf("Folders = %+v, want the new subfolder", view.Folders)
	}
}
