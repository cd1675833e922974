// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/techiesflock/samadhan-tui/internal/model"
)

// newTestClient points a client at an httptest server.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultConfig()
	config.BaseURL = server.URL
	return NewClientWithConfig(config), server
}

// ok writes a success envelope around data.
func ok(w http.ResponseWriter, data interface{}) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "ok",
		"data":    data,
	})
}

// fail writes an error envelope with the given status and message.
func fail(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		ok(w, []sessionDTO{})
	}))
	client.SetTokenSource(func() string { return "tok-123" })

	if _, err := client.ListSessions(context.Background()); err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-123")
	}
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		ok(w, []sessionDTO{})
	}))
	client.SetTokenSource(func() string { return "" })

	if _, err := client.ListSessions(context.Background()); err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

func TestUnauthorizedHookFiresOnce(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusUnauthorized, "token expired")
	}))

	fired := 0
	client.SetUnauthorizedHook(func() { fired++ })

	for i := 0; i < 3; i++ {
		_, err := client.ListSessions(context.Background())
		if !IsUnauthorized(err) {
			t.Fatalf("request %d: err = %v, want unauthorized", i, err)
		}
	}
	if fired != 1 {
		t.Errorf("hook fired %d times, want 1", fired)
	}

	// Re-arming allows the hook to fire again for the next expiry
	client.ArmUnauthorized()
	client.ListSessions(context.Background())
	if fired != 2 {
		t.Errorf("hook fired %d times after re-arm, want 2", fired)
	}
}

func TestLoginReArmsUnauthorizedHook(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			ok(w, LoginResult{Token: "fresh", User: model.Identity{ID: "u1", Email: "a@b.c"}})
			return
		}
		fail(w, http.StatusUnauthorized, "token expired")
	}))

	fired := 0
	client.SetUnauthorizedHook(func() { fired++ })

	client.ListSessions(context.Background())
	client.ListSessions(context.Background())
	if fired != 1 {
		t.Fatalf("hook fired %d times, want 1", fired)
	}

	if _, err := client.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	client.ListSessions(context.Background())
	if fired != 2 {
		t.Errorf("hook fired %d times after login, want 2", fired)
	}
}

func TestLoginValidation(t *testing.T) {
	client := NewClient()
	if _, err := client.Login(context.Background(), "", "pw"); !IsValidation(err) {
		t.Errorf("empty email: err = %v, want validation", err)
	}
	if _, err := client.Login(context.Background(), "a@b.c", ""); !IsValidation(err) {
		t.Errorf("empty password: err = %v, want validation", err)
	}
}

func TestAskSendsJSONTurn(t *testing.T) {
	var gotBody map[string]interface{}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/ask" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		ok(w, Answer{
			SessionID:          "s-9",
			Response:           "The policy allows 20 days.",
			SuggestedQuestions: []string{"How do I apply?"},
			ResponseSource:     model.SourceKnowledgeBase,
		})
	}))

	answer, err := client.Ask(context.Background(), Question{
		Text:           "  How many leave days?  ",
		SessionID:      "s-9",
		Model:          "gemini-2.5-flash",
		TopK:           5,
		IncludeHistory: true,
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if gotBody["message"] != "How many leave days?" {
		t.Errorf("message = %v, want trimmed text", gotBody["message"])
	}
	if _, stale := gotBody["question"]; stale {
		t.Error("turn text must travel under the message field")
	}
	if gotBody["sessionId"] != "s-9" {
		t.Errorf("sessionId = %v, want s-9", gotBody["sessionId"])
	}
	if gotBody["topK"] != float64(5) {
		t.Errorf("topK = %v, want 5", gotBody["topK"])
	}
	if gotBody["includeHistory"] != true {
		t.Errorf("includeHistory = %v, want true", gotBody["includeHistory"])
	}

	if answer.SessionID != "s-9" {
		t.Errorf("SessionID = %q, want s-9", answer.SessionID)
	}
	msg := answer.ToMessage()
	if msg.Role != model.RoleAssistant || msg.Content != "The policy allows 20 days." {
		t.Errorf("ToMessage produced %+v", msg)
	}
	if len(msg.SuggestedQuestions) != 1 {
		t.Errorf("suggested questions = %v", msg.SuggestedQuestions)
	}
}

func TestAskDecodesAnswerField(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"message":"ok","data":{"sessionId":"s1","answer":"Hi!"}}`))
	}))

	answer, err := client.Ask(context.Background(), Question{Text: "hello", TopK: 5})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer.Response != "Hi!" {
		t.Errorf("Response = %q, want Hi!", answer.Response)
	}
	if answer.SessionID != "s1" {
		t.Errorf("SessionID = %q, want s1", answer.SessionID)
	}
}

func TestAskWithAttachmentSendsMultipart(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("Content-Type = %q, want multipart", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart: %v", err)
		}
		if got := r.FormValue("message"); got != "summarize this" {
			t.Errorf("message = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "notes.txt" {
			t.Errorf("filename = %q, want notes.txt", header.Filename)
		}
		ok(w, Answer{SessionID: "s-1", Response: "summary"})
	}))

	_, err := client.Ask(context.Background(), Question{
		Text:       "summarize this",
		SessionID:  "s-1",
		TopK:       5,
		Attachment: &Upload{Name: "notes.txt", MimeType: "text/plain", Data: []byte("hello")},
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	client := NewClient()
	if _, err := client.Ask(context.Background(), Question{Text: "   "}); !IsValidation(err) {
		t.Errorf("err = %v, want validation", err)
	}
}

func TestGetSessionConvertsMessages(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok(w, sessionDTO{
			ID:      "s-1",
			OwnerID: "u-1",
			Messages: []messageDTO{
				{ID: "m-1", Role: model.RoleUser, Content: "hi"},
				{Role: model.RoleAssistant, Content: "hello"},
			},
		})
	}))

	session, err := client.GetSession(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if len(session.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(session.Messages))
	}
	if !session.Messages[0].ID.IsConfirmed() {
		t.Error("server-identified message should be confirmed")
	}
	if session.Messages[0].ID.ServerID() != "m-1" {
		t.Errorf("ServerID = %q, want m-1", session.Messages[0].ID.ServerID())
	}
	// A message the backend stored without an id still gets a stable local key
	if session.Messages[1].ID.IsZero() {
		t.Error("id-less message should get a provisional ID")
	}
	if session.Messages[1].ID.IsConfirmed() {
		t.Error("provisional fallback must not be confirmed")
	}
}

func TestFolderNotEmptyClassification(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("force") == "true" {
			ok(w, map[string]bool{"deleted": true})
			return
		}
		fail(w, http.StatusBadRequest, "Folder is not empty. Use force=true to delete recursively.")
	}))

	err := client.DeleteFolder(context.Background(), "f-1", false)
	if !IsFolderNotEmpty(err) {
		t.Fatalf("err = %v, want folder-not-empty", err)
	}

	if err := client.DeleteFolder(context.Background(), "f-1", true); err != nil {
		t.Fatalf("forced delete failed: %v", err)
	}
}

func TestServerValidationMessageSurfaces(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusBadRequest, "Unsupported file type")
	}))

	_, err := client.UploadDocument(context.Background(), &Upload{Name: "x.bin", Data: []byte{1}}, "")
	if !IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
	if !strings.Contains(err.Error(), "Unsupported file type") {
		t.Errorf("error should carry the server message, got %q", err.Error())
	}
}

func TestUploadSizeCap(t *testing.T) {
	big := &Upload{Name: "big.pdf", Data: make([]byte, MaxUploadBytes+1)}
	client := NewClient()

	if _, err := client.UploadDocument(context.Background(), big, ""); !IsValidation(err) {
		t.Errorf("oversized upload: err = %v, want validation", err)
	}

	// Batch validation is all-or-nothing
	small := &Upload{Name: "ok.txt", Data: []byte("fine")}
	if _, err := client.UploadDocuments(context.Background(), []*Upload{small, big}, ""); !IsValidation(err) {
		t.Errorf("batch with oversized file: err = %v, want validation", err)
	}
}

func TestOpenUploadRejectsOversizedFromStat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "huge.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	// Sparse file: the size check must come from stat, not from reading
	if err := f.Truncate(MaxUploadBytes + 1); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := OpenUpload(path); !IsValidation(err) {
		t.Errorf("err = %v, want validation", err)
	}
}

func TestOpenUploadReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("some notes"), 0644); err != nil {
		t.Fatal(err)
	}

	upload, err := OpenUpload(path)
	if err != nil {
		t.Fatalf("OpenUpload failed: %v", err)
	}
	if upload.Name != "notes.txt" {
		t.Errorf("Name = %q", upload.Name)
	}
	if !bytes.Equal(upload.Data, []byte("some notes")) {
		t.Errorf("Data = %q", upload.Data)
	}
	if upload.MimeType == "application/octet-stream" {
		t.Errorf("expected a text MIME type, got %q", upload.MimeType)
	}
}

func TestSearchSkipsEmptyQuery(t *testing.T) {
	called := false
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		ok(w, SearchResults{})
	}))

	results, err := client.Search(context.Background(), SearchRequest{Query: "   "})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if called {
		t.Error("blank query should not hit the backend")
	}
	if results == nil || len(results.Folders) != 0 || len(results.Documents) != 0 {
		t.Errorf("results = %+v, want empty", results)
	}
}

func TestNotFoundMapsToSentinel(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusNotFound, "session not found")
	}))

	_, err := client.GetSession(context.Background(), "missing")
	var clientErr *ClientError
	if !errors.As(err, &clientErr) || clientErr.Type != ErrTypeNotFound {
		t.Errorf("err = %v, want not-found", err)
	}
}

func TestMalformedEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))

	_, err := client.ListSessions(context.Background())
	var clientErr *ClientError
	if !errors.As(err, &clientErr) || clientErr.Type != ErrTypeInvalidResponse {
		t.Errorf("err = %v, want invalid-response", err)
	}
}

func TestConnectionRefused(t *testing.T) {
	config := DefaultConfig()
	config.BaseURL = "http://127.0.0.1:1" // nothing listens here
	client := NewClientWithConfig(config)

	_, err := client.ListSessions(context.Background())
	var clientErr *ClientError
	if !errors.As(err, &clientErr) || clientErr.Type != ErrTypeConnection {
		t.Errorf("err = %v, want connection error", err)
	}
}
