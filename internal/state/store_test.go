// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/techiesflock/samadhan-tui/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "state.json"))
}

func TestTokenEmptyBeforeHydration(t *testing.T) {
	s := newTestStore(t)
	if s.Hydrated() {
		t.Error("fresh store should not be hydrated")
	}
	if s.Token() != "" {
		t.Errorf("Token() = %q before hydration, want empty", s.Token())
	}
	if s.User() != nil {
		t.Error("User() should be nil before hydration")
	}
	if s.LoggedIn() {
		t.Error("LoggedIn() should be false before hydration")
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load of missing file: %v", err)
	}
	if !s.Hydrated() {
		t.Error("store should be hydrated after Load")
	}
	if s.LoggedIn() {
		t.Error("missing file should hydrate to logged out")
	}
}

func TestLoadCorruptFileHydratesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load of corrupt file: %v", err)
	}
	if !s.Hydrated() || s.LoggedIn() {
		t.Error("corrupt file should hydrate to logged out")
	}
}

func TestAuthRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}

	user := model.Identity{ID: "u-1", Email: "a@b.c", Username: "alice"}
	if err := s.SetAuth(user, "tok-1"); err != nil {
		t.Fatalf("SetAuth: %v", err)
	}

	if !s.LoggedIn() {
		t.Error("should be logged in after SetAuth")
	}
	if s.Token() != "tok-1" {
		t.Errorf("Token() = %q", s.Token())
	}
	if got := s.User(); got == nil || got.Email != "a@b.c" {
		t.Errorf("User() = %+v", got)
	}
}

func TestPersistenceAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	first := NewStore(path)
	if err := first.Load(); err != nil {
		t.Fatal(err)
	}
	first.SetAuth(model.Identity{ID: "u-1", Email: "a@b.c"}, "tok-1")
	first.SetCurrentSession("s-42")
	first.SetSelectedModel("gemini-2.5-pro")

	second := NewStore(path)
	if err := second.Load(); err != nil {
		t.Fatal(err)
	}
	if !second.LoggedIn() {
		t.Error("login should survive restart")
	}
	if second.CurrentSessionID() != "s-42" {
		t.Errorf("CurrentSessionID = %q, want s-42", second.CurrentSessionID())
	}
	if second.SelectedModel() != "gemini-2.5-pro" {
		t.Errorf("SelectedModel = %q", second.SelectedModel())
	}
}

func TestLogoutClearsAuthAndSessionPointer(t *testing.T) {
	s := newTestStore(t)
	s.Load()
	s.SetAuth(model.Identity{ID: "u-1"}, "tok-1")
	s.SetCurrentSession("s-1")
	s.SetSelectedModel("gemini-2.5-pro")

	if err := s.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if s.LoggedIn() || s.Token() != "" || s.User() != nil {
		t.Error("logout should clear identity and token")
	}
	if s.CurrentSessionID() != "" {
		t.Error("logout should clear the session pointer")
	}
	// Preference, not credential
	if s.SelectedModel() != "gemini-2.5-pro" {
		t.Error("selected model should survive logout")
	}
}

func TestHalfWrittenAuthTreatedAsLoggedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"token":"orphan-token"}`), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	if s.LoggedIn() || s.Token() != "" {
		t.Error("token without identity should hydrate to logged out")
	}
}

func TestOnChangeFiresPerMutation(t *testing.T) {
	s := newTestStore(t)
	s.Load()

	fired := 0
	s.SetOnChange(func() { fired++ })

	s.SetAuth(model.Identity{ID: "u-1"}, "t")
	s.SetCurrentSession("s-1")
	s.Logout()

	if fired != 3 {
		t.Errorf("onChange fired %d times, want 3", fired)
	}
}
