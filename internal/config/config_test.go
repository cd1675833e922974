// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Chat.DefaultModel != "gemini-2.5-flash" {
		t.Errorf("DefaultModel = %q", cfg.Chat.DefaultModel)
	}
	if cfg.Chat.TopK != 5 || !cfg.Chat.IncludeHistory {
		t.Errorf("retrieval defaults = %+v", cfg.Chat)
	}
	if cfg.Sessions.PollIntervalSecs != 30 {
		t.Errorf("PollIntervalSecs = %d", cfg.Sessions.PollIntervalSecs)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.BaseURL != Default().Server.BaseURL {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
base_url = "https://kb.example.com/api/v1"

[chat]
top_k = 8
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.BaseURL != "https://kb.example.com/api/v1" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Chat.TopK != 8 {
		t.Errorf("TopK = %d", cfg.Chat.TopK)
	}
	// Unset fields fall back
	if cfg.Chat.DefaultModel != "gemini-2.5-flash" {
		t.Errorf("DefaultModel = %q, want default", cfg.Chat.DefaultModel)
	}
	if cfg.Server.TimeoutSecs != 30 {
		t.Errorf("TimeoutSecs = %d, want default", cfg.Server.TimeoutSecs)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad url", "[server]\nbase_url = \"not a url\"\n"},
		{"top_k out of range", "[chat]\ntop_k = 500\n"},
		{"poll interval too small", "[sessions]\npoll_interval_secs = 1\n"},
		{"unknown theme", "[ui]\ntheme = \"solarized\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFromPath(path); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestEnvOverridesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[chat]\ndefault_model = \"gemini-2.5-pro\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SAMADHAN_MODEL", "gemini-2.5-flash-lite")
	t.Setenv("SAMADHAN_TOP_K", "3")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Chat.DefaultModel != "gemini-2.5-flash-lite" {
		t.Errorf("DefaultModel = %q, env should win over file", cfg.Chat.DefaultModel)
	}
	if cfg.Chat.TopK != 3 {
		t.Errorf("TopK = %d", cfg.Chat.TopK)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Server.BaseURL = "https://kb.example.com/api/v1"
	cfg.UI.CompactMode = true
	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Server.BaseURL != cfg.Server.BaseURL {
		t.Errorf("BaseURL = %q", loaded.Server.BaseURL)
	}
	if !loaded.UI.CompactMode {
		t.Error("CompactMode should round-trip")
	}
}

func TestLoadFixesLoosePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("version = \"1.0.0\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 0600", perm)
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[chat]\ntop_k = 5\n"), 0600); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("[chat]\ntop_k = 9\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Chat.TopK != 9 {
			t.Errorf("reloaded TopK = %d, want 9", cfg.Chat.TopK)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never reloaded")
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("version = \"1.0.0\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "state.json"), []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Error("sibling file change should not trigger a reload")
	case <-time.After(600 * time.Millisecond):
	}
}
