// samadhan TUI - A terminal client for the Samadhan document chat backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/techiesflock/samadhan-tui/internal/api"
	"github.com/techiesflock/samadhan-tui/internal/chat"
	"github.com/techiesflock/samadhan-tui/internal/config"
	"github.com/techiesflock/samadhan-tui/internal/docs"
	"github.com/techiesflock/samadhan-tui/internal/session"
	"github.com/techiesflock/samadhan-tui/internal/state"
	"github.com/techiesflock/samadhan-tui/internal/ui"
	"github.com/techiesflock/samadhan-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for messages originating outside the update loop
// (unauthorized hook, config watcher).
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "print version and exit")
		configPath  = flag.String("config", "", "path to config file (default ~/.samadhan/config.toml)")
		serverURL   = flag.String("server", "", "backend base URL (overrides config)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("samadhan %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	// Load configuration (file + env overrides + defaults)
	path := *configPath
	if path == "" {
		var err error
		path, err = config.ConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving config path: %v\n", err)
			os.Exit(1)
		}
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.Server.BaseURL = *serverURL
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid server URL: %v\n", err)
			os.Exit(1)
		}
	}

	// Hydrate persisted auth/session state before any request goes out
	statePath, err := state.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving state path: %v\n", err)
		os.Exit(1)
	}
	store := state.NewStore(statePath)
	if err := store.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
		os.Exit(1)
	}

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:       cfg.Server.BaseURL,
		Timeout:       cfg.Server.Timeout(),
		UploadTimeout: cfg.Server.UploadTimeout(),
	})
	client.SetTokenSource(store.Token)
	client.SetUnauthorizedHook(func() {
		sendToProgram(ui.UnauthorizedMsg{})
	})

	turns := chat.NewTurns(client, store, chat.Options{
		Model:          cfg.Chat.DefaultModel,
		TopK:           cfg.Chat.TopK,
		IncludeHistory: cfg.Chat.IncludeHistory,
	})
	syncer := docs.NewSyncer(client)
	poller := session.NewPoller(client, store, cfg.Sessions.PollInterval())

	theme := styles.NewTheme()
	app := ui.New(theme, cfg, client, store, turns, poller, syncer)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	// Hot-reload the config file while the app runs
	watcher, err := config.NewWatcher(path, func(next *config.Config) {
		sendToProgram(ui.ConfigReloadedMsg{Config: next})
	})
	if err == nil {
		if err := watcher.Watch(); err == nil {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running samadhan: %v\n", err)
		os.Exit(1)
	}
}
