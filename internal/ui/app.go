// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui assembles the terminal application: the login gate, the chat
// view, and the document manager, switched under a shared header.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/techiesflock/samadhan-tui/internal/api"
	"github.com/techiesflock/samadhan-tui/internal/chat"
	"github.com/techiesflock/samadhan-tui/internal/config"
	"github.com/techiesflock/samadhan-tui/internal/docs"
	"github.com/techiesflock/samadhan-tui/internal/session"
	"github.com/techiesflock/samadhan-tui/internal/state"
	chatui "github.com/techiesflock/samadhan-tui/internal/ui/chat"
	documentsui "github.com/techiesflock/samadhan-tui/internal/ui/documents"
	"github.com/techiesflock/samadhan-tui/internal/ui/login"
	"github.com/techiesflock/samadhan-tui/internal/ui/styles"
)

// ============================================================================
// Messages
// ============================================================================

// UnauthorizedMsg is sent from the API client's unauthorized hook when the
// backend rejects the stored token. The app drops back to the login screen.
type UnauthorizedMsg struct{}

// ConfigReloadedMsg carries a freshly loaded configuration from the file
// watcher.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// ============================================================================
// Model
// ============================================================================

type screen int

const (
	screenLogin screen = iota
	screenChat
	screenDocuments
)

const headerHeight = 2

// Model is the root Bubble Tea model.
type Model struct {
	theme  *styles.Theme
	cfg    *config.Config
	client *api.Client
	store  *state.Store
	turns  *chat.Turns
	poller *session.Poller
	syncer *docs.Syncer

	login     login.Model
	chat      chatui.Model
	documents documentsui.Model

	screen screen
	width  int
	height int
}

// New builds the root model. The store must be hydrated before calling.
func New(theme *styles.Theme, cfg *config.Config, client *api.Client, store *state.Store,
	turns *chat.Turns, poller *session.Poller, syncer *docs.Syncer) Model {

	m := Model{
		theme:     theme,
		cfg:       cfg,
		client:    client,
		store:     store,
		turns:     turns,
		poller:    poller,
		syncer:    syncer,
		login:     login.New(theme, client),
		chat:      chatui.New(theme, cfg, turns, poller, store),
		documents: documentsui.New(theme, syncer),
		screen:    screenLogin,
	}
	if store.LoggedIn() {
		m.screen = screenChat
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.screen == screenLogin {
		return m.login.Init()
	}
	return tea.Batch(
		m.chat.Init(),
		m.documents.Init(),
		m.poller.RefreshCmd(),
		m.poller.TickCmd(),
		m.restoreSessionCmd(),
	)
}

// restoreSessionCmd reloads the transcript the user had open last run.
func (m Model) restoreSessionCmd() tea.Cmd {
	sessionID := m.store.CurrentSessionID()
	if sessionID == "" {
		return nil
	}
	turns := m.turns
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Server.Timeout())
		defer cancel()
		return chatui.SessionLoadedMsg{Err: turns.LoadSession(ctx, sessionID)}
	}
}

// ============================================================================
// Update
// ============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.login.SetSize(msg.Width, msg.Height)
		m.chat.SetSize(msg.Width, msg.Height-headerHeight)
		m.documents.SetSize(msg.Width, msg.Height-headerHeight)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab":
			if m.screen == screenChat {
				m.screen = screenDocuments
				return m, m.documents.Init()
			}
			if m.screen == screenDocuments {
				m.screen = screenChat
				return m, nil
			}
		case "ctrl+x":
			if m.screen != screenLogin {
				return m.logout("")
			}
		}

	case UnauthorizedMsg:
		if m.screen == screenLogin {
			return m, nil
		}
		return m.logout("session expired, sign in again")

	case login.SucceededMsg:
		if err := m.store.SetAuth(msg.Result.User, msg.Result.Token); err != nil {
			m.login.Reset("could not save session: " + err.Error())
			return m, nil
		}
		m.screen = screenChat
		return m, tea.Batch(
			m.chat.Init(),
			m.documents.Init(),
			m.poller.RefreshCmd(),
			m.poller.TickCmd(),
			m.restoreSessionCmd(),
		)

	case session.TickMsg:
		return m, tea.Batch(m.poller.RefreshCmd(), m.poller.TickCmd())

	case session.UpdatedMsg:
		m.chat.SetSessions(msg.Sessions)
		return m, nil

	case ConfigReloadedMsg:
		m.cfg = msg.Config
		m.chat.SetConfig(msg.Config)
		return m, nil
	}

	return m.delegate(msg)
}

// logout wipes local credentials and returns to the login screen. The server
// keeps the sessions; nothing is deleted remotely.
func (m Model) logout(notice string) (tea.Model, tea.Cmd) {
	if err := m.store.Logout(); err != nil {
		notice = "logout failed: " + err.Error()
	}
	m.turns.NewChat()
	m.login.Reset(notice)
	m.screen = screenLogin
	return m, m.login.Init()
}

// delegate routes a message to the active sub-view.
func (m Model) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case screenLogin:
		m.login, cmd = m.login.Update(msg)
	case screenChat:
		m.chat, cmd = m.chat.Update(msg)
	case screenDocuments:
		m.documents, cmd = m.documents.Update(msg)
	}
	return m, cmd
}

// ============================================================================
// View
// ============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if m.screen == screenLogin {
		return m.login.View()
	}

	var body string
	switch m.screen {
	case screenChat:
		body = m.chat.View()
	case screenDocuments:
		body = m.documents.View()
	}
	return m.renderHeader() + "\n" + body
}

func (m Model) renderHeader() string {
	t := m.theme

	chatTab := t.Tab.Render("Chat")
	docsTab := t.Tab.Render("Documents")
	if m.screen == screenChat {
		chatTab = t.TabActive.Render("Chat")
	} else {
		docsTab = t.TabActive.Render("Documents")
	}

	left := t.HeaderBrand.Render("samadhan") + "  " + chatTab + " " + docsTab

	var right string
	if user := m.store.User(); user != nil {
		right = t.SessionMeta.Render(user.Email + "  ctrl+x sign out")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	pad := lipgloss.NewStyle().Width(gap).Render("")

	return t.Header.Render(left + pad + right)
}
