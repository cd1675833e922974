// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/techiesflock/samadhan-tui/internal/api"
	"github.com/techiesflock/samadhan-tui/internal/chat"
	"github.com/techiesflock/samadhan-tui/internal/config"
	"github.com/techiesflock/samadhan-tui/internal/model"
	"github.com/techiesflock/samadhan-tui/internal/session"
	"github.com/techiesflock/samadhan-tui/internal/state"
	"github.com/techiesflock/samadhan-tui/internal/ui/styles"
)

// focus identifies which pane receives keystrokes.
type focus int

const (
	focusInput focus = iota
	focusSessions
	focusSuggested
	focusAttach
	focusEdit
)

// Model is the Bubble Tea model for the chat view.
type Model struct {
	theme *styles.Theme
	cfg   *config.Config

	// Orchestration
	turns  *chat.Turns
	poller *session.Poller
	store  *state.Store

	// UI components
	viewport viewport.Model
	input    textinput.Model
	attach   textinput.Model
	edit     textinput.Model
	spinner  spinner.Model

	keyMap KeyMap
	focus  focus

	// Sidebar
	sessions      []model.Session
	sessionCursor int
	showSidebar   bool

	// Suggested question selection over the last assistant message
	suggestedCursor int

	// Pending attachment for the next send
	pendingAttachment *api.Upload

	// Index of the user message being edited, -1 when not editing
	editIndex int

	// Transient status line
	statusMsg string

	width  int
	height int
}

// New creates the chat view.
func New(theme *styles.Theme, cfg *config.Config, turns *chat.Turns, poller *session.Poller, store *state.Store) Model {
	input := textinput.New()
	input.Placeholder = "Ask your knowledge base..."
	input.CharLimit = 4000
	input.Focus()

	attach := textinput.New()
	attach.Placeholder = "path to file (max 10 MB)"
	attach.CharLimit = 1024

	edit := textinput.New()
	edit.CharLimit = 4000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return Model{
		theme:     theme,
		cfg:       cfg,
		turns:     turns,
		poller:    poller,
		store:     store,
		viewport:  viewport.New(0, 0),
		input:     input,
		attach:    attach,
		edit:      edit,
		spinner:   sp,
		keyMap:    DefaultKeyMap(),
		editIndex: -1,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// SetSize updates the layout dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	contentWidth := width
	if m.showSidebar {
		contentWidth -= sidebarWidth + 1
	}
	// Header, input line, and status bar take fixed rows
	m.viewport.Width = contentWidth
	m.viewport.Height = height - 4
	m.input.Width = contentWidth - 4
	m.attach.Width = contentWidth - 4
	m.edit.Width = contentWidth - 4
	m.refreshTranscript()
}

// SetSessions replaces the sidebar list (fed by the poller via the root
// model).
func (m *Model) SetSessions(sessions []model.Session) {
	m.sessions = sessions
	if m.sessionCursor >= len(sessions) {
		m.sessionCursor = len(sessions) - 1
	}
	if m.sessionCursor < 0 {
		m.sessionCursor = 0
	}
}

// SetConfig swaps in a reloaded configuration. Only settings read per
// keystroke (model list, theme name) take effect without a restart.
func (m *Model) SetConfig(cfg *config.Config) {
	m.cfg = cfg
}

// lastAssistant returns the index of the trailing assistant message, or -1.
func (m *Model) lastAssistant() int {
	msgs := m.turns.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleAssistant && !msgs[i].IsError {
			return i
		}
	}
	return -1
}

// lastUser returns the index of the trailing user message, or -1.
func (m *Model) lastUser() int {
	msgs := m.turns.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleUser {
			return i
		}
	}
	return -1
}
