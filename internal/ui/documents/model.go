// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package documents provides the knowledge base manager view: folder
// navigation, uploads, deletes, and cross-folder search.
package documents

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/techiesflock/samadhan-tui/internal/docs"
	"github.com/techiesflock/samadhan-tui/internal/ui/styles"
)

// mode is the active input overlay.
type mode int

const (
	modeBrowse mode = iota
	modeUpload
	modeNewFolder
	modeRename
	modeSearch
	modeConfirmDelete
)

// row addresses one listed entry: folders come first, then documents.
type row struct {
	isFolder bool
	id       string
	name     string
}

// Model is the Bubble Tea model for the document manager view.
type Model struct {
	theme  *styles.Theme
	syncer *docs.Syncer

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	mode   mode
	cursor int

	// renameTarget is the folder being renamed in modeRename.
	renameTarget string

	// confirmName labels the folder in the force-delete dialog.
	confirmName string

	busy      bool
	statusMsg string

	width  int
	height int
}

// New creates the document manager view.
func New(theme *styles.Theme, syncer *docs.Syncer) Model {
	input := textinput.New()
	input.CharLimit = 1024

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return Model{
		theme:    theme,
		syncer:   syncer,
		viewport: viewport.New(0, 0),
		input:    input,
		spinner:  sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, refreshCmd(m.syncer))
}

// SetSize updates the layout dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 4
	m.input.Width = width - 16
	m.refreshListing()
}

// rows flattens the current view (or search overlay) into selectable rows.
func (m *Model) rows() []row {
	if overlay := m.syncer.Search(); overlay != nil {
		out := make([]row, 0, len(overlay.Folders)+len(overlay.Documents))
		for _, f := range overlay.Folders {
			out = append(out, row{isFolder: true, id: f.ID, name: f.Name})
		}
		for _, d := range overlay.Documents {
			out = append(out, row{id: d.ID, name: d.FileName})
		}
		return out
	}

	view := m.syncer.View()
	out := make([]row, 0, len(view.Folders)+len(view.Documents))
	for _, f := range view.Folders {
		out = append(out, row{isFolder: true, id: f.ID, name: f.Name})
	}
	for _, d := range view.Documents {
		out = append(out, row{id: d.ID, name: d.FileName})
	}
	return out
}

// selectedRow returns the row under the cursor.
func (m *Model) selectedRow() (row, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return row{}, false
	}
	return rows[m.cursor], true
}

// clampCursor keeps the cursor inside the listing after refreshes.
func (m *Model) clampCursor() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
