// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package documents

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/techiesflock/samadhan-tui/internal/api"
	"github.com/techiesflock/samadhan-tui/internal/docs"
)

const opTimeout = 3 * time.Minute

// OpDoneMsg fires when a syncer operation settles; the listing is read back
// from the syncer.
type OpDoneMsg struct {
	Err error
}

// NeedsConfirmMsg fires when a folder delete hit a non-empty folder and the
// user must choose between cascade and cancel.
type NeedsConfirmMsg struct {
	FolderID string
}

func refreshCmd(syncer *docs.Syncer) tea.Cmd {
	return opCmd(func(ctx context.Context) error { return syncer.Refresh(ctx) })
}

// opCmd runs one syncer call off the UI goroutine.
func opCmd(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return OpDoneMsg{Err: fn(ctx)}
	}
}

// deleteFolderCmd distinguishes the needs-confirmation outcome from plain
// failures.
func deleteFolderCmd(syncer *docs.Syncer, folderID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		err := syncer.DeleteFolder(ctx, folderID)
		if api.IsFolderNotEmpty(err) {
			return NeedsConfirmMsg{FolderID: folderID}
		}
		return OpDoneMsg{Err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case OpDoneMsg:
		m.busy = false
		if msg.Err != nil {
			m.statusMsg = msg.Err.Error()
		} else {
			m.statusMsg = ""
		}
		m.clampCursor()
		m.refreshListing()
		return m, nil

	case NeedsConfirmMsg:
		m.busy = false
		m.mode = modeConfirmDelete
		m.confirmName = m.folderName(msg.FolderID)
		m.refreshListing()
		return m, nil
	}

	if m.mode == modeUpload || m.mode == modeNewFolder || m.mode == modeRename || m.mode == modeSearch {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.mode == modeConfirmDelete {
		return m.handleConfirmKey(msg)
	}
	if m.mode != modeBrowse {
		return m.handlePromptKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		m.refreshListing()
		return m, nil

	case "down":
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}
		m.refreshListing()
		return m, nil

	case "enter":
		if overlay := m.syncer.Search(); overlay != nil {
			// Opening a search hit jumps to it: folders become the scope,
			// documents reveal their folder.
			if r, ok := m.selectedRow(); ok && r.isFolder {
				m.syncer.ClearSearch()
				m.busy = true
				m.cursor = 0
				return m, opCmd(func(ctx context.Context) error { return m.syncer.Enter(ctx, r.id) })
			}
			return m, nil
		}
		if r, ok := m.selectedRow(); ok && r.isFolder {
			m.busy = true
			m.cursor = 0
			return m, opCmd(func(ctx context.Context) error { return m.syncer.Enter(ctx, r.id) })
		}
		return m, nil

	case "backspace", "esc":
		if m.syncer.Search() != nil {
			m.syncer.ClearSearch()
			m.cursor = 0
			m.refreshListing()
			return m, nil
		}
		m.busy = true
		return m, opCmd(m.syncer.Up)

	case "u":
		return m.openPrompt(modeUpload, "path to upload (comma-separate for a batch)"), nil

	case "n":
		return m.openPrompt(modeNewFolder, "new folder name"), nil

	case "r":
		if r, ok := m.selectedRow(); ok && r.isFolder {
			m = m.openPrompt(modeRename, "new name for "+r.name)
			m.renameTarget = r.id
			m.input.SetValue(r.name)
			m.input.CursorEnd()
		}
		return m, nil

	case "/":
		return m.openPrompt(modeSearch, "search folders and documents"), nil

	case "d":
		r, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		m.busy = true
		if r.isFolder {
			return m, deleteFolderCmd(m.syncer, r.id)
		}
		id := r.id
		return m, opCmd(func(ctx context.Context) error { return m.syncer.DeleteDocument(ctx, id) })

	case "i":
		m.busy = true
		m.statusMsg = "reindexing..."
		return m, opCmd(m.syncer.Reindex)

	case "R":
		m.busy = true
		return m, refreshCmd(m.syncer)
	}
	return m, nil
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.input.Blur()
		m.refreshListing()
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = modeBrowse
		m.input.Blur()
		if value == "" {
			m.refreshListing()
			return m, nil
		}

		switch mode {
		case modeUpload:
			paths := splitPaths(value)
			m.busy = true
			m.statusMsg = "uploading..."
			return m, opCmd(func(ctx context.Context) error { return m.syncer.UploadFiles(ctx, paths) })

		case modeNewFolder:
			m.busy = true
			return m, opCmd(func(ctx context.Context) error { return m.syncer.CreateFolder(ctx, value, "") })

		case modeRename:
			target := m.renameTarget
			m.renameTarget = ""
			m.busy = true
			return m, opCmd(func(ctx context.Context) error { return m.syncer.RenameFolder(ctx, target, value, "") })

		case modeSearch:
			m.busy = true
			m.cursor = 0
			return m, opCmd(func(ctx context.Context) error { return m.syncer.RunSearch(ctx, value) })
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeBrowse
		m.busy = true
		return m, opCmd(m.syncer.ConfirmForceDelete)

	case "n", "N", "esc":
		m.mode = modeBrowse
		m.syncer.CancelForceDelete()
		m.refreshListing()
		return m, nil
	}
	return m, nil
}

func (m Model) openPrompt(target mode, placeholder string) Model {
	m.mode = target
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	m.input.Focus()
	return m
}

// folderName resolves a folder id to its display name in the current view.
func (m *Model) folderName(id string) string {
	for _, f := range m.syncer.View().Folders {
		if f.ID == id {
			return f.Name
		}
	}
	return id
}

// splitPaths parses a comma-separated path list.
func splitPaths(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
