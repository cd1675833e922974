// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/techiesflock/samadhan-tui/internal/util"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		// The optimistic user insert happens on the command goroutine right
		// after dispatch; picking it up on spinner ticks shows it without a
		// dedicated message.
		if m.turns.Busy() {
			m.refreshTranscript()
			m.viewport.GotoBottom()
		}
		return m, cmd

	case TurnDoneMsg:
		m.statusMsg = ""
		m.refreshTranscript()
		m.viewport.GotoBottom()
		// A fresh chat's first turn minted a session; the sidebar will pick
		// it up on the next poll, but refresh eagerly for snappier feedback.
		return m, m.poller.RefreshCmd()

	case SessionLoadedMsg:
		if msg.Err != nil {
			m.statusMsg = msg.Err.Error()
			return m, nil
		}
		m.focus = focusInput
		m.input.Focus()
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case SessionDeletedMsg:
		if msg.Err != nil {
			m.statusMsg = msg.Err.Error()
			return m, nil
		}
		// Deleting the active session falls back to a fresh chat
		if m.turns.SessionID() == msg.ID {
			m.turns.NewChat()
			m.refreshTranscript()
		}
		return m, m.poller.RefreshCmd()

	case HistoryClearedMsg:
		if msg.Err != nil {
			m.statusMsg = msg.Err.Error()
		}
		m.refreshTranscript()
		return m, nil

	case attachmentOpenedMsg:
		m.focus = focusInput
		m.input.Focus()
		if msg.err != nil {
			m.statusMsg = msg.err.Error()
			return m, nil
		}
		m.pendingAttachment = msg.upload
		m.statusMsg = "attached " + msg.upload.Name + " (" + util.FormatBytes(int64(len(msg.upload.Data))) + ")"
		return m, nil
	}

	return m.updateFocused(msg)
}

// handleKey routes a keystroke by the focused pane.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.focus {
	case focusSessions:
		return m.handleSessionsKey(msg)
	case focusSuggested:
		return m.handleSuggestedKey(msg)
	case focusAttach:
		return m.handleAttachKey(msg)
	case focusEdit:
		return m.handleEditKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	keys := m.keyMap
	switch {
	case key.Matches(msg, keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.turns.Busy() {
			return m, nil
		}
		attachment := m.pendingAttachment
		m.pendingAttachment = nil
		m.input.SetValue("")
		m.statusMsg = ""
		m.refreshTranscriptSoon()
		return m, sendCmd(m.turns, text, attachment)

	case key.Matches(msg, keys.NewChat):
		if m.turns.Busy() {
			return m, nil
		}
		m.turns.NewChat()
		m.pendingAttachment = nil
		m.statusMsg = ""
		m.refreshTranscript()
		return m, nil

	case key.Matches(msg, keys.ClearChat):
		if m.turns.Busy() {
			return m, nil
		}
		return m, clearHistoryCmd(m.turns)

	case key.Matches(msg, keys.NextModel):
		m.cycleModel()
		return m, nil

	case key.Matches(msg, keys.Attach):
		m.focus = focusAttach
		m.input.Blur()
		m.attach.SetValue("")
		m.attach.Focus()
		return m, nil

	case key.Matches(msg, keys.EditLast):
		idx := m.lastUser()
		if idx < 0 || m.turns.Busy() {
			return m, nil
		}
		m.editIndex = idx
		m.edit.SetValue(m.turns.Messages()[idx].Content)
		m.edit.CursorEnd()
		m.focus = focusEdit
		m.input.Blur()
		m.edit.Focus()
		return m, nil

	case key.Matches(msg, keys.Regenerate):
		idx := m.lastAssistant()
		if idx < 0 || m.turns.Busy() {
			return m, nil
		}
		m.refreshTranscriptSoon()
		return m, regenerateCmd(m.turns, idx)

	case key.Matches(msg, keys.Suggested):
		if idx := m.lastAssistant(); idx >= 0 && len(m.turns.Messages()[idx].SuggestedQuestions) > 0 {
			m.focus = focusSuggested
			m.suggestedCursor = 0
			m.input.Blur()
		}
		return m, nil

	case key.Matches(msg, keys.Sessions):
		m.showSidebar = !m.showSidebar
		if m.showSidebar {
			m.focus = focusSessions
			m.input.Blur()
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
		m.SetSize(m.width, m.height)
		return m, m.poller.RefreshCmd()

	case key.Matches(msg, keys.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, keys.PageUp):
		m.viewport.ViewUp()
		return m, nil
	case key.Matches(msg, keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSessionsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	keys := m.keyMap
	switch {
	case key.Matches(msg, keys.Cancel), key.Matches(msg, keys.Sessions):
		m.showSidebar = false
		m.focus = focusInput
		m.input.Focus()
		m.SetSize(m.width, m.height)
		return m, nil

	case key.Matches(msg, keys.Up):
		if m.sessionCursor > 0 {
			m.sessionCursor--
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.sessionCursor < len(m.sessions)-1 {
			m.sessionCursor++
		}
		return m, nil

	case key.Matches(msg, keys.Submit):
		if m.sessionCursor < len(m.sessions) {
			return m, loadSessionCmd(m.turns, m.sessions[m.sessionCursor].ID)
		}
		return m, nil

	case key.Matches(msg, keys.NewChat):
		m.turns.NewChat()
		m.showSidebar = false
		m.focus = focusInput
		m.input.Focus()
		m.refreshTranscript()
		m.SetSize(m.width, m.height)
		return m, nil

	case key.Matches(msg, keys.Delete):
		if m.sessionCursor < len(m.sessions) {
			return m, deleteSessionCmd(m.poller, m.sessions[m.sessionCursor].ID)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleSuggestedKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	keys := m.keyMap
	idx := m.lastAssistant()
	if idx < 0 {
		m.focus = focusInput
		m.input.Focus()
		return m, nil
	}
	suggestions := m.turns.Messages()[idx].SuggestedQuestions

	switch {
	case key.Matches(msg, keys.Cancel):
		m.focus = focusInput
		m.input.Focus()
		return m, nil

	case key.Matches(msg, keys.Up):
		if m.suggestedCursor > 0 {
			m.suggestedCursor--
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.suggestedCursor < len(suggestions)-1 {
			m.suggestedCursor++
		}
		return m, nil

	case key.Matches(msg, keys.Submit):
		if m.suggestedCursor >= len(suggestions) || m.turns.Busy() {
			return m, nil
		}
		question := suggestions[m.suggestedCursor]
		m.focus = focusInput
		m.input.Focus()
		m.refreshTranscriptSoon()
		return m, sendCmd(m.turns, question, nil)
	}
	return m, nil
}

func (m Model) handleAttachKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	keys := m.keyMap
	switch {
	case key.Matches(msg, keys.Cancel):
		m.focus = focusInput
		m.attach.Blur()
		m.input.Focus()
		return m, nil

	case key.Matches(msg, keys.Submit):
		path := strings.TrimSpace(m.attach.Value())
		m.attach.Blur()
		if path == "" {
			m.focus = focusInput
			m.input.Focus()
			return m, nil
		}
		return m, openAttachmentCmd(path)
	}

	var cmd tea.Cmd
	m.attach, cmd = m.attach.Update(msg)
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	keys := m.keyMap
	switch {
	case key.Matches(msg, keys.Cancel):
		m.focus = focusInput
		m.editIndex = -1
		m.edit.Blur()
		m.input.Focus()
		return m, nil

	case key.Matches(msg, keys.Submit):
		text := strings.TrimSpace(m.edit.Value())
		idx := m.editIndex
		m.focus = focusInput
		m.editIndex = -1
		m.edit.Blur()
		m.input.Focus()
		if text == "" || idx < 0 {
			return m, nil
		}
		m.refreshTranscriptSoon()
		return m, editCmd(m.turns, idx, text)
	}

	var cmd tea.Cmd
	m.edit, cmd = m.edit.Update(msg)
	return m, cmd
}

// updateFocused forwards non-key messages to the focused text input.
func (m Model) updateFocused(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusAttach:
		m.attach, cmd = m.attach.Update(msg)
	case focusEdit:
		m.edit, cmd = m.edit.Update(msg)
	default:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// cycleModel advances the persisted model selection through the configured
// list.
func (m *Model) cycleModel() {
	models := m.cfg.Chat.Models
	if len(models) == 0 {
		return
	}
	current := m.store.SelectedModel()
	if current == "" {
		current = m.cfg.Chat.DefaultModel
	}
	next := models[0]
	for i, name := range models {
		if name == current {
			next = models[(i+1)%len(models)]
			break
		}
	}
	m.store.SetSelectedModel(next)
	m.statusMsg = "model: " + next
}

// refreshTranscriptSoon re-renders at dispatch; the optimistic insert lands
// moments later via the spinner tick refresh.
func (m *Model) refreshTranscriptSoon() {
	m.refreshTranscript()
	m.viewport.GotoBottom()
}
