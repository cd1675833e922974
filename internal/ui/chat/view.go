// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/techiesflock/samadhan-tui/internal/model"
	"github.com/techiesflock/samadhan-tui/internal/util"
)

const sidebarWidth = 28

// refreshTranscript re-renders the transcript into the viewport.
func (m *Model) refreshTranscript() {
	msgs := m.turns.Messages()
	if len(msgs) == 0 {
		m.viewport.SetContent(m.emptyState())
		return
	}

	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	bubbleWidth := width - 8

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg, bubbleWidth))
		b.WriteString("\n")
	}

	if m.turns.Busy() {
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString(m.theme.SourceBadge.Render(" thinking..."))
	}

	m.viewport.SetContent(b.String())
}

// renderMessage renders one transcript entry.
func (m *Model) renderMessage(msg model.Message, width int) string {
	t := m.theme

	if msg.IsError {
		return t.ErrorBubble.Width(width).Render(msg.Content)
	}

	if msg.Role == model.RoleUser {
		body := msg.Content
		if msg.Attachment != nil {
			chip := t.AttachmentChip.Render(fmt.Sprintf("%s %s",
				msg.Attachment.Name, util.FormatBytes(msg.Attachment.Size)))
			body = body + "\n" + chip
		}
		return t.UserBubble.MaxWidth(width).Render(body)
	}

	body := m.renderMarkdown(msg.Content, width-4)
	bubble := t.AssistantBubble.MaxWidth(width).Render(body)

	var footer []string
	if m.cfg.UI.ShowSources && msg.ResponseSource != "" {
		footer = append(footer, t.SourceBadge.Render(msg.ResponseSource.DisplayName()))
	}
	if msg.FromCache {
		footer = append(footer, t.CacheBadge.Render(fmt.Sprintf("cached %.0f%%", msg.CacheSimilarity*100)))
	}
	if len(footer) > 0 {
		bubble += "\n" + strings.Join(footer, "  ")
	}

	if len(msg.SuggestedQuestions) > 0 {
		bubble += "\n" + m.renderSuggestions(msg.SuggestedQuestions)
	}
	return bubble
}

// renderSuggestions renders follow-up prompts, highlighting the cursor while
// the suggestion picker has focus.
func (m *Model) renderSuggestions(suggestions []string) string {
	t := m.theme
	var b strings.Builder
	b.WriteString(t.SourceBadge.Render("follow-ups:"))
	for i, q := range suggestions {
		b.WriteString("\n")
		line := "• " + util.TruncateWidth(q, m.viewport.Width-8)
		if m.focus == focusSuggested && i == m.suggestedCursor {
			b.WriteString(t.SuggestedActive.Render(line))
		} else {
			b.WriteString(t.Suggested.Render(line))
		}
	}
	return b.String()
}

// renderMarkdown renders assistant markdown through glamour, degrading to
// plain text when rendering fails.
func (m *Model) renderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}
	style := "dark"
	if !m.theme.IsDark {
		style = "light"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// emptyState fills the viewport before the first turn.
func (m *Model) emptyState() string {
	t := m.theme
	lines := []string{
		t.HeaderBrand.Render("Samadhan"),
		"",
		t.SourceBadge.Render("Ask a question about your documents."),
		"",
		t.ShortcutKey.Render("C-b") + t.ShortcutDesc.Render(" sessions  ") +
			t.ShortcutKey.Render("C-n") + t.ShortcutDesc.Render(" new chat  ") +
			t.ShortcutKey.Render("C-a") + t.ShortcutDesc.Render(" attach  ") +
			t.ShortcutKey.Render("C-o") + t.ShortcutDesc.Render(" model"),
	}
	return strings.Join(lines, "\n")
}

// View implements tea.Model.
func (m Model) View() string {
	t := m.theme

	content := m.viewport.View() + "\n" + m.renderInputArea() + "\n" + m.renderStatusBar()

	if m.showSidebar {
		sidebar := m.renderSidebar()
		content = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", content)
	}

	return t.App.Render(content)
}

// renderInputArea renders the input row for the current focus mode.
func (m Model) renderInputArea() string {
	t := m.theme
	switch m.focus {
	case focusAttach:
		return t.InputContainer.Width(m.viewport.Width).Render(
			t.InputPrompt.Render("attach ") + m.attach.View())
	case focusEdit:
		return t.InputContainer.Width(m.viewport.Width).Render(
			t.InputPrompt.Render("edit ") + m.edit.View())
	default:
		prompt := t.InputPrompt.Render("> ")
		if m.pendingAttachment != nil {
			prompt = t.AttachmentChip.Render(m.pendingAttachment.Name) + " " + prompt
		}
		return t.InputContainer.Width(m.viewport.Width).Render(prompt + m.input.View())
	}
}

// renderStatusBar renders the bottom status line.
func (m Model) renderStatusBar() string {
	t := m.theme

	modelName := m.store.SelectedModel()
	if modelName == "" {
		modelName = m.cfg.Chat.DefaultModel
	}

	left := t.ShortcutKey.Render(modelName)
	if m.turns.Busy() {
		left += t.ShortcutDesc.Render("  working")
	}
	if m.statusMsg != "" {
		left += "  " + t.ShortcutDesc.Render(util.TruncateWidth(m.statusMsg, m.viewport.Width/2))
	}
	return t.StatusBar.Width(m.viewport.Width).Render(left)
}

// renderSidebar renders the session list pane.
func (m Model) renderSidebar() string {
	t := m.theme
	var b strings.Builder
	b.WriteString(t.HeaderBrand.Render("Sessions"))
	b.WriteString("\n\n")

	if len(m.sessions) == 0 {
		b.WriteString(t.SessionMeta.Render("no sessions yet"))
	}

	active := m.turns.SessionID()
	for i, s := range m.sessions {
		title := util.TruncateWidth(s.Title(), sidebarWidth-4)
		marker := "  "
		if s.ID == active {
			marker = "* "
		}
		line := marker + title
		if i == m.sessionCursor && m.focus == focusSessions {
			b.WriteString(t.SessionItemSelected.Render(line))
		} else {
			b.WriteString(t.SessionItem.Render(line))
		}
		b.WriteString("\n")
		b.WriteString(t.SessionMeta.Render("  " + util.FormatRelativeTime(s.UpdatedAt)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(t.ShortcutKey.Render("Enter"))
	b.WriteString(t.ShortcutDesc.Render(" open\n"))
	b.WriteString(t.ShortcutKey.Render("C-d"))
	b.WriteString(t.ShortcutDesc.Render(" delete\n"))
	b.WriteString(t.ShortcutKey.Render("Esc"))
	b.WriteString(t.ShortcutDesc.Render(" close"))

	return t.Sidebar.Width(sidebarWidth).Height(m.viewport.Height + 2).Render(b.String())
}
