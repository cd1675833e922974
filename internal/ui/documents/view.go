// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package documents

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/techiesflock/samadhan-tui/internal/model"
	"github.com/techiesflock/samadhan-tui/internal/util"
)

// refreshListing re-renders the folder listing into the viewport.
func (m *Model) refreshListing() {
	t := m.theme
	var b strings.Builder

	if overlay := m.syncer.Search(); overlay != nil {
		b.WriteString(t.SearchOverlay.Render("results for \"" + overlay.Query + "\""))
		b.WriteString("\n\n")
		m.renderRows(&b, overlay.Folders, overlay.Documents)
		if len(overlay.Folders) == 0 && len(overlay.Documents) == 0 {
			b.WriteString(t.SessionMeta.Render("nothing matched"))
		}
		if len(overlay.AISuggestions) > 0 {
			b.WriteString("\n")
			b.WriteString(t.SourceBadge.Render("related:"))
			for _, s := range overlay.AISuggestions {
				b.WriteString("\n")
				b.WriteString(t.Suggested.Render("• " + util.TruncateWidth(s, m.viewport.Width-4)))
			}
		}
		m.viewport.SetContent(b.String())
		return
	}

	view := m.syncer.View()
	b.WriteString(t.Breadcrumbs.Render(m.renderBreadcrumbs()))
	b.WriteString("\n\n")
	m.renderRows(&b, view.Folders, view.Documents)
	if len(view.Folders) == 0 && len(view.Documents) == 0 {
		b.WriteString(t.SessionMeta.Render("empty folder, press u to upload"))
	}
	m.viewport.SetContent(b.String())
}

// renderBreadcrumbs joins the path from the root to the current scope.
func (m *Model) renderBreadcrumbs() string {
	view := m.syncer.View()
	parts := []string{"Documents"}
	for _, crumb := range view.Breadcrumbs {
		parts = append(parts, crumb.Name)
	}
	return strings.Join(parts, " / ")
}

func (m *Model) renderRows(b *strings.Builder, folders []model.Folder, documents []model.Document) {
	t := m.theme
	i := 0
	width := m.viewport.Width - 4
	if width < 20 {
		width = 20
	}

	for _, f := range folders {
		label := fmt.Sprintf("▸ %s (%d)", f.Name, f.DocumentCount)
		line := util.PadWidth(util.TruncateWidth(label, width), width)
		if i == m.cursor {
			b.WriteString(t.RowSelected.Render(line))
		} else {
			b.WriteString(t.FolderRow.Render(line))
		}
		b.WriteString("\n")
		i++
	}

	for _, d := range documents {
		status := m.renderStatus(d.Status)
		label := util.PadWidth(util.TruncateWidth("  "+d.FileName, width-12), width-12)
		line := label + " " + status
		if i == m.cursor {
			b.WriteString(t.RowSelected.Render(line))
		} else {
			b.WriteString(t.DocumentRow.Render(line))
		}
		b.WriteString("\n")
		i++
	}
}

func (m *Model) renderStatus(status model.DocumentStatus) string {
	t := m.theme
	switch status {
	case model.StatusProcessing:
		return t.StatusProcessing.Render(status.DisplayName())
	case model.StatusFailed:
		return t.StatusFailed.Render(status.DisplayName())
	default:
		return t.StatusCompleted.Render(status.DisplayName())
	}
}

// View implements tea.Model.
func (m Model) View() string {
	t := m.theme

	if m.mode == modeConfirmDelete {
		dialog := t.ConfirmBox.Render(
			t.ConfirmTitle.Render("Delete \""+m.confirmName+"\"?") + "\n\n" +
				"The folder is not empty. Deleting it removes\n" +
				"everything inside, recursively.\n\n" +
				t.ConfirmDanger.Render(" y ") + " delete everything   " +
				t.ShortcutKey.Render("n") + " cancel")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
	}

	var bottom string
	switch m.mode {
	case modeBrowse:
		bottom = m.renderStatusBar()
	default:
		bottom = t.InputContainer.Width(m.viewport.Width).Render(
			t.InputPrompt.Render("> ") + m.input.View())
	}

	return m.viewport.View() + "\n" + bottom
}

// renderStatusBar renders stats and shortcuts.
func (m Model) renderStatusBar() string {
	t := m.theme
	view := m.syncer.View()

	left := t.StatsBar.Render(fmt.Sprintf("%d documents, %d chunks indexed",
		view.Stats.TotalDocuments, view.Stats.TotalChunks))

	var right string
	if m.busy {
		right = m.spinner.View() + " " + m.statusMsg
	} else if m.statusMsg != "" {
		right = t.ErrorText.Render(util.TruncateWidth(m.statusMsg, m.viewport.Width/2))
	} else {
		right = t.ShortcutKey.Render("u") + t.ShortcutDesc.Render(" upload ") +
			t.ShortcutKey.Render("n") + t.ShortcutDesc.Render(" folder ") +
			t.ShortcutKey.Render("r") + t.ShortcutDesc.Render(" rename ") +
			t.ShortcutKey.Render("d") + t.ShortcutDesc.Render(" delete ") +
			t.ShortcutKey.Render("/") + t.ShortcutDesc.Render(" search ") +
			t.ShortcutKey.Render("i") + t.ShortcutDesc.Render(" reindex")
	}

	return left + "  " + right
}
