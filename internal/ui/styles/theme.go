// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER AND TAB STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	Tab         lipgloss.Style
	TabActive   lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	ErrorBubble     lipgloss.Style
	SourceBadge     lipgloss.Style
	CacheBadge      lipgloss.Style
	Suggested       lipgloss.Style
	SuggestedActive lipgloss.Style
	AttachmentChip  lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// SIDEBAR / SESSION LIST STYLES
	// ==========================================================================

	Sidebar             lipgloss.Style
	SessionItem         lipgloss.Style
	SessionItemSelected lipgloss.Style
	SessionMeta         lipgloss.Style

	// ==========================================================================
	// DOCUMENT MANAGER STYLES
	// ==========================================================================

	Breadcrumbs      lipgloss.Style
	FolderRow        lipgloss.Style
	DocumentRow      lipgloss.Style
	RowSelected      lipgloss.Style
	StatusProcessing lipgloss.Style
	StatusCompleted  lipgloss.Style
	StatusFailed     lipgloss.Style
	StatsBar         lipgloss.Style
	SearchOverlay    lipgloss.Style

	// ==========================================================================
	// DIALOG STYLES
	// ==========================================================================

	ConfirmBox    lipgloss.Style
	ConfirmTitle  lipgloss.Style
	ConfirmDanger lipgloss.Style

	// ==========================================================================
	// LOGIN FORM STYLES
	// ==========================================================================

	LoginBox   lipgloss.Style
	LoginTitle lipgloss.Style
	LoginLabel lipgloss.Style
	LoginError lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Spinner      lipgloss.Style
	ErrorText    lipgloss.Style
	SuccessText  lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// App container
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header and tabs
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 2)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.Tab = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 2)

	t.TabActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Underline(true).
		Padding(0, 2)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(0, 2).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 2).
		MarginRight(4)

	t.ErrorBubble = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Rose).
		BorderLeft(true).
		PaddingLeft(2)

	t.SourceBadge = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.CacheBadge = lipgloss.NewStyle().
		Foreground(Emerald).
		Italic(true)

	t.Suggested = lipgloss.NewStyle().
		Foreground(TextSecondary).
		PaddingLeft(2)

	t.SuggestedActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		PaddingLeft(2)

	t.AttachmentChip = lipgloss.NewStyle().
		Foreground(Cyan).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.InputPrompt = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)

	t.SessionItem = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.SessionItemSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Purple)

	t.SessionMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Document manager
	t.Breadcrumbs = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)

	t.FolderRow = lipgloss.NewStyle().
		Foreground(Cyan)

	t.DocumentRow = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.RowSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Purple)

	t.StatusProcessing = lipgloss.NewStyle().Foreground(Amber)
	t.StatusCompleted = lipgloss.NewStyle().Foreground(Emerald)
	t.StatusFailed = lipgloss.NewStyle().Foreground(Rose)

	t.StatsBar = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(SurfaceDim).
		Padding(0, 1)

	t.SearchOverlay = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(0, 1)

	// Dialogs
	t.ConfirmBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Rose).
		Padding(1, 3)

	t.ConfirmTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.ConfirmDanger = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Rose).
		Padding(0, 1)

	// Login form
	t.LoginBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 4)

	t.LoginTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.LoginLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.LoginError = lipgloss.NewStyle().
		Foreground(Rose)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose)

	t.SuccessText = lipgloss.NewStyle().
		Foreground(Emerald)
}
