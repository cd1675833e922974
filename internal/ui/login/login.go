// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login provides the sign-in and registration forms shown until a
// valid token exists.
package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/techiesflock/samadhan-tui/internal/api"
	"github.com/techiesflock/samadhan-tui/internal/ui/styles"
)

// field indexes for focus cycling.
const (
	fieldUsername = iota
	fieldEmail
	fieldPassword
	fieldCount
)

// formMode selects between sign-in and account creation.
type formMode int

const (
	modeLogin formMode = iota
	modeRegister
)

// SucceededMsg is emitted when the backend accepts the credentials. The root
// model commits it to the store and switches views.
type SucceededMsg struct {
	Result *api.LoginResult
}

// failedMsg carries a rejected submission back to the form.
type failedMsg struct {
	err error
}

// Model is the Bubble Tea model for the login form.
type Model struct {
	theme  *styles.Theme
	client *api.Client

	inputs  [fieldCount]textinput.Model
	focused int
	mode    formMode

	submitting bool
	errText    string

	width  int
	height int
}

// New creates the login form.
func New(theme *styles.Theme, client *api.Client) Model {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 120

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 120
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 120
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return Model{
		theme:   theme,
		client:  client,
		inputs:  [fieldCount]textinput.Model{username, email, password},
		focused: fieldEmail,
	}
}

// Reset clears the form for a fresh login after logout or token expiry.
func (m *Model) Reset(notice string) {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	m.mode = modeLogin
	m.focused = fieldEmail
	m.inputs[fieldEmail].Focus()
	m.submitting = false
	m.errText = notice
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize updates the layout dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	for i := range m.inputs {
		m.inputs[i].Width = 36
	}
}

// firstField is the top of the focus cycle for the active mode.
func (m Model) firstField() int {
	if m.mode == modeRegister {
		return fieldUsername
	}
	return fieldEmail
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			return m.cycleFocus(1), nil
		case "shift+tab", "up":
			return m.cycleFocus(-1), nil

		case "ctrl+r":
			if m.mode == modeLogin {
				m.mode = modeRegister
			} else {
				m.mode = modeLogin
			}
			m.errText = ""
			m.inputs[m.focused].Blur()
			m.focused = m.firstField()
			m.inputs[m.focused].Focus()
			return m, nil

		case "enter":
			return m.submit()
		}

	case failedMsg:
		m.submitting = false
		m.errText = msg.err.Error()
		m.inputs[fieldPassword].SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

// cycleFocus moves focus through the fields visible in the active mode.
func (m Model) cycleFocus(dir int) Model {
	first := m.firstField()
	span := fieldCount - first

	m.inputs[m.focused].Blur()
	m.focused = first + ((m.focused-first+dir)+span)%span
	m.inputs[m.focused].Focus()
	return m
}

func (m Model) submit() (Model, tea.Cmd) {
	username := strings.TrimSpace(m.inputs[fieldUsername].Value())
	email := strings.TrimSpace(m.inputs[fieldEmail].Value())
	password := m.inputs[fieldPassword].Value()

	if email == "" || password == "" {
		m.errText = "email and password are required"
		return m, nil
	}
	if m.mode == modeRegister && username == "" {
		m.errText = "username is required"
		return m, nil
	}

	m.submitting = true
	m.errText = ""
	client := m.client
	register := m.mode == modeRegister
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultConfig().Timeout)
		defer cancel()

		var (
			result *api.LoginResult
			err    error
		)
		if register {
			result, err = client.Register(ctx, username, email, password)
		} else {
			result, err = client.Login(ctx, email, password)
		}
		if err != nil {
			return failedMsg{err: err}
		}
		return SucceededMsg{Result: result}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	t := m.theme

	var b strings.Builder
	b.WriteString(t.LoginTitle.Render("Samadhan"))
	b.WriteString("\n")
	if m.mode == modeRegister {
		b.WriteString(t.LoginLabel.Render("Create your account"))
	} else {
		b.WriteString(t.LoginLabel.Render("Sign in to your knowledge base"))
	}
	b.WriteString("\n\n")

	if m.mode == modeRegister {
		b.WriteString(t.LoginLabel.Render("Username"))
		b.WriteString("\n")
		b.WriteString(m.inputs[fieldUsername].View())
		b.WriteString("\n\n")
	}

	b.WriteString(t.LoginLabel.Render("Email"))
	b.WriteString("\n")
	b.WriteString(m.inputs[fieldEmail].View())
	b.WriteString("\n\n")

	b.WriteString(t.LoginLabel.Render("Password"))
	b.WriteString("\n")
	b.WriteString(m.inputs[fieldPassword].View())
	b.WriteString("\n")

	if m.submitting {
		b.WriteString("\n")
		b.WriteString(t.LoginLabel.Render("Signing in..."))
	} else if m.errText != "" {
		b.WriteString("\n")
		b.WriteString(t.LoginError.Render(m.errText))
	}

	toggle := " create account  "
	if m.mode == modeRegister {
		toggle = " sign in instead  "
	}

	b.WriteString("\n\n")
	b.WriteString(t.ShortcutKey.Render("Enter"))
	b.WriteString(t.ShortcutDesc.Render(" submit  "))
	b.WriteString(t.ShortcutKey.Render("Ctrl+R"))
	b.WriteString(t.ShortcutDesc.Render(toggle))
	b.WriteString(t.ShortcutKey.Render("Ctrl+C"))
	b.WriteString(t.ShortcutDesc.Render(" quit"))

	box := t.LoginBox.Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
