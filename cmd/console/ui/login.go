package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// LoginDoneMsg carries the session that logged in, or the failure.
type LoginDoneMsg struct {
	Session *Session
	Err     error
}

type LoginModel struct {
	Inputs   []textinput.Model
	FocusIdx int
	Err      error
	Busy     bool
}

const (
	inputURL = iota
	inputUsername
	inputPassword
)

func NewLoginModel(baseURL string) LoginModel {
	inputs := make([]textinput.Model, 3)

	inputs[inputURL] = textinput.New()
	inputs[inputURL].Placeholder = "http://127.0.0.1:9400"
	inputs[inputURL].Prompt = "Backend: "
	inputs[inputURL].SetValue(baseURL)
	inputs[inputURL].Focus()

	inputs[inputUsername] = textinput.New()
	inputs[inputUsername].Placeholder = "admin"
	inputs[inputUsername].Prompt = "Username: "

	inputs[inputPassword] = textinput.New()
	inputs[inputPassword].Placeholder = "password"
	inputs[inputPassword].EchoMode = textinput.EchoPassword
	inputs[inputPassword].Prompt = "Password: "

	return LoginModel{Inputs: inputs}
}

func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			if m.FocusIdx == len(m.Inputs)-1 {
				if m.Busy {
					return m, nil
				}
				m.Busy = true
				m.Err = nil
				return m, m.loginCmd()
			}
			m.focus(m.FocusIdx + 1)
			return m, nil
		case tea.KeyTab, tea.KeyDown:
			m.focus(m.FocusIdx + 1)
			return m, nil
		case tea.KeyShiftTab, tea.KeyUp:
			m.focus(m.FocusIdx - 1)
			return m, nil
		}
	case LoginDoneMsg:
		m.Busy = false
		m.Err = msg.Err
		return m, nil
	}

	cmds := make([]tea.Cmd, len(m.Inputs))
	for i := range m.Inputs {
		m.Inputs[i], cmds[i] = m.Inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m *LoginModel) focus(i int) {
	n := len(m.Inputs)
	m.Inputs[m.FocusIdx].Blur()
	m.FocusIdx = (i + n) % n
	m.Inputs[m.FocusIdx].Focus()
}

func (m LoginModel) loginCmd() tea.Cmd {
	baseURL := strings.TrimSpace(m.Inputs[inputURL].Value())
	username := strings.TrimSpace(m.Inputs[inputUsername].Value())
	password := m.Inputs[inputPassword].Value()
	return func() tea.Msg {
		if baseURL == "" || username == "" || password == "" {
			return LoginDoneMsg{Err: errors.New("backend, username and password are required")}
		}
		s := NewSession(baseURL)
		if err := s.Login(context.Background(), username, password); err != nil {
			return LoginDoneMsg{Err: err}
		}
		return LoginDoneMsg{Session: s}
	}
}

func (m LoginModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("GrowDash - Admin Login") + "\n\n")
	for i := range m.Inputs {
		b.WriteString(m.Inputs[i].View())
		if i < len(m.Inputs)-1 {
			b.WriteRune('\n')
		}
	}
	b.WriteString("\n\n")
	if m.Busy {
		b.WriteString(statusMessageStyle("Logging in...") + "\n")
	}
	b.WriteString(helpStyle("Tab to change fields, Enter to submit, Ctrl+C to quit"))
	if m.Err != nil {
		b.WriteString("\n\n" + errorMessageStyle(m.Err.Error()))
	}
	return docStyle.Render(b.String())
}
