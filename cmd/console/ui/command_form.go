package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type FormState int

const (
	StateSelecting FormState = iota
	StateFilling
)

type cmdItem struct {
	title, desc string
	index       int
}

func (i cmdItem) Title() string       { return i.title }
func (i cmdItem) Description() string { return i.desc }
func (i cmdItem) FilterValue() string { return i.title }

// CommandQueuedMsg reports the outcome of an enqueue request.
type CommandQueuedMsg struct {
	Type string
	ID   uint
	Err  error
}

type CommandDef struct {
	Type        string
	Description string
	Fields      []FieldDef
}

type FieldDef struct {
	Name        string
	Placeholder string
	Required    bool
	Numeric     bool
	Default     string
}

var availableCommands = []CommandDef{
	{
		Type:        "serial_command",
		Description: "Send a raw line to the controller",
		Fields: []FieldDef{
			{Name: "command", Placeholder: "e.g. tds, status, Spray 500", Required: true},
		},
	},
	{
		Type:        "spray_pump",
		Description: "Run the spray pump",
		Fields: []FieldDef{
			{Name: "duration_ms", Placeholder: "milliseconds", Numeric: true, Default: "1000"},
		},
	},
	{
		Type:        "fill_valve",
		Description: "Fill the tank by volume or duration",
		Fields: []FieldDef{
			{Name: "target_liters", Placeholder: "liters (wins over duration)", Numeric: true},
			{Name: "duration_ms", Placeholder: "milliseconds", Numeric: true},
		},
	},
	{
		Type:        "valve",
		Description: "Open or close the tab valve",
		Fields: []FieldDef{
			{Name: "state", Placeholder: "on or off", Required: true, Default: "on"},
		},
	},
	{
		Type:        "light",
		Description: "Switch the grow light",
		Fields: []FieldDef{
			{Name: "state", Placeholder: "on or off", Required: true, Default: "on"},
		},
	},
	{
		Type:        "fan",
		Description: "Run the fan",
		Fields: []FieldDef{
			{Name: "duration_ms", Placeholder: "milliseconds", Numeric: true, Default: "5000"},
		},
	},
}

// buildParams turns form values into the params object. Empty optional
// fields are left out and numeric fields are sent as JSON numbers.
func buildParams(def CommandDef, values []string) (map[string]any, error) {
	params := make(map[string]any, len(def.Fields))
	for i, f := range def.Fields {
		v := ""
		if i < len(values) {
			v = strings.TrimSpace(values[i])
		}
		if v == "" {
			if f.Required {
				return nil, fmt.Errorf("%s is required", f.Name)
			}
			continue
		}
		if !f.Numeric {
			params[f.Name] = v
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", f.Name)
		}
		params[f.Name] = n
	}
	return params, nil
}

type CommandFormModel struct {
	DeviceID    string
	Session     *Session
	State       FormState
	List        list.Model
	Inputs      []textinput.Model
	Focused     int
	SelectedCmd int
	Err         error
}

func NewCommandFormModel(deviceID string, session *Session, width, height int) CommandFormModel {
	items := make([]list.Item, 0, len(availableCommands))
	for i, c := range availableCommands {
		items = append(items, cmdItem{title: c.Type, desc: c.Description, index: i})
	}
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Queue Command"
	l.SetShowHelp(false)

	return CommandFormModel{
		DeviceID: deviceID,
		Session:  session,
		State:    StateSelecting,
		List:     l,
	}
}

func (m *CommandFormModel) initInputs() {
	def := availableCommands[m.SelectedCmd]
	m.Inputs = make([]textinput.Model, len(def.Fields))
	for i, f := range def.Fields {
		ti := textinput.New()
		ti.Placeholder = f.Placeholder
		ti.CharLimit = 256
		if f.Default != "" {
			ti.SetValue(f.Default)
		}
		m.Inputs[i] = ti
	}
	m.Focused = 0
	m.Err = nil
	m.updateFocus()
}

func (m CommandFormModel) Update(msg tea.Msg) (CommandFormModel, tea.Cmd) {
	var cmd tea.Cmd

	if m.State == StateSelecting {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
			if it, ok := m.List.SelectedItem().(cmdItem); ok {
				m.SelectedCmd = it.index
				m.State = StateFilling
				m.initInputs()
				return m, textinput.Blink
			}
		}
		m.List, cmd = m.List.Update(msg)
		return m, cmd
	}

	last := len(m.Inputs) + 1
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.State = StateSelecting
			return m, nil
		case "enter":
			switch m.Focused {
			case len(m.Inputs):
				return m.submit()
			case last:
				m.State = StateSelecting
				return m, nil
			}
			m.Focused++
			m.updateFocus()
			return m, nil
		case "tab", "down":
			m.Focused = (m.Focused + 1) % (last + 1)
			m.updateFocus()
			return m, nil
		case "shift+tab", "up":
			m.Focused = (m.Focused + last) % (last + 1)
			m.updateFocus()
			return m, nil
		}
	}
	if m.Focused < len(m.Inputs) {
		m.Inputs[m.Focused], cmd = m.Inputs[m.Focused].Update(msg)
	}
	return m, cmd
}

func (m *CommandFormModel) updateFocus() {
	for i := range m.Inputs {
		if i == m.Focused {
			m.Inputs[i].Focus()
		} else {
			m.Inputs[i].Blur()
		}
	}
}

func (m CommandFormModel) submit() (CommandFormModel, tea.Cmd) {
	def := availableCommands[m.SelectedCmd]
	values := make([]string, len(m.Inputs))
	for i := range m.Inputs {
		values[i] = m.Inputs[i].Value()
	}
	params, err := buildParams(def, values)
	if err != nil {
		m.Err = err
		return m, nil
	}
	m.Err = nil
	m.State = StateSelecting
	session, deviceID := m.Session, m.DeviceID
	return m, func() tea.Msg {
		view, err := session.Enqueue(context.Background(), deviceID, def.Type, params)
		return CommandQueuedMsg{Type: def.Type, ID: view.ID, Err: err}
	}
}

func renderButton(text string, focused bool) string {
	if focused {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("205")).Padding(0, 3).Bold(true).Render(text)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("254")).Background(lipgloss.Color("240")).Padding(0, 3).Render(text)
}

func (m CommandFormModel) View() string {
	if m.State == StateSelecting {
		return m.List.View()
	}

	def := availableCommands[m.SelectedCmd]
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Render("Parameters: " + def.Type))
	b.WriteString("\n\n")
	for i, f := range def.Fields {
		label := f.Name
		if f.Required {
			label += " *"
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
		if i == m.Focused {
			style = style.Foreground(lipgloss.Color("205")).Bold(true)
		}
		b.WriteString(style.Render(label) + "\n" + m.Inputs[i].View() + "\n\n")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		renderButton("Queue", m.Focused == len(m.Inputs)),
		lipgloss.NewStyle().MarginLeft(2).Render(renderButton("Back", m.Focused == len(m.Inputs)+1)))
	b.WriteString(buttons)
	if m.Err != nil {
		b.WriteString("\n\n" + errorMessageStyle(m.Err.Error()))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
