package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"growdash-agent/backend/app/dto"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const historyLimit = 50

// BackToDashboardMsg signals transition back to dashboard.
type BackToDashboardMsg struct{}

type HistoryLoadedMsg struct {
	Commands []dto.CommandView
	Err      error
}

const (
	FocusHistory = iota
	FocusCommand
)

type DeviceDetailModel struct {
	Session *Session
	Device  dto.DeviceView
	Width   int
	Height  int

	History  table.Model
	Commands []dto.CommandView

	Form       CommandFormModel
	CommandLog viewport.Model
	LogContent string

	Focus int
}

func NewDeviceDetailModel(s *Session, device dto.DeviceView, width, height int) DeviceDetailModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "Type", Width: 14},
			{Title: "Status", Width: 10},
			{Title: "Result", Width: 30},
		}),
		table.WithFocused(true),
		table.WithHeight(max(height-16, 5)),
	)
	t.SetStyles(tableStyles())

	vp := viewport.New(max(width-6, 20), 5)

	return DeviceDetailModel{
		Session:    s,
		Device:     device,
		Width:      width,
		Height:     height,
		History:    t,
		Form:       NewCommandFormModel(device.DeviceID, s, max(width/2-6, 30), max(height-16, 10)),
		CommandLog: vp,
	}
}

func (m DeviceDetailModel) Init() tea.Cmd {
	return loadHistory(m.Session, m.Device.DeviceID)
}

func loadHistory(s *Session, deviceID string) tea.Cmd {
	return func() tea.Msg {
		cmds, err := s.History(context.Background(), deviceID, historyLimit)
		return HistoryLoadedMsg{Commands: cmds, Err: err}
	}
}

func historyRows(cmds []dto.CommandView) []table.Row {
	rows := make([]table.Row, 0, len(cmds))
	for _, c := range cmds {
		result := ""
		if c.ResultMessage != nil {
			result = strings.ReplaceAll(*c.ResultMessage, "\n", " ")
		}
		rows = append(rows, table.Row{strconv.FormatUint(uint64(c.ID), 10), c.Type, c.Status, result})
	}
	return rows
}

func (m *DeviceDetailModel) logf(format string, args ...any) {
	line := time.Now().Format(time.TimeOnly) + " " + fmt.Sprintf(format, args...)
	m.LogContent += line + "\n"
	m.CommandLog.SetContent(m.LogContent)
	m.CommandLog.GotoBottom()
}

func (m DeviceDetailModel) Update(msg tea.Msg) (DeviceDetailModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case HistoryLoadedMsg:
		if msg.Err != nil {
			m.logf("history: %v", msg.Err)
			return m, nil
		}
		m.Commands = msg.Commands
		m.History.SetRows(historyRows(msg.Commands))
		return m, nil

	case CommandQueuedMsg:
		if msg.Err != nil {
			m.logf("queue %s: %v", msg.Type, msg.Err)
			return m, nil
		}
		m.logf("queued %s as #%d", msg.Type, msg.ID)
		return m, loadHistory(m.Session, m.Device.DeviceID)

	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			if m.Focus == FocusHistory || m.Form.State == StateSelecting {
				m.toggleFocus()
				return m, nil
			}
		case "esc":
			if m.Focus == FocusHistory || m.Form.State == StateSelecting {
				return m, func() tea.Msg { return BackToDashboardMsg{} }
			}
		case "r":
			if m.Focus == FocusHistory {
				return m, loadHistory(m.Session, m.Device.DeviceID)
			}
		case "enter":
			if m.Focus == FocusHistory {
				m.showSelected()
				return m, nil
			}
		}
	}

	if m.Focus == FocusCommand {
		m.Form, cmd = m.Form.Update(msg)
		return m, cmd
	}
	m.History, cmd = m.History.Update(msg)
	return m, cmd
}

func (m *DeviceDetailModel) toggleFocus() {
	if m.Focus == FocusHistory {
		m.Focus = FocusCommand
		m.History.Blur()
		return
	}
	m.Focus = FocusHistory
	m.History.Focus()
}

func (m *DeviceDetailModel) showSelected() {
	i := m.History.Cursor()
	if i < 0 || i >= len(m.Commands) {
		return
	}
	c := m.Commands[i]
	result := "-"
	if c.ResultMessage != nil {
		result = *c.ResultMessage
	}
	m.logf("#%d %s %s params=%s result=%s", c.ID, c.Type, commandStatusStyle(c.Status).Render(c.Status), string(c.Params), result)
}

func (m DeviceDetailModel) View() string {
	header := titleStyle.Render(fmt.Sprintf("Device %s (%s) - %s", m.Device.Name, m.Device.DeviceID, m.Device.Status))

	left, right := paneStyle, paneStyle
	if m.Focus == FocusHistory {
		left = activePaneStyle
	} else {
		right = activePaneStyle
	}
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		left.Render(m.History.View()),
		right.Render(m.Form.View()))

	logPane := paneStyle.Render(m.CommandLog.View())
	help := helpStyle("Tab switch pane, Enter details/select, 'r' refresh, Esc back")
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, panes, logPane, help))
}
