package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"growdash-agent/backend/app/dto"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type DevicesLoadedMsg struct {
	Devices []dto.DeviceView
	Err     error
}

type DeviceRegisteredMsg struct {
	Device dto.RegisterDeviceResponse
	Err    error
}

type DeviceSelectedMsg struct {
	Device dto.DeviceView
}

type DashboardModel struct {
	Session *Session
	Table   table.Model
	Devices []dto.DeviceView
	NameIn  textinput.Model
	Naming  bool
	Notice  string
	Err     error
}

func NewDashboardModel(s *Session, width, height int) DashboardModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Device ID", Width: 38},
			{Title: "Name", Width: 20},
			{Title: "Status", Width: 8},
			{Title: "Last Seen", Width: 20},
		}),
		table.WithFocused(true),
		table.WithHeight(max(height-10, 5)),
	)
	t.SetStyles(tableStyles())

	in := textinput.New()
	in.Prompt = "Name: "
	in.Placeholder = "tent-01"
	in.CharLimit = 64

	return DashboardModel{Session: s, Table: t, NameIn: in}
}

func (m DashboardModel) Init() tea.Cmd {
	return loadDevices(m.Session)
}

func loadDevices(s *Session) tea.Cmd {
	return func() tea.Msg {
		devices, err := s.Devices(context.Background())
		return DevicesLoadedMsg{Devices: devices, Err: err}
	}
}

func deviceRows(devices []dto.DeviceView) []table.Row {
	rows := make([]table.Row, 0, len(devices))
	for _, d := range devices {
		seen := "never"
		if d.LastSeenAt != nil {
			seen = d.LastSeenAt.Local().Format(time.DateTime)
		}
		rows = append(rows, table.Row{d.DeviceID, d.Name, d.Status, seen})
	}
	return rows
}

func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case DevicesLoadedMsg:
		m.Err = msg.Err
		if msg.Err == nil {
			m.Devices = msg.Devices
			m.Table.SetRows(deviceRows(msg.Devices))
		}
		return m, nil

	case DeviceRegisteredMsg:
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.Notice = fmt.Sprintf("Registered %s: id %s token %s (shown once)", msg.Device.Name, msg.Device.DeviceID, msg.Device.DeviceToken)
		return m, loadDevices(m.Session)

	case tea.KeyMsg:
		if m.Naming {
			return m.updateNaming(msg)
		}
		switch msg.String() {
		case "r":
			m.Notice = ""
			return m, loadDevices(m.Session)
		case "n":
			m.Naming = true
			m.NameIn.SetValue("")
			return m, m.NameIn.Focus()
		case "enter":
			i := m.Table.Cursor()
			if i >= 0 && i < len(m.Devices) {
				d := m.Devices[i]
				return m, func() tea.Msg { return DeviceSelectedMsg{Device: d} }
			}
			return m, nil
		case "q":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m DashboardModel) updateNaming(msg tea.KeyMsg) (DashboardModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Naming = false
		m.NameIn.Blur()
		return m, nil
	case tea.KeyEnter:
		name := strings.TrimSpace(m.NameIn.Value())
		if name == "" {
			return m, nil
		}
		m.Naming = false
		m.NameIn.Blur()
		s := m.Session
		return m, func() tea.Msg {
			d, err := s.RegisterDevice(context.Background(), name)
			return DeviceRegisteredMsg{Device: d, Err: err}
		}
	}
	var cmd tea.Cmd
	m.NameIn, cmd = m.NameIn.Update(msg)
	return m, cmd
}

func (m DashboardModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("GrowDash - Devices") + "\n\n")
	b.WriteString(m.Table.View() + "\n\n")
	if m.Naming {
		b.WriteString(m.NameIn.View() + "\n")
		b.WriteString(helpStyle("Enter to register, Esc to cancel"))
	} else {
		b.WriteString(helpStyle("Enter to open, 'n' new device, 'r' refresh, 'q' quit"))
	}
	if m.Notice != "" {
		b.WriteString("\n" + statusMessageStyle(m.Notice))
	}
	if m.Err != nil {
		b.WriteString("\n" + errorMessageStyle(m.Err.Error()))
	}
	return docStyle.Render(b.String())
}
