package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

type state int

const (
	stateLogin state = iota
	stateDashboard
	stateDeviceDetail
)

type RootModel struct {
	State     state
	Session   *Session
	Login     LoginModel
	Dashboard DashboardModel
	Detail    DeviceDetailModel
	Quitting  bool
	width     int
	height    int
}

func NewRootModel(baseURL string) RootModel {
	return RootModel{
		State: stateLogin,
		Login: NewLoginModel(baseURL),
	}
}

func (m RootModel) Init() tea.Cmd {
	return m.Login.Init()
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		switch m.State {
		case stateDashboard:
			m.Dashboard.Table.SetHeight(max(msg.Height-10, 5))
		case stateDeviceDetail:
			m.Detail.History.SetHeight(max(msg.Height-16, 5))
			m.Detail.CommandLog.Width = max(msg.Width-6, 20)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch m.State {
	case stateLogin:
		if done, ok := msg.(LoginDoneMsg); ok && done.Err == nil {
			m.Session = done.Session
			m.State = stateDashboard
			m.Dashboard = NewDashboardModel(m.Session, m.width, m.height)
			return m, m.Dashboard.Init()
		}
		m.Login, cmd = m.Login.Update(msg)

	case stateDashboard:
		if sel, ok := msg.(DeviceSelectedMsg); ok {
			m.State = stateDeviceDetail
			m.Detail = NewDeviceDetailModel(m.Session, sel.Device, m.width, m.height)
			return m, m.Detail.Init()
		}
		m.Dashboard, cmd = m.Dashboard.Update(msg)

	case stateDeviceDetail:
		if _, ok := msg.(BackToDashboardMsg); ok {
			m.State = stateDashboard
			return m, m.Dashboard.Init()
		}
		m.Detail, cmd = m.Detail.Update(msg)
	}
	return m, cmd
}

func (m RootModel) View() string {
	if m.Quitting {
		return "Bye!\n"
	}
	switch m.State {
	case stateLogin:
		return m.Login.View()
	case stateDashboard:
		return m.Dashboard.View()
	case stateDeviceDetail:
		return m.Detail.View()
	}
	return "Unknown state"
}
