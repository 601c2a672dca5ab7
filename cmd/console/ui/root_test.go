package ui

import (
	"errors"
	"testing"

	"growdash-agent/backend/app/dto"

	tea "github.com/charmbracelet/bubbletea"
)

func update(t *testing.T, m RootModel, msg tea.Msg) RootModel {
	t.Helper()
	next, _ := m.Update(msg)
	rm, ok := next.(RootModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return rm
}

func TestRootNavigation(t *testing.T) {
	m := NewRootModel("http://127.0.0.1:1")
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = update(t, m, LoginDoneMsg{Err: errors.New("http 401: invalid credentials")})
	if m.State != stateLogin || m.Login.Err == nil {
		t.Fatalf("failed login: state = %v err = %v", m.State, m.Login.Err)
	}

	m = update(t, m, LoginDoneMsg{Session: NewSession("http://127.0.0.1:1")})
	if m.State != stateDashboard || m.Session == nil {
		t.Fatalf("state after login = %v", m.State)
	}

	devices := []dto.DeviceView{{DeviceID: "dev-1", Name: "tent", Status: "online"}}
	m = update(t, m, DevicesLoadedMsg{Devices: devices})
	if rows := m.Dashboard.Table.Rows(); len(rows) != 1 || rows[0][3] != "never" {
		t.Fatalf("rows = %v", rows)
	}

	m = update(t, m, DeviceSelectedMsg{Device: devices[0]})
	if m.State != stateDeviceDetail || m.Detail.Device.DeviceID != "dev-1" {
		t.Fatalf("state = %v detail = %+v", m.State, m.Detail.Device)
	}

	msg := "TDS: 850 ppm"
	m = update(t, m, HistoryLoadedMsg{Commands: []dto.CommandView{{ID: 7, Type: "serial_command", Status: "completed", ResultMessage: &msg}}})
	if rows := m.Detail.History.Rows(); len(rows) != 1 || rows[0][0] != "7" || rows[0][3] != msg {
		t.Errorf("history rows = %v", rows)
	}

	m = update(t, m, BackToDashboardMsg{})
	if m.State != stateDashboard {
		t.Errorf("state after back = %v", m.State)
	}
}
