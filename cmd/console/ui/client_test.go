package ui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"growdash-agent/backend/config"
	"growdash-agent/backend/initialize"
)

func newBackend(t *testing.T) string {
	t.Helper()
	cfg := &config.Config{}
	cfg.DB.Driver = "sqlite"
	cfg.DB.Path = filepath.Join(t.TempDir(), "console.db")
	cfg.JWT.Secret = "console-secret"
	cfg.JWT.Issuer = "growdash"
	cfg.JWT.ExpMin = 5
	cfg.Admin.Username = "admin"
	cfg.Admin.Password = "admin123"

	app, err := initialize.New(cfg)
	if err != nil {
		t.Fatalf("initialize.New: %v", err)
	}
	srv := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})
	return srv.URL
}

func TestSessionAdminFlow(t *testing.T) {
	ctx := context.Background()
	s := NewSession(newBackend(t) + "/")
	if err := s.Login(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	reg, err := s.RegisterDevice(ctx, "tent-01")
	if err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	if reg.DeviceID == "" || reg.DeviceToken == "" {
		t.Fatalf("register response = %+v", reg)
	}

	devices, err := s.Devices(ctx)
	if err != nil {
		t.Fatalf("Devices: %v", err)
	}
	if len(devices) != 1 || devices[0].Name != "tent-01" {
		t.Fatalf("devices = %+v", devices)
	}

	queued, err := s.Enqueue(ctx, reg.DeviceID, "serial_command", map[string]any{"command": "tds"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if queued.ID == 0 || queued.Status != "pending" {
		t.Errorf("queued = %+v", queued)
	}
	if _, err := s.Enqueue(ctx, reg.DeviceID, "light", map[string]any{"state": "off"}); err != nil {
		t.Fatalf("Enqueue light: %v", err)
	}

	history, err := s.History(ctx, reg.DeviceID, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %+v", history)
	}
	if history[0].Type != "serial_command" || string(history[0].Params) != `{"command":"LightOFF"}` {
		t.Errorf("light stored as %s %s", history[0].Type, history[0].Params)
	}
}

func TestSessionErrors(t *testing.T) {
	ctx := context.Background()
	s := NewSession(newBackend(t))

	if _, err := s.Devices(ctx); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Devices before login: %v", err)
	}

	err := s.Login(ctx, "admin", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login err = %v", err)
	}

	if err := s.Login(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	reg, err := s.RegisterDevice(ctx, "tent-02")
	if err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	_, err = s.Enqueue(ctx, reg.DeviceID, "serial_command", map[string]any{})
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusUnprocessableEntity || len(apiErr.Fields) == 0 {
		t.Errorf("enqueue without command err = %v", err)
	}
	_, err = s.History(ctx, "no-such-device", 0)
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		t.Errorf("history for unknown device err = %v", err)
	}
}

func TestDecodeAPIErrorShapes(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"success":false,"message":"Device not found"}`, "http 404: Device not found"},
		{`{"error":"Unauthorized","message":""}`, "http 404: Unauthorized"},
		{`not json`, "http 404: not json"},
		{``, "http 404"},
	}
	for _, tt := range tests {
		if got := decodeAPIError(http.StatusNotFound, []byte(tt.raw)).Error(); got != tt.want {
			t.Errorf("decodeAPIError(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
