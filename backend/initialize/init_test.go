package initialize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"growdash-agent/backend/config"
)

type api struct {
	t   *testing.T
	srv *httptest.Server
}

func newAPI(t *testing.T) *api {
	t.Helper()
	cfg := &config.Config{}
	cfg.DB.Driver = "sqlite"
	cfg.DB.Path = filepath.Join(t.TempDir(), "growdash.db")
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Issuer = "growdash"
	cfg.JWT.ExpMin = 5
	cfg.Admin.Username = "admin"
	cfg.Admin.Password = "admin123"

	app, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})
	return &api{t: t, srv: srv}
}

func (a *api) do(method, path string, headers map[string]string, body any, out any) int {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req, _ := http.NewRequest(method, a.srv.URL+path, r)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		a.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			a.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (a *api) login() map[string]string {
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if code := a.do(http.MethodPost, "/login", nil, map[string]string{"username": "admin", "password": "admin123"}, &tok); code != http.StatusOK {
		a.t.Fatalf("login status %d", code)
	}
	return map[string]string{"Authorization": "Bearer " + tok.AccessToken}
}

func TestAgentRoundTrip(t *testing.T) {
	a := newAPI(t)
	admin := a.login()

	var reg struct {
		DeviceID    string `json:"device_id"`
		DeviceToken string `json:"device_token"`
	}
	if code := a.do(http.MethodPost, "/admin/devices", admin, map[string]string{"name": "Tent"}, &reg); code != http.StatusCreated {
		t.Fatalf("register status %d", code)
	}
	device := map[string]string{"X-Device-ID": reg.DeviceID, "X-Device-Token": reg.DeviceToken}

	for _, line := range []string{"tds", "status"} {
		body := map[string]any{"type": "serial_command", "params": map[string]string{"command": line}}
		if code := a.do(http.MethodPost, "/admin/devices/"+reg.DeviceID+"/commands", admin, body, nil); code != http.StatusCreated {
			t.Fatalf("enqueue status %d", code)
		}
	}

	var pending struct {
		Success  bool `json:"success"`
		Commands []struct {
			ID     uint              `json:"id"`
			Type   string            `json:"type"`
			Params map[string]string `json:"params"`
		} `json:"commands"`
	}
	if code := a.do(http.MethodGet, "/api/growdash/agent/commands/pending", device, nil, &pending); code != http.StatusOK {
		t.Fatalf("pending status %d", code)
	}
	if !pending.Success || len(pending.Commands) != 2 || pending.Commands[0].Params["command"] != "tds" {
		t.Fatalf("pending = %+v", pending)
	}

	first := pending.Commands[0].ID
	resultPath := fmt.Sprintf("/api/growdash/agent/commands/%d/result", first)
	if code := a.do(http.MethodPost, resultPath, device, map[string]string{"status": "executing", "result_message": "Sending: tds"}, nil); code != http.StatusOK {
		t.Fatalf("executing status %d", code)
	}
	var res struct {
		Message string `json:"message"`
		Command struct {
			Status      string  `json:"status"`
			CompletedAt *string `json:"completed_at"`
		} `json:"command"`
	}
	if code := a.do(http.MethodPost, resultPath, device, map[string]string{"status": "completed", "result_message": "TDS: 850 ppm"}, &res); code != http.StatusOK {
		t.Fatalf("completed status %d", code)
	}
	if res.Message != "Command status updated" || res.Command.Status != "completed" || res.Command.CompletedAt == nil {
		t.Errorf("result response = %+v", res)
	}

	if code := a.do(http.MethodPost, resultPath, device, map[string]string{"status": "paused"}, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("invalid status accepted with %d", code)
	}
	if code := a.do(http.MethodPost, "/api/growdash/agent/commands/abc/result", device, map[string]string{"status": "failed"}, nil); code != http.StatusNotFound {
		t.Errorf("non-numeric id: %d", code)
	}

	pending.Commands = nil
	a.do(http.MethodGet, "/api/growdash/agent/commands/pending", device, nil, &pending)
	if len(pending.Commands) != 1 || pending.Commands[0].Params["command"] != "status" {
		t.Errorf("pending after report = %+v", pending.Commands)
	}

	var hist struct {
		Count    int `json:"count"`
		Commands []struct {
			Status        string `json:"status"`
			ResultMessage string `json:"result_message"`
		} `json:"commands"`
	}
	a.do(http.MethodGet, "/admin/devices/"+reg.DeviceID+"/commands", admin, nil, &hist)
	if hist.Count != 2 || hist.Commands[1].Status != "completed" || hist.Commands[1].ResultMessage != "TDS: 850 ppm" {
		t.Errorf("history = %+v", hist)
	}
}

func TestAgentAuthAndHeartbeat(t *testing.T) {
	a := newAPI(t)
	admin := a.login()
	var reg struct {
		DeviceID    string `json:"device_id"`
		DeviceToken string `json:"device_token"`
	}
	a.do(http.MethodPost, "/admin/devices", admin, map[string]string{"name": "Tent"}, &reg)

	pending := "/api/growdash/agent/commands/pending"
	if code := a.do(http.MethodGet, pending, nil, nil, nil); code != http.StatusUnauthorized {
		t.Errorf("no headers: %d", code)
	}
	if code := a.do(http.MethodGet, pending, map[string]string{"X-Device-ID": "nope", "X-Device-Token": "x"}, nil, nil); code != http.StatusNotFound {
		t.Errorf("unknown device: %d", code)
	}
	if code := a.do(http.MethodGet, pending, map[string]string{"X-Device-ID": reg.DeviceID, "X-Device-Token": "x"}, nil, nil); code != http.StatusForbidden {
		t.Errorf("bad token: %d", code)
	}

	device := map[string]string{"X-Device-ID": reg.DeviceID, "X-Device-Token": reg.DeviceToken}
	var hb struct {
		Message string `json:"message"`
	}
	body := map[string]any{"last_state": map[string]int{"uptime": 60, "memory": 1024}}
	if code := a.do(http.MethodPost, "/api/growdash/agent/heartbeat", device, body, &hb); code != http.StatusOK || hb.Message != "Heartbeat received" {
		t.Fatalf("heartbeat %d %+v", code, hb)
	}
	if code := a.do(http.MethodPost, "/api/growdash/agent/heartbeat", device, map[string]any{"last_state": "up"}, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("string last_state: %d", code)
	}

	var list struct {
		Devices []struct {
			Status    string          `json:"status"`
			LastState json.RawMessage `json:"last_state"`
		} `json:"devices"`
	}
	a.do(http.MethodGet, "/admin/devices", admin, nil, &list)
	if len(list.Devices) != 1 || list.Devices[0].Status != "online" || !strings.Contains(string(list.Devices[0].LastState), `"uptime":60`) {
		t.Errorf("devices = %+v", list.Devices)
	}
}

func TestAdminRoutesNeedToken(t *testing.T) {
	a := newAPI(t)
	if code := a.do(http.MethodGet, "/admin/devices", nil, nil, nil); code != http.StatusUnauthorized {
		t.Errorf("status = %d", code)
	}
	if code := a.do(http.MethodPost, "/login", nil, map[string]string{"username": "admin", "password": "nope"}, nil); code != http.StatusUnauthorized {
		t.Errorf("bad password: %d", code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)
	if code := a.do(http.MethodGet, "/healthz", nil, nil, nil); code != http.StatusOK {
		t.Errorf("healthz = %d", code)
	}
	resp, err := http.Get(a.srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), `growdash_http_requests_total{code="200",route="/healthz"}`) {
		t.Errorf("metrics missing healthz counter:\n%s", raw)
	}
}
