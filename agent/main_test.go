package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writeAgentConfig(t *testing.T, baseURL, deviceID, token string) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`
agent:
  backend:
    base_url: %q
  device_id: %q
  device_token: %q
  http_timeout: 2s
  log_path: %q
  serial:
    mode: simulate
    read_timeout: 1s
`, baseURL, deviceID, token, filepath.Join(dir, "agent.log"))
	path := filepath.Join(dir, "agent.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

type resultPost struct {
	Path   string
	Status string
	Msg    string
}

func newBackend(t *testing.T, pendingStatus int, pendingBody string) (*httptest.Server, func() []resultPost) {
	t.Helper()
	var mu sync.Mutex
	var posts []resultPost
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(pendingStatus)
			_, _ = w.Write([]byte(pendingBody))
			return
		}
		var body struct {
			Status        string `json:"status"`
			ResultMessage string `json:"result_message"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		posts = append(posts, resultPost{Path: r.URL.Path, Status: body.Status, Msg: body.ResultMessage})
		mu.Unlock()
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []resultPost {
		mu.Lock()
		defer mu.Unlock()
		return append([]resultPost(nil), posts...)
	}
}

func TestExecuteExitCodes(t *testing.T) {
	failing, _ := newBackend(t, http.StatusInternalServerError, `oops`)
	empty, _ := newBackend(t, http.StatusOK, `{"success":true,"commands":[]}`)

	malformed := filepath.Join(t.TempDir(), "agent.yaml")
	if err := os.WriteFile(malformed, []byte("agent: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"placeholder credentials", []string{"run", "--config", writeAgentConfig(t, empty.URL, "your-device-id-here", "your-agent-token-here")}, exitConfig},
		{"malformed config", []string{"run", "--config", malformed}, exitConfig},
		{"unknown subcommand", []string{"launch"}, exitConfig},
		{"backend error", []string{"run", "--config", writeAgentConfig(t, failing.URL, "dev-1", "tok-1")}, exitBatch},
		{"unreachable backend", []string{"--config", writeAgentConfig(t, "http://127.0.0.1:1", "dev-1", "tok-1")}, exitBatch},
		{"nothing pending", []string{"run", "--config", writeAgentConfig(t, empty.URL, "dev-1", "tok-1")}, exitOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := execute(tt.args); got != tt.want {
				t.Errorf("execute(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestExecuteRunsSerialCommand(t *testing.T) {
	srv, posts := newBackend(t, http.StatusOK,
		`{"success":true,"commands":[{"id":7,"type":"serial_command","params":{"command":"tds"}}]}`)

	if got := execute([]string{"run", "--config", writeAgentConfig(t, srv.URL, "dev-1", "tok-1")}); got != exitOK {
		t.Fatalf("exit code = %d", got)
	}
	want := []resultPost{
		{Path: "/api/growdash/agent/commands/7/result", Status: "executing", Msg: "Sending: tds"},
		{Path: "/api/growdash/agent/commands/7/result", Status: "completed", Msg: "TDS: 850 ppm"},
	}
	got := posts()
	if len(got) != len(want) {
		t.Fatalf("posts = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("post %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestExecuteSend(t *testing.T) {
	cfg := writeAgentConfig(t, "http://127.0.0.1:1", "your-device-id-here", "your-agent-token-here")
	if got := execute([]string{"send", "--config", cfg, "status"}); got != exitOK {
		t.Errorf("send exit code = %d", got)
	}
	if got := execute([]string{"send", "--config", cfg}); got != exitConfig {
		t.Errorf("send without args exit code = %d", got)
	}
}
