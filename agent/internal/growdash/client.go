// Package growdash is the agent side of the GrowDash device API.
package growdash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"growdash-agent/agent/internal/command"
	"growdash-agent/agent/internal/logger"
)

const (
	pendingPath   = "/api/growdash/agent/commands/pending"
	resultPath    = "/api/growdash/agent/commands/%s/result"
	heartbeatPath = "/api/growdash/agent/heartbeat"

	// MaxResultMessage is the longest result_message the backend accepts.
	MaxResultMessage = 1000

	maxErrorBody = 512
)

var ErrUnauthorized = errors.New("growdash: device credentials rejected")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("growdash: http %d", e.Code)
	}
	return fmt.Sprintf("growdash: http %d: %s", e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && (e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden)
}

// Client authenticates every request with the device id and token headers.
type Client struct {
	baseURL  string
	deviceID string
	token    string
	client   *http.Client
}

// NewClient constructs a client. A zero timeout leaves requests unbounded.
func NewClient(baseURL, deviceID, token string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("growdash: empty base url")
	}
	if deviceID == "" || token == "" {
		return nil, errors.New("growdash: missing device credentials")
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		deviceID: deviceID,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type pendingResponse struct {
	Commands *[]command.Command `json:"commands"`
}

// PendingCommands fetches every command queued for this device, in backend order.
func (c *Client) PendingCommands(ctx context.Context) ([]command.Command, error) {
	var resp pendingResponse
	if _, _, err := c.doJSON(ctx, http.MethodGet, pendingPath, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch pending commands: %w", err)
	}
	if resp.Commands == nil {
		return nil, errors.New("fetch pending commands: response has no commands field")
	}
	return *resp.Commands, nil
}

type resultRequest struct {
	Status        command.Status `json:"status"`
	ResultMessage string         `json:"result_message"`
}

// Report sends one status update. The backend's answer is logged, never parsed.
func (c *Client) Report(ctx context.Context, id command.ID, status command.Status, message string) error {
	path := fmt.Sprintf(resultPath, url.PathEscape(id.String()))
	body := resultRequest{Status: status, ResultMessage: truncate(message, MaxResultMessage)}
	code, raw, err := c.doJSON(ctx, http.MethodPost, path, body, nil)
	if code != 0 {
		logger.Infof("Result sent: %d - %s", code, strings.TrimSpace(string(raw)))
	}
	if err != nil {
		return fmt.Errorf("report %s for command %s: %w", status, id, err)
	}
	return nil
}

type heartbeatRequest struct {
	LastState any `json:"last_state,omitempty"`
}

// Heartbeat tells the backend the device is online.
func (c *Client) Heartbeat(ctx context.Context, lastState any) error {
	if _, _, err := c.doJSON(ctx, http.MethodPost, heartbeatPath, heartbeatRequest{LastState: lastState}, nil); err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	return nil
}

// doJSON returns the response status (0 when no response arrived) and raw body.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("X-Device-ID", c.deviceID)
	req.Header.Set("X-Device-Token", c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, raw, &StatusError{Code: resp.StatusCode, Body: truncate(strings.TrimSpace(string(raw)), maxErrorBody)}
	}
	if out == nil {
		return resp.StatusCode, raw, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, raw, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
