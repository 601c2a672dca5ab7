package ui

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

	"growdash-agent/backend/app/dto"
)

// ErrNotLoggedIn is returned by admin calls made before Login succeeded.
var ErrNotLoggedIn = errors.New("console: not logged in")

// APIError carries the backend's failure body.
type APIError struct {
	Code    int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for k, v := range e.Fields {
			parts = append(parts, k+": "+strings.Join(v, ", "))
		}
		return fmt.Sprintf("http %d: %s", e.Code, strings.Join(parts, "; "))
	}
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

// Session talks to the admin API with a bearer token obtained from /login.
type Session struct {
	BaseURL string
	Token   string
	client  *http.Client
}

func NewSession(baseURL string) *Session {
	return &Session{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Session) Login(ctx context.Context, username, password string) error {
	var resp dto.TokenResponse
	if err := s.do(ctx, http.MethodPost, "/login", dto.LoginRequest{Username: username, Password: password}, &resp, false); err != nil {
		return err
	}
	if resp.AccessToken == "" {
		return errors.New("login response has no access token")
	}
	s.Token = resp.AccessToken
	return nil
}

func (s *Session) Devices(ctx context.Context) ([]dto.DeviceView, error) {
	var resp struct {
		Devices []dto.DeviceView `json:"devices"`
	}
	if err := s.do(ctx, http.MethodGet, "/admin/devices", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// RegisterDevice returns the new device id and its one-time token.
func (s *Session) RegisterDevice(ctx context.Context, name string) (dto.RegisterDeviceResponse, error) {
	var resp dto.RegisterDeviceResponse
	err := s.do(ctx, http.MethodPost, "/admin/devices", dto.RegisterDeviceRequest{Name: name}, &resp, true)
	return resp, err
}

func (s *Session) History(ctx context.Context, deviceID string, limit int) ([]dto.CommandView, error) {
	path := fmt.Sprintf("/admin/devices/%s/commands", url.PathEscape(deviceID))
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var resp dto.HistoryResponse
	if err := s.do(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Commands, nil
}

func (s *Session) Enqueue(ctx context.Context, deviceID, cmdType string, params map[string]any) (dto.CommandView, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return dto.CommandView{}, err
	}
	path := fmt.Sprintf("/admin/devices/%s/commands", url.PathEscape(deviceID))
	var resp dto.EnqueueResponse
	if err := s.do(ctx, http.MethodPost, path, dto.EnqueueRequest{Type: cmdType, Params: raw}, &resp, true); err != nil {
		return dto.CommandView{}, err
	}
	return resp.Command, nil
}

func (s *Session) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	if authed && s.Token == "" {
		return ErrNotLoggedIn
	}
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// decodeAPIError understands both the controller and the middleware error bodies.
func decodeAPIError(code int, raw []byte) error {
	var body struct {
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Errors  map[string][]string `json:"errors"`
	}
	apiErr := &APIError{Code: code}
	if json.Unmarshal(raw, &body) != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		return apiErr
	}
	apiErr.Message = body.Message
	if apiErr.Message == "" {
		apiErr.Message = body.Error
	}
	apiErr.Fields = body.Errors
	return apiErr
}
