package dto

import (
	"encoding/json"
	"time"
)

type RegisterDeviceRequest struct {
	Name string `json:"name"`
}

// RegisterDeviceResponse is the only place the plaintext agent token appears.
type RegisterDeviceResponse struct {
	Success     bool   `json:"success"`
	DeviceID    string `json:"device_id"`
	Name        string `json:"name"`
	DeviceToken string `json:"device_token"`
}

type DeviceView struct {
	DeviceID   string          `json:"device_id"`
	Name       string          `json:"name"`
	Status     string          `json:"status"`
	LastSeenAt *time.Time      `json:"last_seen_at"`
	LastState  json.RawMessage `json:"last_state,omitempty"`
}

type HeartbeatRequest struct {
	LastState json.RawMessage `json:"last_state"`
}

type HeartbeatResponse struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
