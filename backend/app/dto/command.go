package dto

import (
	"encoding/json"
	"time"
)

// AgentCommand is the pending-list shape the agent decodes.
type AgentCommand struct {
	ID        uint            `json:"id"`
	Type      string          `json:"type"`
	Params    json.RawMessage `json:"params"`
	CreatedAt time.Time       `json:"created_at"`
}

type PendingResponse struct {
	Success  bool           `json:"success"`
	Commands []AgentCommand `json:"commands"`
}

type ResultRequest struct {
	Status        string  `json:"status"`
	ResultMessage *string `json:"result_message"`
	Output        *string `json:"output"`
	Error         *string `json:"error"`
}

type CommandState struct {
	ID          uint       `json:"id"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
}

type ResultResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Command CommandState `json:"command"`
}

type EnqueueRequest struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params"`
}

type CommandView struct {
	ID            uint            `json:"id"`
	Type          string          `json:"type"`
	Params        json.RawMessage `json:"params"`
	Status        string          `json:"status"`
	ResultMessage *string         `json:"result_message,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

type EnqueueResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Command CommandView `json:"command"`
}

type HistoryResponse struct {
	Success  bool          `json:"success"`
	Commands []CommandView `json:"commands"`
	Count    int           `json:"count"`
}

type ErrorResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}
