package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"growdash-agent/backend/app/dto"
	"growdash-agent/backend/app/metrics"
	"growdash-agent/backend/app/middleware"
	"growdash-agent/backend/app/models"
	"growdash-agent/backend/app/services"

	"github.com/go-chi/chi/v5"
)

// AgentController serves the device-authenticated agent API.
type AgentController struct {
	Devices  *services.DeviceService
	Commands *services.CommandService
	Metrics  *metrics.Metrics
}

func NewAgentController(devices *services.DeviceService, commands *services.CommandService, m *metrics.Metrics) *AgentController {
	return &AgentController{Devices: devices, Commands: commands, Metrics: m}
}

// Pending lists the device's pending commands, oldest first.
func (c *AgentController) Pending(w http.ResponseWriter, r *http.Request) {
	d := middleware.GetDevice(r.Context())
	cmds, err := c.Commands.Pending(d)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]dto.AgentCommand, 0, len(cmds))
	for _, cmd := range cmds {
		out = append(out, dto.AgentCommand{ID: cmd.ID, Type: cmd.Type, Params: rawParams(cmd.Params), CreatedAt: cmd.CreatedAt})
	}
	c.Metrics.CommandsServed.Add(float64(len(out)))
	writeJSON(w, http.StatusOK, dto.PendingResponse{Success: true, Commands: out})
}

func (c *AgentController) Result(w http.ResponseWriter, r *http.Request) {
	d := middleware.GetDevice(r.Context())
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeFailure(w, http.StatusNotFound, "Command not found")
		return
	}
	var req dto.ResultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	cmd, err := c.Commands.ApplyResult(r.Context(), d, uint(id), services.ResultInput{
		Status:        req.Status,
		ResultMessage: req.ResultMessage,
		Output:        req.Output,
		Error:         req.Error,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	c.Metrics.ResultReports.WithLabelValues(cmd.Status).Inc()
	writeJSON(w, http.StatusOK, dto.ResultResponse{
		Success: true,
		Message: "Command status updated",
		Command: dto.CommandState{ID: cmd.ID, Status: cmd.Status, CompletedAt: cmd.CompletedAt},
	})
}

func (c *AgentController) Heartbeat(w http.ResponseWriter, r *http.Request) {
	d := middleware.GetDevice(r.Context())
	var req dto.HeartbeatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.LastState) > 0 && !isObjectOrNull(req.LastState) {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Errors: map[string][]string{"last_state": {"must be an object"}},
		})
		return
	}
	at, err := c.Devices.Heartbeat(d, req.LastState)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	c.Metrics.Heartbeats.Inc()
	writeJSON(w, http.StatusOK, dto.HeartbeatResponse{Success: true, Message: "Heartbeat received", LastSeenAt: at})
}

func rawParams(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(s)
}

func isObjectOrNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return bytes.Equal(raw, []byte("null")) || (len(raw) > 0 && raw[0] == '{')
}

func commandView(cmd models.Command) dto.CommandView {
	return dto.CommandView{
		ID:            cmd.ID,
		Type:          cmd.Type,
		Params:        rawParams(cmd.Params),
		Status:        cmd.Status,
		ResultMessage: cmd.ResultMessage,
		CreatedAt:     cmd.CreatedAt,
		CompletedAt:   cmd.CompletedAt,
	}
}
