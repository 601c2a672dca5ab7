package controllers

import (
	"net/http"
	"strconv"

	"growdash-agent/backend/app/dto"
	"growdash-agent/backend/app/metrics"
	"growdash-agent/backend/app/services"

	"github.com/go-chi/chi/v5"
)

// CommandController is the admin side of the command queue.
type CommandController struct {
	Devices  *services.DeviceService
	Commands *services.CommandService
	Metrics  *metrics.Metrics
}

func NewCommandController(devices *services.DeviceService, commands *services.CommandService, m *metrics.Metrics) *CommandController {
	return &CommandController{Devices: devices, Commands: commands, Metrics: m}
}

// Enqueue handles POST /admin/devices/{device}/commands.
func (c *CommandController) Enqueue(w http.ResponseWriter, r *http.Request) {
	d, err := c.Devices.FindByPublicID(chi.URLParam(r, "device"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req dto.EnqueueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	cmd, err := c.Commands.Enqueue(d, req.Type, req.Params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	c.Metrics.CommandsEnqueued.WithLabelValues(cmd.Type).Inc()
	writeJSON(w, http.StatusCreated, dto.EnqueueResponse{Success: true, Message: "Command queued successfully", Command: commandView(*cmd)})
}

// History handles GET /admin/devices/{device}/commands?limit=N.
func (c *CommandController) History(w http.ResponseWriter, r *http.Request) {
	d, err := c.Devices.FindByPublicID(chi.URLParam(r, "device"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			writeFailure(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}
	cmds, err := c.Commands.History(d, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	views := make([]dto.CommandView, 0, len(cmds))
	for _, cmd := range cmds {
		views = append(views, commandView(cmd))
	}
	writeJSON(w, http.StatusOK, dto.HistoryResponse{Success: true, Commands: views, Count: len(views)})
}
