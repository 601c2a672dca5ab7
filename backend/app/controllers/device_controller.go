package controllers

import (
	"net/http"
	"strings"

	"growdash-agent/backend/app/dto"
	"growdash-agent/backend/app/models"
	"growdash-agent/backend/app/services"
)

type DeviceController struct{ Devices *services.DeviceService }

func NewDeviceController(devices *services.DeviceService) *DeviceController {
	return &DeviceController{Devices: devices}
}

// Register creates a device; the response carries the token exactly once.
func (c *DeviceController) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Errors: map[string][]string{"name": {"required"}}})
		return
	}
	d, token, err := c.Devices.Register(req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.RegisterDeviceResponse{Success: true, DeviceID: d.PublicID, Name: d.Name, DeviceToken: token})
}

func (c *DeviceController) List(w http.ResponseWriter, r *http.Request) {
	devices, err := c.Devices.ListAll()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]dto.DeviceView, 0, len(devices))
	for _, d := range devices {
		out = append(out, deviceView(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "devices": out})
}

func deviceView(d models.Device) dto.DeviceView {
	v := dto.DeviceView{DeviceID: d.PublicID, Name: d.Name, Status: d.Status, LastSeenAt: d.LastSeenAt}
	if d.LastState != "" {
		v.LastState = []byte(d.LastState)
	}
	return v
}
