package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"growdash-agent/backend/app/dto"
	"growdash-agent/backend/app/services"
	"growdash-agent/backend/global"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Success: false, Message: msg})
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Success: false, Errors: verr})
	case errors.Is(err, services.ErrCommandNotFound):
		writeFailure(w, http.StatusNotFound, "Command not found")
	case errors.Is(err, services.ErrDeviceNotFound):
		writeFailure(w, http.StatusNotFound, "Device not found")
	default:
		global.Logger.Error().Err(err).Msg("request failed")
		writeFailure(w, http.StatusInternalServerError, "Internal error")
	}
}

// decodeJSON treats an empty body as an empty request.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
