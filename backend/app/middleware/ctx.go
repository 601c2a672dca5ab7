package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	jwtutil "growdash-agent/backend/app/jwt"
	"growdash-agent/backend/app/models"
)

func GetClaims(ctx context.Context) *jwtutil.Claims {
	if c, ok := ctx.Value(ClaimsKey).(*jwtutil.Claims); ok {
		return c
	}
	return nil
}

// GetDevice returns the device authenticated by DeviceAuth.
func GetDevice(ctx context.Context) *models.Device {
	if d, ok := ctx.Value(DeviceKey).(*models.Device); ok {
		return d
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, title, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": title, "message": msg})
}
