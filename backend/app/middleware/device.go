package middleware

import (
	"context"
	"errors"
	"net/http"

	"growdash-agent/backend/app/models"
	"growdash-agent/backend/app/services"
	"growdash-agent/backend/global"
)

type DeviceAuthenticator interface {
	Authenticate(publicID, token string) (*models.Device, error)
}

// DeviceAuth checks the X-Device-ID / X-Device-Token pair sent by agents.
func DeviceAuth(devices DeviceAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			publicID := r.Header.Get("X-Device-ID")
			token := r.Header.Get("X-Device-Token")
			if publicID == "" || token == "" {
				writeError(w, http.StatusUnauthorized, "Missing device credentials", "X-Device-ID and X-Device-Token headers are required")
				return
			}
			d, err := devices.Authenticate(publicID, token)
			switch {
			case errors.Is(err, services.ErrDeviceNotFound):
				writeError(w, http.StatusNotFound, "Device not found", "Invalid device ID")
				return
			case errors.Is(err, services.ErrInvalidToken):
				writeError(w, http.StatusForbidden, "Invalid credentials", "Device token verification failed")
				return
			case err != nil:
				global.Logger.Error().Err(err).Str("device", publicID).Msg("device lookup")
				writeError(w, http.StatusInternalServerError, "Server error", "device lookup failed")
				return
			}
			ctx := context.WithValue(r.Context(), DeviceKey, d)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
