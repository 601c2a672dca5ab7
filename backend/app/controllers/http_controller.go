package controllers

import (
	"net/http"

	"gorm.io/gorm"
)

type HTTPController struct{ DB *gorm.DB }

func NewHTTPController(db *gorm.DB) *HTTPController {
	return &HTTPController{DB: db}
}

// Healthz reports whether the database answers.
func (c *HTTPController) Healthz(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := c.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
