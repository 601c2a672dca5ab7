package middleware

import (
	"net/http"
	"strconv"
	"time"

	"growdash-agent/backend/app/metrics"

	"github.com/go-chi/chi/v5"
)

// Instrument counts requests by chi route pattern, so ids never become labels.
func Instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			m.HTTPRequests.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
			m.HTTPLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}
