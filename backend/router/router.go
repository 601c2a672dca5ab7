package router

import (
	"net/http"

	"growdash-agent/backend/app/controllers"
	"growdash-agent/backend/app/metrics"
	"growdash-agent/backend/app/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Controllers struct {
	HTTP     *controllers.HTTPController
	Auth     *controllers.AuthController
	Agent    *controllers.AgentController
	Devices  *controllers.DeviceController
	Commands *controllers.CommandController
}

func NewRouter(c Controllers, auth *middleware.Auth, deviceAuth func(http.Handler) http.Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)
	r.Use(middleware.Instrument(m))

	// public
	r.Get("/healthz", c.HTTP.Healthz)
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Post("/login", c.Auth.Login)

	// agent API
	r.Route("/api/growdash/agent", func(r chi.Router) {
		r.Use(deviceAuth)
		r.Get("/commands/pending", c.Agent.Pending)
		r.Post("/commands/{id}/result", c.Agent.Result)
		r.Post("/heartbeat", c.Agent.Heartbeat)
	})

	// admin-only endpoints
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/devices", c.Devices.List)
		r.Post("/devices", c.Devices.Register)
		r.Post("/devices/{device}/commands", c.Commands.Enqueue)
		r.Get("/devices/{device}/commands", c.Commands.History)
	})
	return r
}
