package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/obinexus/blueshare/internal/apiserver/controllers"
	"github.com/obinexus/blueshare/internal/apiserver/middleware"
)

// Register wires the monitoring API's endpoints onto r. metricsHandler
// serves /metrics; pass nil to fall back to the global default registry
// (only meaningful when no telemetry.HealthLogger is wired in).
func Register(r chi.Router, sc *controllers.SessionController, vc *controllers.VoteStreamController, metricsHandler http.Handler) {
	r.Use(middleware.Logger)
	r.Get("/api/sessions", sc.List)
	r.Get("/api/sessions/{id}", sc.Status)
	r.Get("/ws/votes", vc.Stream)
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)
}
