// Package apiserver is BlueShare's monitoring HTTP API: read-only session
// status, a Prometheus scrape endpoint, and a websocket stream of
// consensus vote arrivals, grounded on walletserver's
// routes/controllers/services split but built on chi instead of
// gorilla/mux.
package apiserver

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/obinexus/blueshare/internal/apiserver/controllers"
	"github.com/obinexus/blueshare/internal/apiserver/routes"
	"github.com/obinexus/blueshare/internal/apiserver/services"
	"github.com/obinexus/blueshare/internal/telemetry"
)

// Server bundles the router and the shared state its controllers read.
type Server struct {
	Sessions *services.SessionService
	Votes    *services.VoteBroadcaster

	httpServer *http.Server
}

// New builds a Server listening on addr. health may be nil, in which case
// /metrics falls back to the global default Prometheus registry; pass the
// HealthLogger a session-running caller is recording into so /metrics
// surfaces the same counters that caller is updating.
func New(addr string, health *telemetry.HealthLogger) *Server {
	sessions := services.NewSessionService()
	votes := services.NewVoteBroadcaster()

	sc := controllers.NewSessionController(sessions)
	vc := controllers.NewVoteStreamController(votes)

	var metricsHandler http.Handler
	if health != nil {
		metricsHandler = health.Handler()
	}

	r := chi.NewRouter()
	routes.Register(r, sc, vc, metricsHandler)

	return &Server{
		Sessions:   sessions,
		Votes:      votes,
		httpServer: &http.Server{Addr: addr, Handler: r},
	}
}

// Start runs the server's ListenAndServe in the current goroutine; callers
// typically run it in its own goroutine and use Shutdown for teardown.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
