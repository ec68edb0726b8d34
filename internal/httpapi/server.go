// Package httpapi is the thin HTTP transport in front of the send
// orchestrator: routing, API-key authentication, request decoding and the
// JSON response envelope. Business failures are reported inside a 200
// response with success=false; HTTP error codes are reserved for transport
// concerns (bad key, malformed body, panics).
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relaysms/email-gateway/pkg/relay"
)

// SendService is the slice of the orchestrator the transport needs.
type SendService interface {
	Send(ctx context.Context, req *relay.SendRequest) relay.Result
}

// Options configures the HTTP server.
type Options struct {
	// APIKey is the shared secret inbound requests must present.
	APIKey string

	// TemplateDir is checked by the readiness probe.
	TemplateDir string
}

// Server wires routes, middleware and handlers.
type Server struct {
	relay SendService
	log   *slog.Logger
	opts  Options
}

// New creates the HTTP server.
func New(opts Options, svc SendService, log *slog.Logger) *Server {
	return &Server{relay: svc, log: log, opts: opts}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(s.recoverer)

	r.Get("/healthz", s.handleLiveness)
	r.Get("/readyz", s.handleReadiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.With(s.authenticate).Post("/send", s.handleSend)
	})

	return r
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReadiness verifies the template directory is reachable; without it
// every templated send would fail.
func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if info, err := os.Stat(s.opts.TemplateDir); err != nil || !info.IsDir() {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "template directory unavailable"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
