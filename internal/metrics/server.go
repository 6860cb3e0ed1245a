package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports the current status and whether it is critical.
type HealthCheck func() (status string, critical bool)

// Server exposes /metrics and /health.
type Server struct {
	check  HealthCheck
	server *http.Server
}

// NewServer creates a new metrics server. A nil check always reports ok.
func NewServer(port int, check HealthCheck) *Server {
	mux := http.NewServeMux()
	s := &Server{
		check: check,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Handler returns the underlying mux, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, critical := "ok", false
	if s.check != nil {
		status, critical = s.check()
	}

	w.Header().Set("Content-Type", "application/json")
	if critical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
