package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/outreach-sync/internal/config"
)

// Server wraps the chi router built by SetupRoutes with lifecycle methods
// the entrypoint needs: start, graceful shutdown, and a raw handler for
// tests.
type Server struct {
	cfg     config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer builds a Server from pre-wired Handlers and a HealthChecker.
func NewServer(cfg config.ServerConfig, handlers *Handlers, health *HealthChecker) *Server {
	router := SetupRoutes(handlers, health)
	return &Server{
		cfg:     cfg,
		handler: router,
	}
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
