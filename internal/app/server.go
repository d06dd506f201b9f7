// Package app assembles the relay's HTTP server.
package app

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server wraps the HTTP server with its configuration
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new configured HTTP server instance
func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		// Upstream LLM calls can be slow; keep generous timeouts.
		ReadTimeout:  300 * time.Second,
		WriteTimeout: 300 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start binds the listen address and serves until Close is called. Bind
// failures are returned.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Close is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("server running", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the listener and drops open connections.
func (s *Server) Close() error {
	return s.httpServer.Close()
}
