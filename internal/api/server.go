// Package api provides the operational HTTP surface for ChatBotCore.
//
// The server carries no conversational traffic of its own when the WhatsApp
// transport is active; it exposes a health endpoint for process supervision
// and, when the Twilio transport is selected, the inbound message webhook.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Default server configuration constants
const (
	// DefaultAddr is the default listen address for the HTTP server
	DefaultAddr = ":8080"
	// DefaultReadHeaderTimeout bounds slow-header clients
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultShutdownTimeout bounds graceful shutdown on Stop
	DefaultShutdownTimeout = 10 * time.Second
)

// Opts holds configuration options for the HTTP server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the HTTP server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server is the operational HTTP server.
type Server struct {
	addr       string
	mux        *http.ServeMux
	httpServer *http.Server
}

// NewServer creates a server with the health endpoint registered.
func NewServer(opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	s := &Server{
		addr: cfg.Addr,
		mux:  http.NewServeMux(),
	}
	s.mux.HandleFunc("/healthz", s.healthHandler)
	return s
}

// RegisterWebhook mounts an inbound webhook handler at the given path.
// Used by the Twilio transport, which receives messages over HTTP.
func (s *Server) RegisterWebhook(path string, handler http.HandlerFunc) {
	slog.Info("Server registering webhook", "path", path)
	s.mux.HandleFunc(path, handler)
}

// Start begins serving in a background goroutine. It returns immediately;
// listen errors other than a clean shutdown are logged.
func (s *Server) Start() {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}

	slog.Info("Server starting", "addr", s.addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server listen failed", "error", err, "addr", s.addr)
		}
	}()
}

// Stop gracefully shuts the server down, bounded by DefaultShutdownTimeout.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	slog.Info("Server stopping", "addr", s.addr)
	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

// Handler exposes the routing mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, errorResponse("method not allowed"))
		return
	}
	writeJSONResponse(w, http.StatusOK, okResponse("healthy"))
}
