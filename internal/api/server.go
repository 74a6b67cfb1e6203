// Package api provides the HTTP server and handlers for the oblivious
// SRP service.
//
//nolint:revive // "api" is a clear and appropriate package name
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/osrplabs/osrp/internal/config"
	"github.com/osrplabs/osrp/internal/logging"
)

// Server represents the HTTP API server.
type Server struct {
	httpServer *http.Server
	logger     *logging.Logger
	config     *config.Config
}

// New creates an API server serving the given handlers.
func New(cfg *config.Config, logger *logging.Logger, handlers *Handlers) *Server {
	router := chi.NewRouter()
	router.Use(RequestLogger(logger))
	router.Use(IPRateLimit(cfg.Transport.RequestsPerSecond, cfg.Transport.Burst))
	handlers.Register(router)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Address(),
			Handler:           router,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
		config: cfg,
	}
}

// Start begins serving requests until ctx is cancelled. TLS is used when
// a certificate pair is configured.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting API server", map[string]any{
		"address": s.httpServer.Addr,
		"tls":     s.config.Service.TLSCert != "",
	})

	errChan := make(chan error, 1)
	go func() {
		var err error
		if s.config.Service.TLSCert != "" {
			err = s.httpServer.ListenAndServeTLS(s.config.Service.TLSCert, s.config.Service.TLSKey)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down API server")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}
