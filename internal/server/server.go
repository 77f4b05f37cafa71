// Package server hosts the read API over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/solderlabs/cortex/internal/server/handler"
	"github.com/solderlabs/cortex/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigins []string
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health *handler.HealthHandler
	User   *handler.UserHandler
	Index  *handler.IndexHandler
	Market *handler.MarketHandler
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux
// and the middleware chain (CORS, logging) applied.
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /health", handlers.Health.HealthCheck)

	// Per-wallet analytics.
	mux.HandleFunc("GET /api/v1/user/{wallet}/summary", handlers.User.Summary)
	mux.HandleFunc("GET /api/v1/user/{wallet}/pnl", handlers.User.Pnl)
	mux.HandleFunc("GET /api/v1/user/{wallet}/positions", handlers.User.Positions)
	mux.HandleFunc("GET /api/v1/user/{wallet}/conviction", handlers.User.Conviction)

	// Subscription lifecycle.
	mux.HandleFunc("GET /api/v1/index", handlers.Index.List)
	mux.HandleFunc("POST /api/v1/index", handlers.Index.Start)
	mux.HandleFunc("DELETE /api/v1/index/{wallet}", handlers.Index.Stop)

	// Market analysis.
	mux.HandleFunc("POST /api/v1/markets/{slug}/informed", handlers.Market.Informed)

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
