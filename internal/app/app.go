// Package app provides the top-level application lifecycle for the cortex
// indexer. It wires together all dependencies (stores, caches, providers, the
// subscription engine, and the HTTP server), resumes persisted subscriptions,
// and blocks until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/solderlabs/cortex/internal/config"
)

// shutdownGrace bounds how long shutdown waits for in-flight requests and
// subscription teardown.
const shutdownGrace = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, resumes persisted
// subscriptions, starts the HTTP server, and blocks until the context is
// cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Bool("demo_mode", a.cfg.DemoMode),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	if err := deps.Manager.Resume(ctx); err != nil {
		a.logger.WarnContext(ctx, "resume failed", slog.String("error", err.Error()))
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- deps.Server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("app: server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := deps.Server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("server shutdown failed", slog.String("error", err.Error()))
	}
	deps.Manager.Shutdown(shutdownCtx)

	return nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
