package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/config"
	"github.com/ekaya-inc/ekaya-campus/pkg/explorer"
	"github.com/ekaya-inc/ekaya-campus/pkg/handlers"
	"github.com/ekaya-inc/ekaya-campus/pkg/mcp"
	"github.com/ekaya-inc/ekaya-campus/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-campus/pkg/middleware"
	"github.com/ekaya-inc/ekaya-campus/ui"
)

const (
	sessionSweepInterval = time.Minute
	shutdownTimeout      = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (explorer API, MCP endpoint and web UI)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting ekaya-campus",
		zap.String("env", cfg.Env),
		zap.String("content_provider", cfg.Content.Provider),
		zap.String("content_model", cfg.Content.Model),
		zap.Bool("store_configured", cfg.Store.IsConfigured()),
		zap.Bool("mcp_enabled", cfg.MCPEnabled))

	a, err := newApp(ctx, cfg, cfg.Store.MigrateOnStart, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	registry := explorer.NewRegistry(a.catalog, a.saved, cfg.Session.IdleTimeout, logger.Named("explorer"))
	go registry.Run(ctx, sessionSweepInterval)

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           newRouter(cfg, a, registry, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	// Let detached fetches finish before the store pool closes.
	registry.Close()
	logger.Info("Server stopped")
	return nil
}

// newRouter registers every HTTP surface on one mux.
func newRouter(cfg *config.Config, a *app, registry *explorer.Registry, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, a.storePinger(), registry, logger).RegisterRoutes(mux)
	handlers.NewExplorerHandler(registry, cfg.Session, logger.Named("explorer")).RegisterRoutes(mux)

	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer("ekaya-campus", cfg.Version, logger)
		deps := &tools.CatalogToolDeps{Catalog: a.catalog, Saved: a.saved, Logger: logger.Named("mcp")}
		tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version, &tools.HealthToolDeps{
			ContentConfigured: cfg.Content.HasCredential(),
			Saved:             a.saved,
		})
		tools.RegisterCatalogTools(mcpServer.MCP(), deps)
		tools.RegisterSavedTools(mcpServer.MCP(), deps)
		handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux)
	}

	uiHandler, err := ui.Handler()
	if err != nil {
		logger.Warn("Web UI unavailable", zap.Error(err))
	} else {
		mux.Handle("/", uiHandler)
	}

	return middleware.Recoverer(logger)(middleware.RequestLogger(logger.Named("http"))(mux))
}
