package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/config"
	"github.com/ekaya-inc/ekaya-campus/pkg/database"
	"github.com/ekaya-inc/ekaya-campus/pkg/handlers"
	"github.com/ekaya-inc/ekaya-campus/pkg/llm"
	"github.com/ekaya-inc/ekaya-campus/pkg/logging"
	"github.com/ekaya-inc/ekaya-campus/pkg/repositories"
	"github.com/ekaya-inc/ekaya-campus/pkg/services"
)

// app holds the clients built once at startup.
type app struct {
	content llm.ContentClient
	db      *database.DB
	catalog services.CatalogService
	saved   services.SavedUniversityService
}

// newApp builds the content client and, when store credentials are set, the
// store pool. A missing store leaves the repository unconfigured.
func newApp(ctx context.Context, cfg *config.Config, migrate bool, logger *zap.Logger) (*app, error) {
	content, err := llm.NewClient(ctx, cfg.Content, logger.Named("llm"))
	if err != nil {
		return nil, fmt.Errorf("failed to create content client: %w", err)
	}

	a := &app{
		content: content,
		catalog: services.NewCatalogService(content, services.CatalogConfig{
			Model:         cfg.Content.Model,
			FallbackModel: cfg.Content.FallbackModel,
			LocationModel: cfg.Content.LocationModel,
		}, logger),
	}

	var repo repositories.UniversityRepository
	if cfg.Store.IsConfigured() {
		connURL, err := cfg.Store.ConnectionURL()
		if err != nil {
			return nil, err
		}

		if migrate {
			if err := database.RunMigrations(connURL, logger); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		a.db, err = database.NewConnection(ctx, &database.Config{
			URL:            connURL,
			MaxConnections: cfg.Store.MaxConnections,
			ConnectTimeout: cfg.Store.ConnectTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to store: %s", logging.SanitizeError(err))
		}
		logger.Info("Connected to repository store", zap.String("url", logging.SanitizeConnectionString(connURL)))
		repo = repositories.NewUniversityRepository(a.db)
	} else {
		logger.Info("Repository store not configured; set STORE_URL and STORE_KEY to enable saving")
	}

	a.saved = services.NewSavedUniversityService(repo, logger)
	return a, nil
}

// storePinger returns the store as a health probe, or nil when unconfigured.
func (a *app) storePinger() handlers.Pinger {
	if a.db == nil {
		return nil
	}
	return a.db
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
