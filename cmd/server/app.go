package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskcal/internal/config"
	"github.com/phrazzld/taskcal/internal/feed"
	"github.com/phrazzld/taskcal/internal/feedcache"
	"github.com/phrazzld/taskcal/internal/platform/cachebackend"
	"github.com/phrazzld/taskcal/internal/platform/postgres"
	"github.com/phrazzld/taskcal/internal/ratelimit"
	"github.com/phrazzld/taskcal/internal/service"
)

// application holds the shared dependencies of the server and releases
// them on shutdown.
type application struct {
	config   *config.Config
	logger   *slog.Logger
	db       *sql.DB
	location *time.Location

	backend     *cachebackend.Backend
	cache       *feedcache.Cache
	janitor     *feedcache.Janitor
	feedService service.FeedService
	limiter     *ratelimit.KeyedRateLimiter
}

// newApplication wires stores, the feed cache and services on an open
// database connection.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	loc, err := cfg.Feed.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load feed timezone: %w", err)
	}

	app := &application{
		config:   cfg,
		logger:   logger,
		db:       db,
		location: loc,
	}

	app.backend, err = cachebackend.Open(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	stores := postgres.NewStores(db, loc, logger)
	builder := feed.NewBuilder(stores.FeedSources(), nil, logger)
	app.cache = feedcache.New(app.backend, builder, logger)
	app.feedService = service.NewFeedService(app.cache, service.FeedServiceConfig{
		Location:     loc,
		MaxRangeDays: cfg.Feed.MaxRangeDays,
		MaxUsers:     cfg.Feed.MaxUsers,
	}, logger)

	if cfg.Cache.PruneSchedule != "" {
		app.janitor = feedcache.NewJanitor(app.backend, cfg.Cache.MaxAge, logger)
		if err := app.janitor.Start(cfg.Cache.PruneSchedule); err != nil {
			_ = app.backend.Close()
			return nil, fmt.Errorf("failed to start cache janitor: %w", err)
		}
	}

	if cfg.RateLimit.RPS > 0 {
		app.limiter = ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 0)
	}

	logger.Info("application initialized",
		slog.String("cache_backend", app.backend.Name),
		slog.Bool("janitor", app.janitor != nil),
		slog.Bool("rate_limit", app.limiter != nil))
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases application resources.
func (app *application) cleanup() error {
	if app.janitor != nil {
		app.janitor.Stop()
	}
	if app.limiter != nil {
		app.limiter.Stop()
	}

	var errs []error
	if app.backend != nil {
		if err := app.backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache backend: %w", err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		app.logger.Error("application shutdown finished with errors", slog.String("error", err.Error()))
	} else {
		app.logger.Info("application shutdown completed")
	}
	return err
}
