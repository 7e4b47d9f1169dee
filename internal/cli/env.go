package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/phrazzld/taskcal/internal/config"
	"github.com/phrazzld/taskcal/internal/platform/cachebackend"
	"github.com/phrazzld/taskcal/internal/platform/logger"
	"github.com/phrazzld/taskcal/internal/platform/postgres"
)

// environment is the configuration and logger shared by a command run.
// Connections are opened on demand so cache commands never touch the
// database.
type environment struct {
	cfg      *config.Config
	log      *slog.Logger
	location *time.Location
}

// loadEnvironment reads the configuration and builds a logger writing to
// stderr, keeping stdout free for command output.
func loadEnvironment(opts *RootOptions, stderr io.Writer) (*environment, error) {
	path := opts.ConfigPath
	if path == "" {
		path = os.Getenv(config.ConfigPathEnv)
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level, ok := logger.ParseLevel(cfg.Server.LogLevel)
	if !ok {
		level = slog.LevelInfo
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}

	loc, err := cfg.Feed.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load feed timezone: %w", err)
	}

	return &environment{
		cfg:      cfg,
		log:      logger.New(stderr, level).With(slog.String("component", "feedctl")),
		location: loc,
	}, nil
}

func (e *environment) openDatabase(ctx context.Context) (*sql.DB, error) {
	return postgres.Open(ctx, e.cfg.Database, e.log)
}

func (e *environment) openCache(ctx context.Context) (*cachebackend.Backend, error) {
	return cachebackend.Open(ctx, e.cfg.Cache, e.log)
}
