// Package main runs the task calendar feed server. With -migrate it applies
// database migrations and exits instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/taskcal/internal/config"
	"github.com/phrazzld/taskcal/internal/platform/logger"
	"github.com/phrazzld/taskcal/internal/platform/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: $TASKCAL_CONFIG or ./config.yaml)")
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status, version, reset) and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *migrateCmd); err != nil {
		log.Fatalf("taskcal server: %v", err)
	}
}

func run(ctx context.Context, configPath, migrateCmd string) error {
	cfg, err := loadAppConfig(configPath)
	if err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("cache_backend", cfg.Cache.Backend),
		slog.String("timezone", cfg.Feed.Timezone))

	db, err := postgres.Open(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, migrateCmd, l)
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db, postgres.MigrateUp, l); err != nil {
			_ = db.Close()
			return err
		}
	}

	app, err := newApplication(ctx, cfg, l, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

func loadAppConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv(config.ConfigPathEnv)
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
