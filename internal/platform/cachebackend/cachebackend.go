// Package cachebackend opens the feed cache storage selected in the
// configuration.
package cachebackend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskcal/internal/config"
	"github.com/phrazzld/taskcal/internal/feedcache"
	"github.com/phrazzld/taskcal/internal/platform/badgerstore"
	"github.com/phrazzld/taskcal/internal/platform/filestore"
	"github.com/phrazzld/taskcal/internal/platform/redisstore"
	"github.com/phrazzld/taskcal/internal/store"
)

// Backend is an opened cache store together with its backend name.
type Backend struct {
	store.CacheStore
	Name  string
	close func() error
}

// Close releases the resources held by the backend.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open creates the cache store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.CacheConfig, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}

	var b *Backend
	switch cfg.Backend {
	case config.CacheBackendFile, "":
		fs, err := filestore.New(cfg.Dir, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open file cache: %w", err)
		}
		b = &Backend{CacheStore: fs, Name: config.CacheBackendFile}

	case config.CacheBackendRedis:
		rs, err := redisstore.Open(ctx, cfg.RedisURL, cfg.KeyPrefix, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis cache: %w", err)
		}
		b = &Backend{CacheStore: rs, Name: config.CacheBackendRedis, close: rs.Close}

	case config.CacheBackendBadger:
		bs, err := badgerstore.Open(cfg.BadgerPath, cfg.TTL, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger cache: %w", err)
		}
		b = &Backend{CacheStore: bs, Name: config.CacheBackendBadger, close: bs.Close}

	case config.CacheBackendMemory:
		b = &Backend{CacheStore: feedcache.NewMemoryStore(), Name: config.CacheBackendMemory}

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	log.Info("feed cache backend opened", slog.String("backend", b.Name))
	return b, nil
}
