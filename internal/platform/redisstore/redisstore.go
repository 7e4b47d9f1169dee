// Package redisstore keeps feed cache entries in Redis, one string key per
// entry. SET replaces a value atomically, so readers never see partial
// entries.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/taskcal/internal/store"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// Store is a Redis-backed store.CacheStore.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ store.CacheStore = (*Store)(nil)

// New wraps an existing client. Keys are prefixed with prefix; a ttl of zero
// keeps entries until they are overwritten or deleted.
func New(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

// Open connects to the Redis server at url and verifies the connection.
func Open(ctx context.Context, url, prefix string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, prefix, ttl), nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Get implements store.CacheStore.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrCacheEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Put implements store.CacheStore.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements store.CacheStore.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Scan implements store.CacheStore by iterating keys under the prefix.
// Keys that expire during the scan are skipped.
func (s *Store) Scan(ctx context.Context, fn func(key string, data []byte) error) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		data, err := s.client.Get(ctx, full).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis get: %w", err)
		}
		if err := fn(strings.TrimPrefix(full, s.prefix), data); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}
