// Package badgerstore keeps feed cache entries in an embedded Badger
// database. Every write is a single transaction with synced writes.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/phrazzld/taskcal/internal/store"
)

var keyPrefix = []byte("feed:")

// Store is a Badger-backed store.CacheStore.
type Store struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

var _ store.CacheStore = (*Store)(nil)

// Open opens or creates the database at path. An empty path opens an
// in-memory database, which is useful for tests.
func Open(path string, ttl time.Duration, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithSyncWrites(true)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	log = log.With(slog.String("component", "badger_cache_store"))
	log.Info("badger cache opened", slog.String("path", path), slog.Bool("in_memory", path == ""))

	return &Store{db: db, ttl: max(ttl, 0), logger: log}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func dbKey(key string) []byte {
	return append(append([]byte{}, keyPrefix...), key...)
}

// Get implements store.CacheStore.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrCacheEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return data, nil
}

// Put implements store.CacheStore.
func (s *Store) Put(_ context.Context, key string, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(dbKey(key), data)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

// Delete implements store.CacheStore.
func (s *Store) Delete(_ context.Context, key string) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(dbKey(key))
	}); err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

// Scan implements store.CacheStore over a read-only snapshot. fn must not
// write to the store.
func (s *Store) Scan(ctx context.Context, fn func(key string, data []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("badger read %s: %w", item.Key(), err)
			}
			key := string(item.Key()[len(keyPrefix):])
			if err := fn(key, data); err != nil {
				return err
			}
		}
		return nil
	})
}
