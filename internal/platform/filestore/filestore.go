// Package filestore keeps feed cache entries as one JSON file per key in a
// directory. Writes go to a temporary file in the same directory which is
// synced and then renamed over the target, so readers only ever see a
// previous or a complete entry.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phrazzld/taskcal/internal/store"
	"github.com/spf13/afero"
)

const (
	filePrefix = "feed_"
	fileSuffix = ".json"
	tempPrefix = ".feed_"
)

// ErrInvalidKey is returned for keys that cannot be used as file names.
var ErrInvalidKey = errors.New("invalid cache key")

// Store is a directory-backed store.CacheStore.
type Store struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

var _ store.CacheStore = (*Store)(nil)

// New creates a Store rooted at dir on the local file system, creating the
// directory if needed.
func New(dir string, log *slog.Logger) (*Store, error) {
	return NewWithFs(afero.NewOsFs(), dir, log)
}

// NewWithFs creates a Store on an arbitrary afero file system.
func NewWithFs(fsys afero.Fs, dir string, log *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if log == nil {
		log = slog.Default()
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	return &Store{
		fs:     fsys,
		dir:    dir,
		logger: log.With(slog.String("component", "file_cache_store")),
	}, nil
}

// Dir returns the directory holding the entries.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, filePrefix+key+fileSuffix), nil
}

// Get implements store.CacheStore.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrCacheEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}
	return data, nil
}

// Put implements store.CacheStore.
func (s *Store) Put(_ context.Context, key string, data []byte) (err error) {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := afero.TempFile(s.fs, s.dir, tempPrefix+key+"_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			if rmErr := s.fs.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				s.logger.Warn("failed to remove temp file",
					slog.String("path", tmpName),
					slog.String("error", rmErr.Error()))
			}
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = s.fs.Rename(tmpName, p); err != nil {
		return fmt.Errorf("replace cache entry: %w", err)
	}
	return nil
}

// Delete implements store.CacheStore.
func (s *Store) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Scan implements store.CacheStore. Entries removed while scanning are
// skipped.
func (s *Store) Scan(ctx context.Context, fn func(key string, data []byte) error) error {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return fmt.Errorf("list cache directory: %w", err)
	}

	var keys []string
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := s.Get(ctx, key)
		if errors.Is(err, store.ErrCacheEntryNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(key, data); err != nil {
			return err
		}
	}
	return nil
}
