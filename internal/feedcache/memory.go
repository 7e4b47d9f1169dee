package feedcache

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/phrazzld/taskcal/internal/store"
)

// MemoryStore is a process-local store.CacheStore. Values are copied on the
// way in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

var _ store.CacheStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Get implements store.CacheStore.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.entries[key]
	if !ok {
		return nil, store.ErrCacheEntryNotFound
	}
	return slices.Clone(data), nil
}

// Put implements store.CacheStore.
func (m *MemoryStore) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = slices.Clone(data)
	return nil
}

// Delete implements store.CacheStore.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Scan implements store.CacheStore, visiting keys in sorted order over a
// snapshot of the entries.
func (m *MemoryStore) Scan(ctx context.Context, fn func(key string, data []byte) error) error {
	m.mu.RLock()
	snapshot := make(map[string][]byte, len(m.entries))
	keys := make([]string, 0, len(m.entries))
	for k, v := range m.entries {
		snapshot[k] = slices.Clone(v)
		keys = append(keys, k)
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(k, snapshot[k]); err != nil {
			return err
		}
	}
	return nil
}
