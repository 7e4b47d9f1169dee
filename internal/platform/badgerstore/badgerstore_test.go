package badgerstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/taskcal/internal/platform/badgerstore"
	"github.com/phrazzld/taskcal/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T, ttl time.Duration) *badgerstore.Store {
	t.Helper()
	s, err := badgerstore.Open("", ttl, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t, 0)

	_, err := s.Get(ctx, "u1")
	assert.ErrorIs(t, err, store.ErrCacheEntryNotFound)

	require.NoError(t, s.Put(ctx, "u1", []byte("first")))
	require.NoError(t, s.Put(ctx, "u1", []byte("second")))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	require.NoError(t, s.Delete(ctx, "u1"))
	require.NoError(t, s.Delete(ctx, "u1"))
	_, err = s.Get(ctx, "u1")
	assert.ErrorIs(t, err, store.ErrCacheEntryNotFound)
}

func TestStore_Scan(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t, 0)

	require.NoError(t, s.Put(ctx, "b", []byte("2")))
	require.NoError(t, s.Put(ctx, "a", []byte("1")))

	var seen []string
	require.NoError(t, s.Scan(ctx, func(key string, data []byte) error {
		seen = append(seen, key+"="+string(data))
		return nil
	}))
	assert.Equal(t, []string{"a=1", "b=2"}, seen)
}

func TestStore_TTLExpires(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t, time.Second)

	require.NoError(t, s.Put(ctx, "u1", []byte("x")))
	_, err := s.Get(ctx, "u1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := s.Get(ctx, "u1")
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}

func TestOpen_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := badgerstore.Open(dir, 0, nil)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "u1", []byte("persisted")))
	require.NoError(t, s.Close())

	reopened, err := badgerstore.Open(dir, 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}
