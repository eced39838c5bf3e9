package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affilifind/backend/internal/domain"
)

func setup(t testing.TB) *SQLiteStore {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_GetSet(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "config")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Set(ctx, "config", []byte(`{"apiBase":"http://localhost:8787"}`)))
	require.NoError(t, store.Set(ctx, "config", []byte(`{"apiBase":"https://api.example"}`)))

	got, err := store.Get(ctx, "config")
	require.NoError(t, err)
	assert.Equal(t, `{"apiBase":"https://api.example"}`, string(got))
}

func TestSQLiteStore_Update(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	err := store.Update(ctx, "counter", func(old []byte) ([]byte, error) {
		assert.Nil(t, old)
		return []byte("1"), nil
	})
	require.NoError(t, err)

	err = store.Update(ctx, "counter", func(old []byte) ([]byte, error) {
		assert.Equal(t, "1", string(old))
		return []byte("2"), nil
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "2", string(got))
}

func TestSQLiteStore_UpdateAbortsOnError(t *testing.T) {
	store := setup(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", []byte("before")))

	boom := errors.New("boom")
	err := store.Update(ctx, "k", func(old []byte) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "before", string(got))
}

func TestSQLiteStore_ConcurrentUpdates(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Update(ctx, "list", func(old []byte) ([]byte, error) {
				return append(old, 'x'), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "list")
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestSQLiteStore_PersistsOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "affilifind.db")
	ctx := context.Background()

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "dealHistory", []byte(`[]`)))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(ctx, "dealHistory")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}
