package storage_test

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Salisuili/rest-frontend/internal/storage"
	"github.com/Salisuili/rest-frontend/internal/storage/file"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

func TestCartKey(t *testing.T) {
	assert.Equal(t, "cart_42", storage.CartKey("42"))
}

func stores(t *testing.T) map[string]storage.Store {
	t.Helper()
	fs, err := file.New(filepath.Join(t.TempDir(), "nested", "state.json"))
	require.NoError(t, err)
	return map[string]storage.Store{
		"memory": storage.NewMemoryStore(),
		"file":   fs,
	}
}

func TestStores_RoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, storage.TokenKey)
			assert.ErrorIs(t, err, apperrors.ErrNotFound)

			require.NoError(t, s.Set(ctx, storage.TokenKey, []byte("tok-1")))
			require.NoError(t, s.Set(ctx, storage.CartKey("1"), []byte(`[{"id":"7","quantity":2}]`)))

			got, err := s.Get(ctx, storage.TokenKey)
			require.NoError(t, err)
			assert.Equal(t, "tok-1", string(got))

			got, err = s.Get(ctx, storage.CartKey("1"))
			require.NoError(t, err)
			assert.JSONEq(t, `[{"id":"7","quantity":2}]`, string(got))

			require.NoError(t, s.Delete(ctx, storage.TokenKey))
			require.NoError(t, s.Delete(ctx, storage.TokenKey))
			_, err = s.Get(ctx, storage.TokenKey)
			assert.True(t, storage.IsNotFound(err))

			assert.NoError(t, s.Ping(ctx))
			assert.NoError(t, s.Close())
		})
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	first, err := file.New(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, storage.TokenKey, []byte("persisted")))

	second, err := file.New(path)
	require.NoError(t, err)
	got, err := second.Get(ctx, storage.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := storage.NewMemoryStore()
	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	keys := s.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"k"}, keys)
}
