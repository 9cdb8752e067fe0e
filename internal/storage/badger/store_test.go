package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/horoscope-be/internal/storage"
)

func TestStoreInMemory(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(ctx, "user_profile_1")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "user_profile_1", []byte("one")))
	require.NoError(t, s.Set(ctx, "user_profile_1", []byte("two")))

	got, err := s.Get(ctx, "user_profile_1")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	require.NoError(t, s.Delete(ctx, "user_profile_1"))
	require.NoError(t, s.Delete(ctx, "user_profile_1"))
	_, err = s.Get(ctx, "user_profile_1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}
