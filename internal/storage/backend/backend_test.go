package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/horoscope-be/internal/config"
	"github.com/hongminglow/horoscope-be/internal/storage/sealed"
)

func TestOpenMemory(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(context.Background(), "k", []byte("v")))
}

func TestOpenEncryptedBadger(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{
		Backend:    config.BackendBadger,
		BadgerPath: t.TempDir(),
		Encrypt:    true,
		Secret:     "secret",
	})
	require.NoError(t, err)
	defer s.Close()
	_, ok := s.(*sealed.Store)
	assert.True(t, ok)
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Backend: "etcd"})
	assert.EqualError(t, err, `unknown storage backend "etcd"`)
}
