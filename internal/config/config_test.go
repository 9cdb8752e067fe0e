package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	for name := range envMappings {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	t.Setenv(ConfigPathEnvVar, "")
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	isolate(t)
	_, err := Load()
	require.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoadWebDefaultsToPostgres(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "s3cret")
	_, err := Load()
	require.EqualError(t, err, "DATABASE_URL is required for the postgres storage backend")

	t.Setenv("DATABASE_URL", "postgres://localhost/horoscope")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.False(t, cfg.Storage.Encrypt)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, time.Hour, cfg.JWTTTL())
	assert.Equal(t, 30*time.Second, cfg.Completion.Timeout)
	assert.Equal(t, "mistralai/mistral-7b-instruct", cfg.Completion.Model)
}

func TestLoadDevicePlatformUsesEncryptedBadger(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PLATFORM", "device")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Encrypt)
	assert.Equal(t, "s3cret", cfg.Storage.Secret)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("COMPLETION_TIMEOUT", "5s")
	t.Setenv("JWT_TTL_MINUTES", "15")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("OPENROUTER_API_KEY", "  key  ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 5*time.Second, cfg.Completion.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
	assert.Equal(t, "key", cfg.Completion.APIKey)
}

func TestLoadYAMLFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9090\"\nstorage:\n  backend: memory\nauth:\n  jwt_secret: from-file\n"), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddress())
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_BACKEND", "etcd")
	_, err := Load()
	require.EqualError(t, err, `unknown STORAGE_BACKEND "etcd"`)
}

func TestParseCSV(t *testing.T) {
	assert.Equal(t, []string{"*"}, parseCSV(" , "))
	assert.Equal(t, []string{"a", "b"}, parseCSV("a, ,b"))
}
