// Package backend selects the storage.Store implementation for the
// configured platform target.
package backend

import (
	"context"
	"fmt"

	"github.com/hongminglow/horoscope-be/internal/config"
	"github.com/hongminglow/horoscope-be/internal/logging"
	"github.com/hongminglow/horoscope-be/internal/storage"
	"github.com/hongminglow/horoscope-be/internal/storage/badger"
	"github.com/hongminglow/horoscope-be/internal/storage/memory"
	"github.com/hongminglow/horoscope-be/internal/storage/postgres"
	"github.com/hongminglow/horoscope-be/internal/storage/redis"
	"github.com/hongminglow/horoscope-be/internal/storage/sealed"
)

// Open builds the store named by cfg.Backend, sealing it when cfg.Encrypt is set.
func Open(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		store = memory.New()
	case config.BackendBadger:
		store, err = badger.Open(cfg.BadgerPath)
	case config.BackendPostgres:
		store, err = postgres.NewStore(ctx, cfg.DatabaseURL)
	case config.BackendRedis:
		store, err = redis.Open(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Encrypt {
		wrapped, err := sealed.Wrap(store, cfg.Secret)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		store = wrapped
	}

	logging.Info().Str("backend", cfg.Backend).Bool("encrypted", cfg.Encrypt).Msg("profile storage ready")
	return store, nil
}
