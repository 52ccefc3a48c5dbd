package persistence

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-genius/internal/config"
)

// ErrBackendUnavailable is returned when a backend was never connected.
var ErrBackendUnavailable = errors.New("storage backend not configured")

// KeyValueStore is the client-local storage surface: whole string values
// addressed by key. A missing key is reported with ok=false, not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	Close()
}

// Open builds the backend selected by cfg.Storage.Backend.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (KeyValueStore, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; tickets are lost on restart")
		return NewMemoryStore(), nil
	case config.StorageFile:
		return NewFileStore(cfg.Storage.DataDir)
	case config.StorageRedis:
		return NewRedis(cfg.Redis, logger), nil
	case config.StoragePostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
