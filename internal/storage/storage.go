package storage

import (
	"context"
	"errors"
	"fmt"

	"weather-dashboard/config"
)

var ErrNotFound = errors.New("key not found")

// KV is the durable key-value port the preference records are written through.
type KV interface {
	// Get returns ErrNotFound when key has no value.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete of a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// New opens the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (KV, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(cfg.Path)
	case "sqlite":
		return NewSQLite(ctx, cfg.Path)
	case "redis":
		return NewRedis(ctx, RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
