// Package backend opens the storage driver selected in configuration.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iudanet/matswap/internal/config"
	"github.com/iudanet/matswap/internal/storage"
	"github.com/iudanet/matswap/internal/storage/boltdb"
	"github.com/iudanet/matswap/internal/storage/redis"
	"github.com/iudanet/matswap/internal/storage/sqlite"
)

// Open создает хранилище по cfg.Driver
func Open(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverBolt:
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
		s, err := boltdb.New(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			if err := ensureDir(cfg.Path); err != nil {
				return nil, err
			}
		}
		s, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverRedis:
		s, err := redis.New(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			Prefix:   cfg.Redis.Prefix,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ensureDir создает каталог для файла БД
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	return nil
}
