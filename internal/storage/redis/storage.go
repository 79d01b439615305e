// Package redis implements the installation slots on top of Redis.
//
// Session and lockout slots carry native key TTLs, so an expired session or
// lockout disappears even if nobody reads it. The auth gate's read-time
// checks stay authoritative.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/iudanet/matswap/internal/storage"
)

// DefaultPrefix префикс ключей по умолчанию
const DefaultPrefix = "matswap:"

// Options параметры подключения к Redis
type Options struct {
	Addr     string
	Password string
	Prefix   string // префикс ключей, позволяет держать несколько установок в одной БД
	DB       int
}

// Storage represents Redis storage implementation
type Storage struct {
	rdb    goredis.UniversalClient
	prefix string
}

// Compile-time check that Storage implements storage.Storage
var _ storage.Storage = (*Storage)(nil)

// New подключается к Redis и проверяет соединение
func New(ctx context.Context, opts Options) (*Storage, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewWithClient(rdb, opts.Prefix), nil
}

// NewWithClient оборачивает уже созданный клиент
func NewWithClient(rdb goredis.UniversalClient, prefix string) *Storage {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Storage{rdb: rdb, prefix: prefix}
}

// Close closes the redis client
func (s *Storage) Close() error {
	return s.rdb.Close()
}

// Ping проверяет соединение с Redis
func (s *Storage) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Storage) key(slot string) string {
	return s.prefix + slot
}

// Ключи логических слотов
func (s *Storage) credentialKey() string   { return s.key("admin-credentials") }
func (s *Storage) sessionKey() string      { return s.key("auth-session") }
func (s *Storage) attemptsKey() string     { return s.key("failed-attempts") }
func (s *Storage) catalogKey() string      { return s.key("custom-catalog-entries") }
func (s *Storage) catalogOrderKey() string { return s.key("custom-catalog-entries:order") }
