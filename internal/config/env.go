package config

import (
	"fmt"
	"strconv"
	"time"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "MATSWAP_"

// LookupEnvFunc сигнатура os.LookupEnv, подменяется в тестах
type LookupEnvFunc func(key string) (string, bool)

// applyEnv накладывает значения из переменных окружения
func (c *Config) applyEnv(lookup LookupEnvFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	str("ADDR", &c.Server.Addr)
	str("JWT_SECRET", &c.Server.JWTSecret)
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_PATH", &c.Storage.Path)
	str("REDIS_ADDR", &c.Storage.Redis.Addr)
	str("REDIS_PASSWORD", &c.Storage.Redis.Password)
	str("REDIS_PREFIX", &c.Storage.Redis.Prefix)
	str("LOG_LEVEL", &c.Logger.Level)
	str("LOG_FORMAT", &c.Logger.Format)
	str("LOG_DIR", &c.Logger.Dir)
	str("SERVER_URL", &c.Client.ServerURL)

	ints := []struct {
		dst  *int
		name string
	}{
		{&c.Storage.Redis.DB, "REDIS_DB"},
		{&c.Auth.MaxFailedAttempts, "MAX_FAILED_ATTEMPTS"},
		{&c.Auth.MinPasswordLength, "MIN_PASSWORD_LENGTH"},
	}
	for _, e := range ints {
		v, ok := lookup(EnvPrefix + e.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, e.name, err)
		}
		*e.dst = n
	}

	durations := []struct {
		dst  *time.Duration
		name string
	}{
		{&c.Auth.LockoutDuration, "LOCKOUT_DURATION"},
		{&c.Auth.SessionTimeout, "SESSION_TIMEOUT"},
	}
	for _, e := range durations {
		v, ok := lookup(EnvPrefix + e.name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, e.name, err)
		}
		*e.dst = d
	}

	return nil
}
