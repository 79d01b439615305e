package config

import (
	"flag"
	"fmt"
	"os"
)

// Load собирает конфигурацию: значения по умолчанию, YAML файл (-config или
// MATSWAP_CONFIG), переменные окружения, затем флаги командной строки.
// args не включает имя программы. Позиционные аргументы после флагов
// доступны в Config.Args.
func Load(name string, args []string, lookup LookupEnvFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := Default()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	var (
		configPath = fs.String("config", "", "path to YAML config file")
		addr       = fs.String("addr", cfg.Server.Addr, "HTTP listen address")
		jwtSecret  = fs.String("jwt-secret", "", "HMAC secret for session tokens")
		driver     = fs.String("storage", cfg.Storage.Driver, "storage driver: bolt, sqlite or redis")
		dbPath     = fs.String("db", cfg.Storage.Path, "database file for bolt and sqlite drivers")
		redisAddr  = fs.String("redis-addr", cfg.Storage.Redis.Addr, "redis address")
		logLevel   = fs.String("log-level", cfg.Logger.Level, "log level: debug, info, warn, error")
		logFormat  = fs.String("log-format", cfg.Logger.Format, "log format: text or json")
		logDir     = fs.String("log-dir", "", "directory for rotated log files")
		serverURL  = fs.String("server", "", "matswap server URL for remote catalog commands")
	)
	fs.BoolVar(&cfg.ShowVersion, "version", false, "show version information")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	path := *configPath
	if path == "" {
		path, _ = lookup(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	// Флаги применяются только если заданы явно
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = *addr
		case "jwt-secret":
			cfg.Server.JWTSecret = *jwtSecret
		case "storage":
			cfg.Storage.Driver = *driver
		case "db":
			cfg.Storage.Path = *dbPath
		case "redis-addr":
			cfg.Storage.Redis.Addr = *redisAddr
		case "log-level":
			cfg.Logger.Level = *logLevel
		case "log-format":
			cfg.Logger.Format = *logFormat
		case "log-dir":
			cfg.Logger.Dir = *logDir
		case "server":
			cfg.Client.ServerURL = *serverURL
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Args = fs.Args()

	return cfg, nil
}
