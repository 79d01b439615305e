// Package config loads runtime settings.
//
// Values are applied in order: built-in defaults, an optional YAML file,
// MATSWAP_* environment variables, then command-line flags.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Драйверы хранилища
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config корневая структура настроек
type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Storage     StorageConfig   `yaml:"storage"`
	Logger      LoggerConfig    `yaml:"logger"`
	Auth        AuthConfig      `yaml:"auth"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Client      ClientConfig    `yaml:"client"`
	Args        []string        `yaml:"-"` // позиционные аргументы после флагов
	ShowVersion bool            `yaml:"-"` // только из флага -version
}

// ServerConfig настройки HTTP сервера
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	JWTSecret       string        `yaml:"jwt_secret"` // пустой: сервер сгенерирует случайный при старте
	TokenTTL        time.Duration `yaml:"token_ttl"`  // предельный срок JWT; сессия может истечь раньше
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig выбор и настройки хранилища
type StorageConfig struct {
	Driver string      `yaml:"driver"` // bolt | sqlite | redis
	Path   string      `yaml:"path"`   // файл БД для bolt и sqlite
	Redis  RedisConfig `yaml:"redis"`
}

// RedisConfig настройки подключения к Redis
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Prefix   string `yaml:"prefix"`
	DB       int    `yaml:"db"`
}

// AuthConfig параметры блокировки, сессии и KDF
type AuthConfig struct {
	LockoutDuration   time.Duration `yaml:"lockout_duration"`
	SessionTimeout    time.Duration `yaml:"session_timeout"`
	MaxFailedAttempts int           `yaml:"max_failed_attempts"`
	MinPasswordLength int           `yaml:"min_password_length"`
	KDF               KDFConfig     `yaml:"kdf"`
}

// KDFConfig параметры argon2id для новых паролей
type KDFConfig struct {
	Time    uint32 `yaml:"time"`
	Memory  uint32 `yaml:"memory"` // KB
	Threads uint8  `yaml:"threads"`
}

// LoggerConfig настройки логирования.
// Если Dir задан, логи дополнительно пишутся в ротируемый файл.
type LoggerConfig struct {
	Level      string `yaml:"level"`  // debug | info | warn | error
	Format     string `yaml:"format"` // text | json
	Dir        string `yaml:"dir"`
	FileName   string `yaml:"file_name"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // дни
}

// RateLimitConfig ограничения частоты запросов
type RateLimitConfig struct {
	LoginWindow time.Duration `yaml:"login_window"`
	Window      time.Duration `yaml:"window"`
	LoginRate   int           `yaml:"login_rate"` // запросов на /api/v1/auth/* за LoginWindow
	Rate        int           `yaml:"rate"`       // запросов на остальные пути за Window
}

// ClientConfig настройки CLI.
// Если ServerURL задан, команды чтения каталога обращаются к серверу.
type ClientConfig struct {
	ServerURL string        `yaml:"server_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LoadDefaults заполняет конфигурацию значениями по умолчанию
func (c *Config) LoadDefaults() {
	c.Server = ServerConfig{
		Addr:            ":8080",
		TokenTTL:        12 * time.Hour,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	c.Storage = StorageConfig{
		Driver: DriverBolt,
		Path:   "matswap.db",
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "matswap:",
		},
	}
	c.Auth = AuthConfig{
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		SessionTimeout:    30 * time.Minute,
		MinPasswordLength: 6,
		KDF: KDFConfig{
			Time:    1,
			Memory:  64 * 1024,
			Threads: 4,
		},
	}
	c.Logger = LoggerConfig{
		Level:      "info",
		Format:     "text",
		FileName:   "matswap.log",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     14,
	}
	c.RateLimit = RateLimitConfig{
		LoginRate:   5,
		LoginWindow: time.Minute,
		Rate:        100,
		Window:      time.Minute,
	}
	c.Client = ClientConfig{
		Timeout: 30 * time.Second,
	}
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	return cfg
}

// LoadFile накладывает значения из YAML файла поверх текущих.
// Отсутствующие в файле ключи не меняются.
func (c *Config) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(content, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverBolt, DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for driver %q", c.Storage.Driver)
		}
	case DriverRedis:
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("redis address is required")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Auth.MaxFailedAttempts < 1 {
		return fmt.Errorf("max failed attempts must be positive, got %d", c.Auth.MaxFailedAttempts)
	}
	if c.Auth.LockoutDuration <= 0 {
		return fmt.Errorf("lockout duration must be positive")
	}
	if c.Auth.SessionTimeout <= 0 {
		return fmt.Errorf("session timeout must be positive")
	}
	if c.Auth.MinPasswordLength < 1 {
		return fmt.Errorf("min password length must be positive, got %d", c.Auth.MinPasswordLength)
	}
	if c.Auth.KDF.Time == 0 || c.Auth.KDF.Threads == 0 {
		return fmt.Errorf("kdf time and threads must be positive")
	}
	if c.Auth.KDF.Memory < 8*uint32(c.Auth.KDF.Threads) {
		return fmt.Errorf("kdf memory must be at least 8KB per thread")
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logger.Level)
	}

	switch strings.ToLower(c.Logger.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logger.Format)
	}

	if c.RateLimit.LoginRate < 1 || c.RateLimit.Rate < 1 {
		return fmt.Errorf("rate limits must be positive")
	}
	if c.RateLimit.LoginWindow <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit windows must be positive")
	}

	if c.Server.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}

	if c.Client.ServerURL != "" {
		u, err := url.Parse(c.Client.ServerURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid server url %q", c.Client.ServerURL)
		}
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("client timeout must be positive")
	}

	return nil
}
