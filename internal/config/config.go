// Package config defines service configuration and its loading.
//
// Values are layered, lowest precedence first: defaults from New, a .env
// file in the working directory, an optional YAML file named by
// HOUSECUP_CONFIG, then HOUSECUP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading a config source.
	ErrLoadConfig = errors.New("load config failed")
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Env selects the log encoder and tags Sentry events: prod or dev.
	Env string `koanf:"env"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the event store backend: memory, sqlite or redis.
	Store string `koanf:"store"`

	SQLitePath         string        `koanf:"sqlite_path"`
	SQLitePollInterval time.Duration `koanf:"sqlite_poll_interval"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisPrefix   string `koanf:"redis_prefix"`

	// IdempotencySize bounds how many Idempotency-Key values are remembered.
	IdempotencySize int `koanf:"idempotency_size"`

	// PointsIndividual and PointsGroup are the default points for positions
	// 1, 2, 3... by event category.
	PointsIndividual []int `koanf:"points_individual"`
	PointsGroup      []int `koanf:"points_group"`

	// SentryDSN enables error reporting when set.
	SentryDSN string `koanf:"sentry_dsn"`

	// SeedDemo loads the three demo events into an empty store at start.
	SeedDemo bool `koanf:"seed_demo"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Env:                "prod",
		Addr:               ":9080",
		Store:              StoreMemory,
		SQLitePath:         "housecup.db",
		SQLitePollInterval: time.Second,
		RedisAddr:          "localhost:6379",
		RedisPrefix:        "housecup:",
		IdempotencySize:    10_000,
		PointsIndividual:   []int{10, 7, 5},
		PointsGroup:        []int{20, 15, 10},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
		if c.SQLitePollInterval <= 0 {
			return fmt.Errorf("%w: sqlite_poll_interval must be positive", ErrInvalidConfig)
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr must not be empty", ErrInvalidConfig)
		}
		if c.RedisDB < 0 {
			return fmt.Errorf("%w: redis_db must not be negative", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	if err := validScale("points_individual", c.PointsIndividual); err != nil {
		return err
	}
	return validScale("points_group", c.PointsGroup)
}

func validScale(key string, pts []int) error {
	if len(pts) == 0 {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, key)
	}
	for _, p := range pts {
		if p < 0 {
			return fmt.Errorf("%w: %s must not contain negative points", ErrInvalidConfig, key)
		}
	}
	return nil
}
