package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Feed      FeedConfig      `mapstructure:"feed" validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache" validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

// FeedConfig controls how feed requests are interpreted and rendered.
type FeedConfig struct {
	// Timezone is an IANA name. Range bounds without an offset are read in it
	// and event times are rendered in it.
	Timezone     string `mapstructure:"timezone" validate:"required,timezone"`
	MaxRangeDays int    `mapstructure:"max_range_days" validate:"gte=0"`
	MaxUsers     int    `mapstructure:"max_users" validate:"gte=0"`
}

// Location loads the configured time zone.
func (c FeedConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Cache backends.
const (
	CacheBackendFile   = "file"
	CacheBackendRedis  = "redis"
	CacheBackendBadger = "badger"
	CacheBackendMemory = "memory"
)

// CacheConfig selects and tunes the feed cache storage.
type CacheConfig struct {
	Backend   string        `mapstructure:"backend" validate:"required,oneof=file redis badger memory"`
	Dir       string        `mapstructure:"dir" validate:"required_if=Backend file"`
	RedisURL  string        `mapstructure:"redis_url" validate:"required_if=Backend redis"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl" validate:"gte=0"`
	// BadgerPath is the badger data directory.
	BadgerPath string `mapstructure:"badger_path" validate:"required_if=Backend badger"`
	// PruneSchedule is a cron expression for the cache janitor. Empty disables it.
	PruneSchedule string        `mapstructure:"prune_schedule"`
	MaxAge        time.Duration `mapstructure:"max_age" validate:"gte=0"`
}

// RateLimitConfig limits feed requests per client. RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" validate:"gte=0"`
	Burst int     `mapstructure:"burst" validate:"gte=0"`
}
