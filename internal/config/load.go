package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TASKCAL"

// ConfigPathEnv names the environment variable holding an explicit config file path.
const ConfigPathEnv = EnvPrefix + "_CONFIG"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("feed.timezone", "UTC")
	v.SetDefault("feed.max_range_days", 92)
	v.SetDefault("feed.max_users", 50)

	v.SetDefault("cache.backend", CacheBackendFile)
	v.SetDefault("cache.dir", "./var/feedcache")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.key_prefix", "feed:")
	v.SetDefault("cache.ttl", time.Duration(0))
	v.SetDefault("cache.badger_path", "")
	v.SetDefault("cache.prune_schedule", "")
	v.SetDefault("cache.max_age", 168*time.Hour)

	v.SetDefault("rate_limit.rps", 10.0)
	v.SetDefault("rate_limit.burst", 20)
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// The file is taken from $TASKCAL_CONFIG when set, otherwise config.yaml in
// the working directory is used if present.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv(ConfigPathEnv))
}

// LoadFrom is Load with an explicit config file path. An empty path falls
// back to an optional config.yaml in the working directory.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
