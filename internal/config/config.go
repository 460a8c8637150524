// Package config loads the server configuration from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/guestdesk/internal/api"
	"github.com/mcoot/guestdesk/internal/factory"
	"github.com/mcoot/guestdesk/internal/services/auth"
	"github.com/mcoot/guestdesk/internal/services/eligibility"
	redisstorage "github.com/mcoot/guestdesk/internal/storage/redis"
	sqlitestorage "github.com/mcoot/guestdesk/internal/storage/sqlite"
)

// EnvConfigPath names the config file when --config is not given
const EnvConfigPath = "GUESTDESK_CONFIG"

// Config is the complete server configuration
type Config struct {
	Server      api.ServerConfig   `yaml:"server"`
	Storage     StorageConfig      `yaml:"storage"`
	Auth        auth.Config        `yaml:"auth"`
	Eligibility eligibility.Config `yaml:"eligibility"`
	Log         LogConfig          `yaml:"log"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type   string               `yaml:"type"` // memory, redis or sqlite
	Redis  redisstorage.Config  `yaml:"redis"`
	SQLite sqlitestorage.Config `yaml:"sqlite"`
}

// LogConfig configures the JSON logger
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn or error
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Server: api.DefaultServerConfig(),
		Storage: StorageConfig{
			Type:   factory.StorageTypeMemory,
			Redis:  redisstorage.DefaultConfig(),
			SQLite: sqlitestorage.DefaultConfig(),
		},
		Auth:        auth.DefaultConfig(),
		Eligibility: eligibility.DefaultConfig(),
		Log:         LogConfig{Level: "info"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if non-empty),
// then environment overrides. The result is validated.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := getenv("REDIS_URL"); v != "" {
		cfg.Storage.Redis.URL = v
	}
	if v := getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLite.Path = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	return nil
}

// Validate reports every invalid setting at once
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Storage.Type {
	case factory.StorageTypeMemory:
	case factory.StorageTypeRedis:
		if c.Storage.Redis.URL == "" {
			errs = append(errs, errors.New("storage.redis.url is required when storage.type is redis"))
		}
	case factory.StorageTypeSQLite:
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, errors.New("storage.sqlite.path is required when storage.type is sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be memory, redis or sqlite, got %q", c.Storage.Type))
	}

	if c.Auth.SessionDuration <= 0 {
		errs = append(errs, errors.New("auth.session_duration must be positive"))
	}
	if c.Eligibility.CompanionAgeThreshold <= 0 {
		errs = append(errs, errors.New("eligibility.companion_age_threshold must be positive"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel parses the configured level
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", l.Level, err)
	}
	return level, nil
}

// FactoryConfig converts the configuration into factory settings
func (c Config) FactoryConfig(logger *slog.Logger) factory.Config {
	redisCfg := c.Storage.Redis
	sqliteCfg := c.Storage.SQLite
	return factory.Config{
		Logger:            logger,
		StorageType:       c.Storage.Type,
		RedisConfig:       &redisCfg,
		SQLiteConfig:      &sqliteCfg,
		AuthConfig:        c.Auth,
		EligibilityConfig: c.Eligibility,
	}
}
