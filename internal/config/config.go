// Package config loads the service configuration from TOML files and
// RHYTHM_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/rhythmrisk/pkg/database"
	"github.com/JaimeStill/rhythmrisk/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvRhythmEnv             = "RHYTHM_ENV"
	EnvRhythmShutdownTimeout = "RHYTHM_SHUTDOWN_TIMEOUT"
	EnvRhythmVersion         = "RHYTHM_VERSION"
	EnvRhythmLogLevel        = "RHYTHM_LOG_LEVEL"
)

var databaseEnv = &database.Env{
	URL:             "RHYTHM_DATABASE_URL",
	Host:            "RHYTHM_DB_HOST",
	Port:            "RHYTHM_DB_PORT",
	Name:            "RHYTHM_DB_NAME",
	User:            "RHYTHM_DB_USER",
	Password:        "RHYTHM_DB_PASSWORD",
	SSLMode:         "RHYTHM_DB_SSL_MODE",
	MaxOpenConns:    "RHYTHM_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "RHYTHM_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "RHYTHM_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "RHYTHM_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Driver:           "RHYTHM_STORAGE_DRIVER",
	ContainerName:    "RHYTHM_STORAGE_CONTAINER_NAME",
	ConnectionString: "RHYTHM_STORAGE_CONNECTION_STRING",
	ServiceURL:       "RHYTHM_STORAGE_SERVICE_URL",
}

// Config is the root configuration for the rhythmrisk service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Auth            AuthConfig       `toml:"auth"`
	Processing      ProcessingConfig `toml:"processing"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
	LogLevel        string           `toml:"log_level"`
}

// Env returns the RHYTHM_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvRhythmEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with config files resolved relative to dir.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{}

	base := dir + string(os.PathSeparator) + BaseConfigFile
	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(dir); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Processing.Merge(&overlay.Processing)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Auth.Finalize(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Processing.Finalize(); err != nil {
		return fmt.Errorf("processing: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvRhythmShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvRhythmVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvRhythmLogLevel); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %q", c.LogLevel)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvRhythmEnv); env != "" {
		path := dir + string(os.PathSeparator) + fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
