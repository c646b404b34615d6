package config

import (
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the runtime settings for stitch-flow. Values come from an
// optional YAML file; environment variables always win.
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`

	// DatabasePath is the SQLite file holding profile, projects and sessions.
	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH" env-default:"stitch-flow.db"`

	// LegacyStorePath is the badger directory written by older releases.
	// Empty or missing means there is nothing to migrate.
	LegacyStorePath string `yaml:"legacy_store_path" env:"LEGACY_STORE_PATH" env-default:""`

	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

// Load reads the configuration. When path is empty only the environment
// is consulted.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read config from environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("database_path must not be empty")
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.BindAddr, c.Port)
}

// Level parses LogLevel (debug, info, warn, error).
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
