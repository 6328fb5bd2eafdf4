// Package config loads server configuration from files, environment
// variables, and CLI flags.
package config

import (
	"fmt"
	"strings"
)

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	// Backend is one of none, memory, sqlite, json, redis.
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Path is the database or file path for sqlite and json backends.
	Path string `mapstructure:"path" yaml:"path"`

	// Redis connection settings.
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}

	switch c.Store.Backend {
	case "none", "memory", "redis":
	case "sqlite", "json":
		if c.Store.Path == "" {
			errs = append(errs, fmt.Sprintf("store.backend %q requires store.path", c.Store.Backend))
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown store.backend %q", c.Store.Backend))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log.level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("unknown log.format %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
