package config

import (
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Store: StoreConfig{
			Backend: "none",
			Path:    ".conductor/handlers.db",
			Addr:    "localhost:6379",
		},
		Log: LogConfig{Level: "info", Format: "auto"},
	}
}

// WriteExample writes a starter config file with the default values. It
// refuses to overwrite an existing file.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	header := []byte("# conductor configuration\n# Values can be overridden with CONDUCTOR_* environment variables.\n")
	if err := renameio.WriteFile(path, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
