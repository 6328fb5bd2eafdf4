package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	if err == nil {
		// An explicit but missing file is an error; load without one instead.
		t.Fatalf("expected error for missing explicit file, got config %+v", cfg)
	}

	cfg, err = NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Store.Backend != "none" {
		t.Errorf("store.backend = %q, want none", cfg.Store.Backend)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "auto" {
		t.Errorf("log defaults = %+v", cfg.Log)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conductor.yaml")
	content := `
server:
  port: 9090
store:
  backend: sqlite
  path: /tmp/handlers.db
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().WithConfigFile(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d", cfg.Server.Port)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path != "/tmp/handlers.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "auto" {
		t.Errorf("unset keys keep defaults, log.format = %q", cfg.Log.Format)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONDUCTOR_SERVER_PORT", "7070")
	t.Setenv("CONDUCTOR_STORE_BACKEND", "redis")
	t.Setenv("CONDUCTOR_STORE_ADDR", "redis.internal:6379")

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Store.Backend != "redis" || cfg.Store.Addr != "redis.internal:6379" {
		t.Errorf("store = %+v", cfg.Store)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "out of range"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "mongo" }, "unknown store.backend"},
		{"sqlite needs path", func(c *Config) { c.Store.Backend = "sqlite"; c.Store.Path = "" }, "requires store.path"},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }, "unknown log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "unknown log.format"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestWriteExample(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), ".conductor.yaml")

	if err := WriteExample(path); err != nil {
		t.Fatalf("WriteExample() error = %v", err)
	}

	cfg, err := NewLoader().WithConfigFile(path).Load()
	if err != nil {
		t.Fatalf("loading written example: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("example must validate: %v", err)
	}

	if err := WriteExample(path); err == nil {
		t.Error("WriteExample must refuse to overwrite")
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()
	c := ServerConfig{Host: "127.0.0.1", Port: 4000}
	if got := c.Addr(); got != "127.0.0.1:4000" {
		t.Errorf("Addr() = %q", got)
	}
}
