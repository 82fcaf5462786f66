package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Storage.Driver != "file" || cfg.Storage.DSN != "data/carts" {
		t.Errorf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.DefaultLang != "es" {
		t.Errorf("expected default language es, got %s", cfg.DefaultLang)
	}
	if cfg.IsProd() {
		t.Errorf("default env must not be prod")
	}
}

func TestLoadPortFallback(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected PORT fallback, got %s", cfg.Server.Addr)
	}

	t.Setenv("MITIENDA_HTTP_ADDR", "127.0.0.1:7000")
	cfg, err = Load(New(), "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" {
		t.Errorf("expected explicit addr to win over PORT, got %s", cfg.Server.Addr)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MITIENDA_STORAGE_DRIVER", "SQLite")
	t.Setenv("MITIENDA_STORAGE_DSN", "carts.db")
	t.Setenv("MITIENDA_LOG_LEVEL", "debug")
	t.Setenv("MITIENDA_DEFAULT_LANG", "en")
	t.Setenv("MITIENDA_HTTP_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.DSN != "carts.db" {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Log.Level)
	}
	if cfg.DefaultLang != "en" {
		t.Errorf("expected en, got %s", cfg.DefaultLang)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("unexpected shutdown timeout: %s", cfg.Server.ShutdownTimeout)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mitienda.yaml")
	body := "env: staging\nhttp:\n  addr: \":8181\"\nstorage:\n  driver: memory\nsession:\n  ttl: 1h\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Env != "staging" || cfg.Server.Addr != ":8181" || cfg.Storage.Driver != "memory" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Session.TTL != time.Hour {
		t.Errorf("unexpected session ttl: %s", cfg.Session.TTL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Env: "local",
			Server: ServerConfig{
				Addr: ":8080", ReadTimeout: time.Second, WriteTimeout: time.Second,
				IdleTimeout: time.Second, RequestTimeout: time.Second, ShutdownTimeout: time.Second,
			},
			Storage:     StorageConfig{Driver: "memory"},
			Log:         LogConfig{Level: "info"},
			Session:     SessionConfig{TTL: time.Hour},
			DefaultLang: "es",
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("base config must validate: %v", err)
	}

	tests := map[string]struct {
		mutate func(*Config)
		want   error
	}{
		"unknown driver":   {mutate: func(c *Config) { c.Storage.Driver = "redis" }, want: ErrInvalid},
		"file without dsn": {mutate: func(c *Config) { c.Storage.Driver = "file" }, want: ErrInvalid},
		"zero timeout":     {mutate: func(c *Config) { c.Server.ReadTimeout = 0 }, want: ErrInvalid},
		"bad level":        {mutate: func(c *Config) { c.Log.Level = "loud" }, want: ErrInvalid},
		"prod without key": {mutate: func(c *Config) { c.Env = "prod" }, want: ErrSigningKeyRequired},
		"missing lang":     {mutate: func(c *Config) { c.DefaultLang = "" }, want: ErrInvalid},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
