// Package config loads storefront runtime configuration from defaults, an optional YAML
// file and MITIENDA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"finitefield.org/mitienda-web/internal/i18n"
	"finitefield.org/mitienda-web/internal/storage"
)

// EnvPrefix prefixes every environment variable the storefront reads.
const EnvPrefix = "MITIENDA"

const (
	defaultPort            = "8080"
	defaultEnv             = "local"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultRequestTimeout  = 30 * time.Second
	defaultStorageDriver   = storage.DriverFile
	defaultStorageDSN      = "data/carts"
	defaultLogLevel        = "info"
	defaultSessionTTL      = 30 * 24 * time.Hour
)

// Keys understood by Load. Environment names are the upper-cased key with '.' replaced by
// '_' and the MITIENDA_ prefix, e.g. storage.driver is MITIENDA_STORAGE_DRIVER.
const (
	KeyEnv                 = "env"
	KeyHTTPAddr            = "http.addr"
	KeyHTTPReadTimeout     = "http.read_timeout"
	KeyHTTPWriteTimeout    = "http.write_timeout"
	KeyHTTPIdleTimeout     = "http.idle_timeout"
	KeyHTTPRequestTimeout  = "http.request_timeout"
	KeyHTTPShutdownTimeout = "http.shutdown_timeout"
	KeyStorageDriver       = "storage.driver"
	KeyStorageDSN          = "storage.dsn"
	KeyLogLevel            = "log.level"
	KeySessionSigningKey   = "session.signing_key"
	KeySessionTTL          = "session.ttl"
	KeyDefaultLang         = "default_lang"
)

var (
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("config: invalid")
	// ErrSigningKeyRequired is returned in prod when no session signing key is configured.
	ErrSigningKeyRequired = errors.New("config: session signing key is required in prod")
)

// Config captures runtime configuration organised by concern.
type Config struct {
	Env         string
	Server      ServerConfig
	Storage     StorageConfig
	Log         LogConfig
	Session     SessionConfig
	DefaultLang string
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// StorageConfig selects the cart storage backend.
type StorageConfig struct {
	Driver string
	DSN    string
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string
}

// SessionConfig configures the signed visitor cookie.
type SessionConfig struct {
	SigningKey string
	TTL        time.Duration
}

// IsProd reports whether the storefront runs in production mode.
func (c Config) IsProd() bool { return c.Env == "prod" }

// New returns a viper instance with defaults and environment binding applied. Callers may
// bind command-line flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyEnv, defaultEnv)
	v.SetDefault(KeyHTTPReadTimeout, defaultReadTimeout)
	v.SetDefault(KeyHTTPWriteTimeout, defaultWriteTimeout)
	v.SetDefault(KeyHTTPIdleTimeout, defaultIdleTimeout)
	v.SetDefault(KeyHTTPRequestTimeout, defaultRequestTimeout)
	v.SetDefault(KeyHTTPShutdownTimeout, defaultShutdownTimeout)
	v.SetDefault(KeyStorageDriver, defaultStorageDriver)
	v.SetDefault(KeyStorageDSN, defaultStorageDSN)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeySessionTTL, defaultSessionTTL)
	v.SetDefault(KeyDefaultLang, i18n.DefaultLang)
	return v
}

// Load reads file (when non-empty) into v and builds a validated Config.
// The listen address falls back to the PORT environment variable, then to :8080.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	cfg := Config{
		Env: strings.ToLower(strings.TrimSpace(v.GetString(KeyEnv))),
		Server: ServerConfig{
			Addr:            strings.TrimSpace(v.GetString(KeyHTTPAddr)),
			ReadTimeout:     v.GetDuration(KeyHTTPReadTimeout),
			WriteTimeout:    v.GetDuration(KeyHTTPWriteTimeout),
			IdleTimeout:     v.GetDuration(KeyHTTPIdleTimeout),
			RequestTimeout:  v.GetDuration(KeyHTTPRequestTimeout),
			ShutdownTimeout: v.GetDuration(KeyHTTPShutdownTimeout),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString(KeyStorageDriver))),
			DSN:    strings.TrimSpace(v.GetString(KeyStorageDSN)),
		},
		Log:     LogConfig{Level: strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel)))},
		Session: SessionConfig{SigningKey: v.GetString(KeySessionSigningKey), TTL: v.GetDuration(KeySessionTTL)},

		DefaultLang: strings.ToLower(strings.TrimSpace(v.GetString(KeyDefaultLang))),
	}
	if cfg.Server.Addr == "" {
		port := strings.TrimSpace(os.Getenv("PORT"))
		if port == "" {
			port = defaultPort
		}
		cfg.Server.Addr = ":" + port
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the storefront cannot run with.
func (c Config) Validate() error {
	var problems []string
	switch c.Storage.Driver {
	case storage.DriverMemory:
	case storage.DriverFile, storage.DriverSQLite:
		if c.Storage.DSN == "" {
			problems = append(problems, fmt.Sprintf("storage.dsn is required for driver %q", c.Storage.Driver))
		}
	default:
		problems = append(problems, fmt.Sprintf("storage.driver %q is not one of memory, file, sqlite", c.Storage.Driver))
	}
	for name, d := range map[string]time.Duration{
		KeyHTTPReadTimeout:     c.Server.ReadTimeout,
		KeyHTTPWriteTimeout:    c.Server.WriteTimeout,
		KeyHTTPIdleTimeout:     c.Server.IdleTimeout,
		KeyHTTPRequestTimeout:  c.Server.RequestTimeout,
		KeyHTTPShutdownTimeout: c.Server.ShutdownTimeout,
		KeySessionTTL:          c.Session.TTL,
	} {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive", name))
		}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level %q is not a valid level", c.Log.Level))
	}
	if c.DefaultLang == "" {
		problems = append(problems, "default_lang is required")
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	if c.IsProd() && strings.TrimSpace(c.Session.SigningKey) == "" {
		return ErrSigningKeyRequired
	}
	return nil
}
