// Package config loads service settings from code defaults, an optional
// YAML file and OP_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable.
const EnvPrefix = "OP"

// FileEnv names the variable holding the YAML config file path.
const FileEnv = "OP_CONFIG_FILE"

// Storage backends.
const (
	StorageOxiDB  = "oxidb"
	StorageMemory = "memory"
)

type Config struct {
	Addr            string        `yaml:"addr" split_words:"true"`
	Storage         string        `yaml:"storage" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`

	OxiDB OxiDBConfig `yaml:"oxidb" envconfig:"OXIDB"`
	Auth  AuthConfig  `yaml:"auth" envconfig:"AUTH"`
	Log   LogConfig   `yaml:"log" envconfig:"LOG"`
	Cache CacheConfig `yaml:"cache" envconfig:"CACHE"`
}

type OxiDBConfig struct {
	Host      string        `yaml:"host" split_words:"true"`
	Port      int           `yaml:"port" split_words:"true"`
	PoolSize  int           `yaml:"pool_size" split_words:"true"`
	Keepalive time.Duration `yaml:"keepalive" split_words:"true"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret" split_words:"true"`
	TokenTTL      time.Duration `yaml:"token_ttl" split_words:"true"`
	AdminEmail    string        `yaml:"admin_email" split_words:"true"`
	AdminPassword string        `yaml:"admin_password" split_words:"true"`
}

type LogConfig struct {
	Level    string `yaml:"level" split_words:"true"`
	Format   string `yaml:"format" split_words:"true"`
	GelfAddr string `yaml:"gelf_addr" split_words:"true"`
}

// CacheConfig sizes the form cache. Size 0 disables it.
type CacheConfig struct {
	Size int           `yaml:"size" split_words:"true"`
	TTL  time.Duration `yaml:"ttl" split_words:"true"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		Storage:         StorageOxiDB,
		ShutdownTimeout: 15 * time.Second,
		OxiDB: OxiDBConfig{
			Host:      "127.0.0.1",
			Port:      4444,
			PoolSize:  3,
			Keepalive: 30 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:     "orderportal-dev-secret-change-me",
			TokenTTL:      24 * time.Hour,
			AdminEmail:    "admin@orderportal.local",
			AdminPassword: "admin12345",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Cache: CacheConfig{
			Size: 256,
			TTL:  time.Minute,
		},
	}
}

func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	switch c.Storage {
	case StorageOxiDB:
		if c.OxiDB.Host == "" {
			errs = append(errs, errors.New("oxidb host must not be empty"))
		}
		if c.OxiDB.Port < 1 || c.OxiDB.Port > 65535 {
			errs = append(errs, fmt.Errorf("oxidb port %d out of range", c.OxiDB.Port))
		}
		if c.OxiDB.PoolSize < 1 {
			errs = append(errs, fmt.Errorf("oxidb pool size must be positive, got %d", c.OxiDB.PoolSize))
		}
		if c.OxiDB.Keepalive <= 0 {
			errs = append(errs, errors.New("oxidb keepalive must be positive"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", c.Storage))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret must not be empty"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.Cache.Size < 0 {
		errs = append(errs, errors.New("cache size must not be negative"))
	}
	if c.Cache.Size > 0 && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache ttl must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// SetupLogger builds the process logger writing to w and makes it the
// slog default.
func SetupLogger(cfg *Config, w io.Writer) *slog.Logger {
	level, _ := parseLevel(cfg.Log.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler).With(slog.String("service", "orderportal"))
	slog.SetDefault(logger)
	return logger
}
