package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(FileEnv, "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
storage: memory
oxidb:
  host: db.internal
  pool_size: 8
log:
  level: debug
cache:
  ttl: 5m
`), 0o600))
	t.Setenv(FileEnv, path)
	t.Setenv("OP_OXIDB_POOL_SIZE", "4")
	t.Setenv("OP_LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "db.internal", cfg.OxiDB.Host)
	assert.Equal(t, 4444, cfg.OxiDB.Port)
	assert.Equal(t, 4, cfg.OxiDB.PoolSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 256, cfg.Cache.Size)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"storage", func(c *Config) { c.Storage = "couchdb" }},
		{"port", func(c *Config) { c.OxiDB.Port = 0 }},
		{"pool", func(c *Config) { c.OxiDB.PoolSize = 0 }},
		{"secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"level", func(c *Config) { c.Log.Level = "loud" }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
		{"cache ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"shutdown", func(c *Config) { c.ShutdownTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			require.Error(t, cfg.validate())
		})
	}

	// storage settings are not checked in memory mode
	cfg := Default()
	cfg.Storage = StorageMemory
	cfg.OxiDB.Port = 0
	require.NoError(t, cfg.validate())
	// nor the ttl of a disabled cache
	cfg.Cache = CacheConfig{}
	require.NoError(t, cfg.validate())
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Level = "warn"
	logger := SetupLogger(cfg, &buf)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"service":"orderportal"`)
}
