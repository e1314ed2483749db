package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.Database.Driver)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, 10*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Provisioning.TaskTimeout)
	assert.Equal(t, 2, cfg.Provisioning.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Listing.CacheTTL)
	assert.Equal(t, uint32(64*1024), cfg.Argon2.Memory)
	assert.Equal(t, uint32(3), cfg.Argon2.Iterations)
	assert.Equal(t, uint8(2), cfg.Argon2.Parallelism)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("IDENTITY_BASE_URL", "http://identity.local")
	t.Setenv("IDENTITY_TIMEOUT", "2s")
	t.Setenv("LISTING_CACHE_TTL", "250ms")
	t.Setenv("WORKER_CONCURRENCY", "8")
	t.Setenv("SECURE_DEVELOPMENT", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, StoreDriverMemory, cfg.Database.Driver)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Redis.URL)
	assert.Equal(t, "http://identity.local", cfg.Identity.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Listing.CacheTTL)
	assert.Equal(t, 8, cfg.Provisioning.Concurrency)
	assert.True(t, cfg.Security.Development)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: \"7070\"\nLOG_LEVEL: debug\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.LogLevel, "environment overrides the file")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database:     DatabaseConfig{Driver: StoreDriverPostgres, URL: "postgres://x"},
			Identity:     IdentityConfig{BaseURL: "http://x", Timeout: time.Second},
			Provisioning: ProvisioningConfig{TaskTimeout: time.Second},
			Listing:      ListingConfig{CacheTTL: time.Second},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"unknown driver":    func(c *Config) { c.Database.Driver = "mysql" },
		"missing dsn":       func(c *Config) { c.Database.URL = "" },
		"missing identity":  func(c *Config) { c.Identity.BaseURL = "" },
		"zero timeout":      func(c *Config) { c.Identity.Timeout = 0 },
		"zero task timeout": func(c *Config) { c.Provisioning.TaskTimeout = 0 },
		"zero listing ttl":  func(c *Config) { c.Listing.CacheTTL = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	c := valid()
	c.Database = DatabaseConfig{Driver: StoreDriverMemory}
	assert.NoError(t, c.Validate())
}
