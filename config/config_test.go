package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("success - defaults without a file", func(t *testing.T) {
		cfg, err := Load(t.TempDir())

		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 8*time.Second, cfg.GetDeliveryTimeout())
		assert.Equal(t, 3*time.Second, cfg.GetRetryPollInterval())
		assert.Equal(t, 24*time.Hour, cfg.GetLastPayloadTTL())
		assert.Equal(t, 8, cfg.GetRetryMaxAttempts())
		assert.Equal(t, 50, cfg.GetFastLogSize())
		assert.Equal(t, 100, cfg.HistoryLimit)
		assert.False(t, cfg.RedisEnabled())
		assert.False(t, cfg.PostgresEnabled())
	})

	t.Run("success - file values", func(t *testing.T) {
		dir := t.TempDir()
		content := `
PORT = "9090"
REDIS_ADDR = "localhost:6379"
RETRY_MAX_ATTEMPTS = 5
SUBSCRIBERS_FILE = "config/subscribers.yaml"
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

		cfg, err := Load(dir)

		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, "localhost:6379", cfg.RedisAddr)
		assert.True(t, cfg.RedisEnabled())
		assert.Equal(t, 5, cfg.GetRetryMaxAttempts())
		assert.Equal(t, "config/subscribers.yaml", cfg.SubscribersFile)
	})

	t.Run("success - environment overrides file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(`PORT = "9090"`), 0o600))
		t.Setenv("PORT", "7070")
		t.Setenv("RETRY_CONCURRENCY", "4")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load(dir)

		require.NoError(t, err)
		assert.Equal(t, "7070", cfg.Port)
		assert.Equal(t, 4, cfg.GetRetryConcurrency())
		assert.Equal(t, zerolog.DebugLevel, cfg.GetLogLevel())
	})

	t.Run("error - malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT = = ="), 0o600))

		_, err := Load(dir)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading config file")
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"error - zero attempts", func(c *Config) { c.RetryMaxAttempts = 0 }, "RETRY_MAX_ATTEMPTS"},
		{"error - negative timeout", func(c *Config) { c.DeliveryTimeoutMS = -1 }, "DELIVERY_TIMEOUT_MS"},
		{"error - zero concurrency", func(c *Config) { c.RetryConcurrency = 0 }, "RETRY_CONCURRENCY"},
		{"error - negative history limit", func(c *Config) { c.HistoryLimit = -5 }, "HISTORY_LIMIT"},
		{"error - bad log level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
		{"error - empty port", func(c *Config) { c.Port = "" }, "PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_Postgres(t *testing.T) {
	t.Run("success - dsn wins", func(t *testing.T) {
		cfg := &Config{PostgresDSN: "postgres://u:p@db:5432/app", PostgresHost: "ignored"}

		require.NoError(t, cfg.ValidatePostgres())
		assert.True(t, cfg.PostgresEnabled())
		assert.Equal(t, "postgres://u:p@db:5432/app", cfg.PostgresConnectionString())
	})

	t.Run("success - built from parts", func(t *testing.T) {
		cfg := &Config{
			PostgresHost:     "db",
			PostgresPort:     "5433",
			PostgresUser:     "outbox",
			PostgresPassword: "p@ss word",
			PostgresDB:       "webhooks",
			PostgresSSLMode:  "require",
		}

		require.NoError(t, cfg.ValidatePostgres())
		assert.Equal(t, "postgres://outbox:p%40ss%20word@db:5433/webhooks?sslmode=require", cfg.PostgresConnectionString())
	})

	t.Run("error - missing host", func(t *testing.T) {
		cfg := &Config{PostgresUser: "u", PostgresDB: "d"}
		assert.Error(t, cfg.ValidatePostgres())
	})

	t.Run("success - pool defaults", func(t *testing.T) {
		cfg := &Config{}
		assert.Equal(t, 25, cfg.GetPostgresMaxOpenConns())
		assert.Equal(t, 5, cfg.GetPostgresMaxIdleConns())
		assert.Equal(t, 5, cfg.GetPostgresConnMaxLifeMinutes())
	})
}
