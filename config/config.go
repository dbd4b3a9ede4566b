package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

/* Config is a helper package. It reads an optional .env (TOML) file and
 * environment variables; environment variables win.
 */

type Config struct {
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	PostgresDSN                string `mapstructure:"POSTGRES_DSN"`
	PostgresHost               string `mapstructure:"POSTGRES_HOST"`
	PostgresPort               string `mapstructure:"POSTGRES_PORT"`
	PostgresUser               string `mapstructure:"POSTGRES_USER"`
	PostgresPassword           string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB                 string `mapstructure:"POSTGRES_DB"`
	PostgresSSLMode            string `mapstructure:"POSTGRES_SSLMODE"`
	PostgresMaxOpenConns       int    `mapstructure:"POSTGRES_MAX_OPEN_CONNS"`
	PostgresMaxIdleConns       int    `mapstructure:"POSTGRES_MAX_IDLE_CONNS"`
	PostgresConnMaxLifeMinutes int    `mapstructure:"POSTGRES_CONN_MAX_LIFE_MINUTES"`

	SubscribersFile string `mapstructure:"SUBSCRIBERS_FILE"`

	DeliveryTimeoutMS        int `mapstructure:"DELIVERY_TIMEOUT_MS"`
	RetryMaxAttempts         int `mapstructure:"RETRY_MAX_ATTEMPTS"`
	RetryPollIntervalSeconds int `mapstructure:"RETRY_POLL_INTERVAL_SECONDS"`
	RetryBatchSize           int `mapstructure:"RETRY_BATCH_SIZE"`
	RetryConcurrency         int `mapstructure:"RETRY_CONCURRENCY"`
	FastLogSize              int `mapstructure:"FAST_LOG_SIZE"`
	LastPayloadTTLHours      int `mapstructure:"LAST_PAYLOAD_TTL_HOURS"`
	HistoryLimit             int `mapstructure:"HISTORY_LIMIT"`
}

var defaults = map[string]any{
	"PORT":                           "8080",
	"LOG_LEVEL":                      "info",
	"REDIS_ADDR":                     "",
	"REDIS_PASSWORD":                 "",
	"REDIS_DB":                       0,
	"POSTGRES_DSN":                   "",
	"POSTGRES_HOST":                  "",
	"POSTGRES_PORT":                  "5432",
	"POSTGRES_USER":                  "",
	"POSTGRES_PASSWORD":              "",
	"POSTGRES_DB":                    "",
	"POSTGRES_SSLMODE":               "disable",
	"POSTGRES_MAX_OPEN_CONNS":        25,
	"POSTGRES_MAX_IDLE_CONNS":        5,
	"POSTGRES_CONN_MAX_LIFE_MINUTES": 5,
	"SUBSCRIBERS_FILE":               "subscribers.yaml",
	"DELIVERY_TIMEOUT_MS":            8000,
	"RETRY_MAX_ATTEMPTS":             8,
	"RETRY_POLL_INTERVAL_SECONDS":    3,
	"RETRY_BATCH_SIZE":               100,
	"RETRY_CONCURRENCY":              10,
	"FAST_LOG_SIZE":                  50,
	"LAST_PAYLOAD_TTL_HOURS":         24,
	"HISTORY_LIMIT":                  100,
}

// GetConfig loads the configuration from ./.env and the environment
func GetConfig() (*Config, error) {
	return Load(".")
}

// Load reads <dir>/.env when present; a missing file is not an error
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	v.AutomaticEnv()

	// AutomaticEnv only reaches Unmarshal for keys viper already knows
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	return &config, nil
}

// Validate rejects values the engine cannot run with
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}

	positive := []struct {
		key   string
		value int
	}{
		{"DELIVERY_TIMEOUT_MS", c.DeliveryTimeoutMS},
		{"RETRY_MAX_ATTEMPTS", c.RetryMaxAttempts},
		{"RETRY_POLL_INTERVAL_SECONDS", c.RetryPollIntervalSeconds},
		{"RETRY_BATCH_SIZE", c.RetryBatchSize},
		{"RETRY_CONCURRENCY", c.RetryConcurrency},
		{"FAST_LOG_SIZE", c.FastLogSize},
		{"LAST_PAYLOAD_TTL_HOURS", c.LastPayloadTTLHours},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.key, p.value)
		}
	}

	if c.HistoryLimit < 0 {
		return fmt.Errorf("HISTORY_LIMIT must not be negative, got %d", c.HistoryLimit)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must not be negative, got %d", c.RedisDB)
	}

	return nil
}

// ValidatePostgres checks the settings needed to reach PostgreSQL
func (c *Config) ValidatePostgres() error {
	if c.PostgresDSN != "" {
		return nil
	}
	if c.PostgresHost == "" {
		return errors.New("POSTGRES_HOST or POSTGRES_DSN is required")
	}
	if c.PostgresUser == "" {
		return errors.New("POSTGRES_USER is required")
	}
	if c.PostgresDB == "" {
		return errors.New("POSTGRES_DB is required")
	}
	return nil
}

// PostgresEnabled reports whether any PostgreSQL setting was given
func (c *Config) PostgresEnabled() bool {
	return c.PostgresDSN != "" || c.PostgresHost != ""
}

// RedisEnabled reports whether a Redis address was given
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// PostgresConnectionString returns POSTGRES_DSN or builds one from the parts
func (c *Config) PostgresConnectionString() string {
	if c.PostgresDSN != "" {
		return c.PostgresDSN
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   c.PostgresHost + ":" + c.PostgresPort,
		Path:   "/" + c.PostgresDB,
	}
	q := url.Values{}
	q.Set("sslmode", c.PostgresSSLMode)
	u.RawQuery = q.Encode()

	return u.String()
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func (c *Config) GetPostgresMaxOpenConns() int {
	return positiveOr(c.PostgresMaxOpenConns, 25)
}

func (c *Config) GetPostgresMaxIdleConns() int {
	return positiveOr(c.PostgresMaxIdleConns, 5)
}

func (c *Config) GetPostgresConnMaxLifeMinutes() int {
	return positiveOr(c.PostgresConnMaxLifeMinutes, 5)
}

// GetDeliveryTimeout returns the per-attempt transport timeout
func (c *Config) GetDeliveryTimeout() time.Duration {
	return time.Duration(positiveOr(c.DeliveryTimeoutMS, 8000)) * time.Millisecond
}

// GetRetryPollInterval returns the retry poller cadence
func (c *Config) GetRetryPollInterval() time.Duration {
	return time.Duration(positiveOr(c.RetryPollIntervalSeconds, 3)) * time.Second
}

// GetLastPayloadTTL returns how long the last payload stays redeliverable
func (c *Config) GetLastPayloadTTL() time.Duration {
	return time.Duration(positiveOr(c.LastPayloadTTLHours, 24)) * time.Hour
}

func (c *Config) GetRetryMaxAttempts() int {
	return positiveOr(c.RetryMaxAttempts, 8)
}

func (c *Config) GetRetryBatchSize() int {
	return positiveOr(c.RetryBatchSize, 100)
}

func (c *Config) GetRetryConcurrency() int {
	return positiveOr(c.RetryConcurrency, 10)
}

func (c *Config) GetFastLogSize() int {
	return positiveOr(c.FastLogSize, 50)
}

// GetLogLevel returns the parsed log level, info when invalid
func (c *Config) GetLogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}
