package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
// Defaults are overlaid by the optional YAML file named in CONFIG_FILE,
// then by environment variables.
type Config struct {
	// Server
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Upstream PPOB API
	PPOBAPIURL string `yaml:"ppob_api_url"`

	// HTTP client
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// Resilience
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxConcurrency int           `yaml:"max_concurrency"`

	// Sessions
	SessionTTL time.Duration `yaml:"session_ttl"`

	// Observability
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Credential persistence; empty RedisAddr keeps tokens in memory
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisTimeout  time.Duration `yaml:"redis_timeout"`

	// Client-side rules
	MinTopUp             int64 `yaml:"min_topup"`
	MaxTopUp             int64 `yaml:"max_topup"`
	HistoryPageSize      int   `yaml:"history_page_size"`
	MaxProfileImageBytes int   `yaml:"max_profile_image_bytes"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Port:     8080,
		LogLevel: "info",

		PPOBAPIURL: "https://take-home-test-api.nutech-integrasi.com",

		HTTPTimeout: 10 * time.Second,

		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxConcurrency: 50,

		SessionTTL: 30 * time.Minute,

		RedisTimeout: 3 * time.Second,

		MinTopUp:             10_000,
		MaxTopUp:             1_000_000,
		HistoryPageSize:      5,
		MaxProfileImageBytes: 100 * 1024,
	}
}

// Load builds the configuration from defaults, the CONFIG_FILE overlay and
// the environment, in that order of precedence (environment wins).
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.PPOBAPIURL = getEnv("PPOB_API_URL", cfg.PPOBAPIURL)

	cfg.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", cfg.HTTPTimeout)

	cfg.MaxRetries = getEnvInt("MAX_RETRIES", cfg.MaxRetries)
	cfg.InitialBackoff = getEnvDuration("INITIAL_BACKOFF", cfg.InitialBackoff)
	cfg.MaxConcurrency = getEnvInt("MAX_CONCURRENCY", cfg.MaxConcurrency)

	cfg.SessionTTL = getEnvDuration("SESSION_TTL", cfg.SessionTTL)

	cfg.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)

	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisTimeout = getEnvDuration("REDIS_TIMEOUT", cfg.RedisTimeout)

	cfg.MinTopUp = getEnvInt64("MIN_TOPUP", cfg.MinTopUp)
	cfg.MaxTopUp = getEnvInt64("MAX_TOPUP", cfg.MaxTopUp)
	cfg.HistoryPageSize = getEnvInt("HISTORY_PAGE_SIZE", cfg.HistoryPageSize)
	cfg.MaxProfileImageBytes = getEnvInt("MAX_PROFILE_IMAGE_BYTES", cfg.MaxProfileImageBytes)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the stores cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.PPOBAPIURL == "" {
		errs = append(errs, errors.New("ppob_api_url is required"))
	}
	if c.MinTopUp <= 0 || c.MaxTopUp < c.MinTopUp {
		errs = append(errs, fmt.Errorf("invalid top-up bounds [%d, %d]", c.MinTopUp, c.MaxTopUp))
	}
	if c.HistoryPageSize <= 0 {
		errs = append(errs, fmt.Errorf("history_page_size must be positive, got %d", c.HistoryPageSize))
	}
	if c.MaxProfileImageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_profile_image_bytes must be positive, got %d", c.MaxProfileImageBytes))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL))
	}
	if c.RedisAddr != "" && c.RedisTimeout <= 0 {
		errs = append(errs, fmt.Errorf("redis_timeout must be positive, got %s", c.RedisTimeout))
	}
	return errors.Join(errs...)
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
