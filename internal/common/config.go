// Package common provides shared utilities for Scrip
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Scrip
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Telegram    TelegramConfig  `toml:"telegram"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Collector   CollectorConfig `toml:"collector"`
	Report      ReportConfig    `toml:"report"`
	Notify      NotifyConfig    `toml:"notify"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds SurrealDB connection configuration.
type StorageConfig struct {
	Address   string `toml:"address"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD  EODHDConfig  `toml:"eodhd"`
	Gemini GeminiConfig `toml:"gemini"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the generation timeout duration
func (c *GeminiConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 3 * time.Minute
	}
	return d
}

// TelegramConfig holds bot transport configuration.
// PasswordHash is a bcrypt hash of the /auth shared secret; Password is the
// plain-text fallback for development setups.
type TelegramConfig struct {
	Token        string `toml:"token"`
	Password     string `toml:"password"`
	PasswordHash string `toml:"password_hash"`
	RateLimit    int    `toml:"rate_limit"`
}

// SchedulerConfig holds the daily run trigger configuration.
// Schedule is a standard 5-field cron spec evaluated in Timezone.
type SchedulerConfig struct {
	Timezone string `toml:"timezone"`
	Schedule string `toml:"schedule"`
}

// CollectorConfig holds batching configuration for outbound collection calls.
type CollectorConfig struct {
	MarketBatchSize int    `toml:"market_batch_size"`
	NewsBatchSize   int    `toml:"news_batch_size"`
	BatchDelay      string `toml:"batch_delay"`
}

// GetBatchDelay parses and returns the inter-batch delay
func (c *CollectorConfig) GetBatchDelay() time.Duration {
	d, err := time.ParseDuration(c.BatchDelay)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// ReportConfig holds report cache configuration.
type ReportConfig struct {
	LockTimeout string `toml:"lock_timeout"`
}

// GetLockTimeout parses and returns the per-ticker lock wait bound
func (c *ReportConfig) GetLockTimeout() time.Duration {
	d, err := time.ParseDuration(c.LockTimeout)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// NotifyConfig holds delivery fan-out configuration.
type NotifyConfig struct {
	BatchSize  int    `toml:"batch_size"`
	BatchDelay string `toml:"batch_delay"`
}

// GetBatchDelay parses and returns the inter-batch delivery delay
func (c *NotifyConfig) GetBatchDelay() time.Duration {
	d, err := time.ParseDuration(c.BatchDelay)
	if err != nil {
		return time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Address:   "ws://localhost:8000",
			Username:  "root",
			Password:  "root",
			Namespace: "scrip",
			Database:  "scrip",
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
			Gemini: GeminiConfig{
				Model:   "gemini-2.0-flash",
				Timeout: "3m",
			},
		},
		Telegram: TelegramConfig{
			RateLimit: 25,
		},
		Scheduler: SchedulerConfig{
			Timezone: "Asia/Seoul",
			Schedule: "0 9 * * 1-5",
		},
		Collector: CollectorConfig{
			MarketBatchSize: 5,
			NewsBatchSize:   3,
			BatchDelay:      "2s",
		},
		Report: ReportConfig{
			LockTimeout: "2m",
		},
		Notify: NotifyConfig{
			BatchSize:  25,
			BatchDelay: "1s",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Outputs:  []string{"console"},
			FilePath: "./logs/scrip.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
// The returned config is validated — an invalid timezone or batch
// parameter fails here, at startup, not at first use.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SCRIP_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("SCRIP_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("SCRIP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("SCRIP_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if addr := os.Getenv("SCRIP_STORAGE_ADDRESS"); addr != "" {
		config.Storage.Address = addr
	}

	if tz := os.Getenv("SCRIP_BUSINESS_TIMEZONE"); tz != "" {
		config.Scheduler.Timezone = tz
	}

	if v := os.Getenv("SCRIP_MARKET_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Collector.MarketBatchSize = n
		}
	}
	if v := os.Getenv("SCRIP_NEWS_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Collector.NewsBatchSize = n
		}
	}
	if v := os.Getenv("SCRIP_BATCH_DELAY"); v != "" {
		config.Collector.BatchDelay = v
	}

	if v := os.Getenv("SCRIP_TELEGRAM_TOKEN"); v != "" {
		config.Telegram.Token = v
	}
	if v := os.Getenv("SCRIP_TELEGRAM_PASSWORD"); v != "" {
		config.Telegram.Password = v
	}
	if v := os.Getenv("EODHD_API_KEY"); v != "" {
		config.Clients.EODHD.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Clients.Gemini.APIKey = v
	}
}

// Validate checks the configuration for startup-fatal errors.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("business timezone %q: %w", c.Scheduler.Timezone, err)
	}
	if c.Collector.MarketBatchSize <= 0 {
		return fmt.Errorf("market_batch_size must be positive, got %d", c.Collector.MarketBatchSize)
	}
	if c.Collector.NewsBatchSize <= 0 {
		return fmt.Errorf("news_batch_size must be positive, got %d", c.Collector.NewsBatchSize)
	}
	if d, err := time.ParseDuration(c.Collector.BatchDelay); err != nil {
		return fmt.Errorf("batch_delay %q: %w", c.Collector.BatchDelay, err)
	} else if d < 0 {
		return fmt.Errorf("batch_delay must be non-negative, got %s", d)
	}
	if c.Notify.BatchSize <= 0 {
		return fmt.Errorf("notify batch_size must be positive, got %d", c.Notify.BatchSize)
	}
	return nil
}

// BusinessLocation returns the validated business timezone location.
func (c *Config) BusinessLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		// Validate() rejects bad timezones at load time.
		return time.UTC
	}
	return loc
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
