// Package config defines the top-level configuration for the triarb
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/bitloop-dev/triarb/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by TRIARB_* environment
// variables.
type Config struct {
	Bybit     BybitConfig     `toml:"bybit"`
	Feed      FeedConfig      `toml:"feed"`
	Arbitrage ArbitrageConfig `toml:"arbitrage"`
	Output    OutputConfig    `toml:"output"`
	Redis     RedisConfig     `toml:"redis"`
	Postgres  PostgresConfig  `toml:"postgres"`
	S3        S3Config        `toml:"s3"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// BybitConfig holds venue endpoints.
type BybitConfig struct {
	WSURL   string `toml:"ws_url"`
	RestURL string `toml:"rest_url"`
}

// FeedConfig holds market-data ingestion parameters.
type FeedConfig struct {
	Depth             int `toml:"depth"`
	MaxSymbolsPerConn int `toml:"max_symbols_per_conn"`
	MaxBookDepth      int `toml:"max_book_depth"`
}

// ArbitrageConfig holds triangle evaluation parameters.
type ArbitrageConfig struct {
	QuoteCurrency   string   `toml:"quote_currency"`
	TradeAmount     float64  `toml:"trade_amount"`
	MinProfit       float64  `toml:"min_profit"`
	MaxProfit       float64  `toml:"max_profit"`
	Interval        duration `toml:"interval"`
	UpdateThreshold int64    `toml:"update_threshold"`
}

// OutputConfig selects and parameterises the report sinks.
type OutputConfig struct {
	FilePath        string `toml:"file_path"`
	RedisEnabled    bool   `toml:"redis_enabled"`
	PostgresEnabled bool   `toml:"postgres_enabled"`
	S3Enabled       bool   `toml:"s3_enabled"`
	NotifyEnabled   bool   `toml:"notify_enabled"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	Prefix         string `toml:"prefix"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Cooldown          duration `toml:"cooldown"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder
// can parse duration strings like "1s" or "500ms".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Bybit: BybitConfig{
			WSURL:   "wss://stream.bybit.com/v5/public/spot",
			RestURL: "https://api.bybit.com",
		},
		Feed: FeedConfig{
			Depth:             50,
			MaxSymbolsPerConn: 150,
			MaxBookDepth:      50,
		},
		Arbitrage: ArbitrageConfig{
			QuoteCurrency:   "USDT",
			TradeAmount:     1000,
			MinProfit:       0.5,
			MaxProfit:       1000,
			Interval:        duration{time.Second},
			UpdateThreshold: 0,
		},
		Output: OutputConfig{
			FilePath: "data/results.json",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "triarb",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "triarb-reports",
			Prefix:         "reports",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Notify: NotifyConfig{
			Cooldown: duration{time.Minute},
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":    true,
	"execute": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, execute, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Bybit.WSURL == "" {
		errs = append(errs, "bybit: ws_url must not be empty")
	}
	if c.Bybit.RestURL == "" {
		errs = append(errs, "bybit: rest_url must not be empty")
	}

	if c.Feed.Depth <= 0 {
		errs = append(errs, fmt.Sprintf("feed: depth must be positive, got %d", c.Feed.Depth))
	}
	if c.Feed.MaxSymbolsPerConn <= 0 {
		errs = append(errs, fmt.Sprintf("feed: max_symbols_per_conn must be positive, got %d", c.Feed.MaxSymbolsPerConn))
	}
	if c.Feed.MaxBookDepth <= 0 {
		errs = append(errs, fmt.Sprintf("feed: max_book_depth must be positive, got %d", c.Feed.MaxBookDepth))
	}

	if c.Arbitrage.QuoteCurrency == "" {
		errs = append(errs, "arbitrage: quote_currency must not be empty")
	}
	if c.Arbitrage.TradeAmount <= 0 {
		errs = append(errs, fmt.Sprintf("arbitrage: trade_amount must be positive, got %v", c.Arbitrage.TradeAmount))
	}
	if c.Arbitrage.MinProfit > c.Arbitrage.MaxProfit {
		errs = append(errs, "arbitrage: min_profit must not exceed max_profit")
	}
	if c.Arbitrage.Interval.Duration <= 0 {
		errs = append(errs, "arbitrage: interval must be positive")
	}
	if c.Arbitrage.UpdateThreshold < 0 {
		errs = append(errs, "arbitrage: update_threshold must not be negative")
	}

	needsBus := c.Output.RedisEnabled || c.Mode == "execute" || c.Mode == "full"
	if needsBus && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if needsBus && c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.Output.PostgresEnabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Output.S3Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	if c.Output.NotifyEnabled {
		hasTelegram := c.Notify.TelegramToken != "" && c.Notify.TelegramChatID != ""
		hasDiscord := c.Notify.DiscordWebhookURL != ""
		if !hasTelegram && !hasDiscord {
			errs = append(errs, "notify: at least one of telegram or discord must be configured")
		}
		if c.Notify.TelegramToken != "" && c.Notify.TelegramChatID == "" {
			errs = append(errs, "notify: telegram_chat_id is required when telegram_token is set")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", domain.ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return nil
}
