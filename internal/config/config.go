// Package config defines the top-level configuration for the cortex indexer
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by CORTEX_* environment variables.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	Helius     HeliusConfig     `toml:"helius"`
	Lyslabs    LyslabsConfig    `toml:"lyslabs"`
	Jupiter    JupiterConfig    `toml:"jupiter"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Archive    ArchiveConfig    `toml:"archive"`
	Indexer    IndexerConfig    `toml:"indexer"`
	LogLevel   string           `toml:"log_level"`
	DemoMode   bool             `toml:"demo_mode"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// DatabaseConfig holds ClickHouse connection parameters.
type DatabaseConfig struct {
	URL      string `toml:"url"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

// PostgresConfig holds the subscription-registry database parameters. When URL
// is empty the registry is disabled and subscriptions do not survive restarts.
type PostgresConfig struct {
	URL           string `toml:"url"`
	MaxConns      int    `toml:"max_conns"`
	MinConns      int    `toml:"min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the price cache. When Addr
// is empty the cache is disabled and price lookups always hit the provider.
type RedisConfig struct {
	Addr        string `toml:"addr"`
	Password    string `toml:"password"`
	DB          int    `toml:"db"`
	PoolSize    int    `toml:"pool_size"`
	TTLSeconds  int    `toml:"ttl_seconds"`
}

// HeliusConfig holds the transaction-history provider parameters.
type HeliusConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// LyslabsConfig holds the live-stream provider parameters.
type LyslabsConfig struct {
	APIKey string `toml:"api_key"`
	WsURL  string `toml:"ws_url"`
}

// JupiterConfig holds the price provider parameters.
type JupiterConfig struct {
	PriceURL string `toml:"price_url"`
}

// PolymarketConfig holds the prediction-market API endpoints.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
	ClobHost  string `toml:"clob_host"`
}

// ArchiveConfig holds the optional raw-payload archive parameters. When
// disabled, raw provider frames are discarded after normalisation.
type ArchiveConfig struct {
	Enabled   bool   `toml:"enabled"`
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
}

// IndexerConfig holds tuning parameters for the subscription engine.
type IndexerConfig struct {
	MaxHistoricalTransactions int `toml:"max_historical_transactions"`
	ChannelCapacity           int `toml:"channel_capacity"`
	MaxReconnectAttempts      int `toml:"max_reconnect_attempts"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			URL:      "localhost:9000",
			Database: "cortex",
			User:     "default",
		},
		Postgres: PostgresConfig{
			MaxConns:      10,
			MinConns:      2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "",
			PoolSize:   10,
			TTLSeconds: 60,
		},
		Helius: HeliusConfig{
			BaseURL: "https://api.helius.xyz",
		},
		Lyslabs: LyslabsConfig{
			WsURL: "wss://solana-mainnet-api-vip.lyslabs.ai/v1/",
		},
		Jupiter: JupiterConfig{
			PriceURL: "https://price.jup.ag/v6/price",
		},
		Polymarket: PolymarketConfig{
			GammaHost: "https://gamma-api.polymarket.com",
			ClobHost:  "https://clob.polymarket.com",
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Region:  "us-east-1",
			Prefix:  "raw",
		},
		Indexer: IndexerConfig{
			MaxHistoricalTransactions: 1000,
			ChannelCapacity:           1000,
			MaxReconnectAttempts:      10,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if c.Database.URL == "" {
		errs = append(errs, "database: url must not be empty")
	}
	if c.Database.Database == "" {
		errs = append(errs, "database: database must not be empty")
	}

	if c.Postgres.URL != "" {
		if c.Postgres.MaxConns < 1 {
			errs = append(errs, "postgres: max_conns must be >= 1")
		}
		if c.Postgres.MinConns < 0 || c.Postgres.MinConns > c.Postgres.MaxConns {
			errs = append(errs, "postgres: min_conns must be between 0 and max_conns")
		}
	}

	if c.Helius.APIKey == "" {
		errs = append(errs, "helius: api_key must not be empty")
	}
	if c.Helius.BaseURL == "" {
		errs = append(errs, "helius: base_url must not be empty")
	}

	if c.Lyslabs.WsURL == "" {
		errs = append(errs, "lyslabs: ws_url must not be empty")
	}

	if c.Archive.Enabled {
		if c.Archive.Bucket == "" {
			errs = append(errs, "archive: bucket must not be empty when enabled")
		}
		if c.Archive.Region == "" {
			errs = append(errs, "archive: region must not be empty when enabled")
		}
	}

	if c.Indexer.MaxHistoricalTransactions < 0 {
		errs = append(errs, "indexer: max_historical_transactions must be >= 0")
	}
	if c.Indexer.ChannelCapacity < 1 {
		errs = append(errs, "indexer: channel_capacity must be >= 1")
	}
	if c.Indexer.MaxReconnectAttempts < 1 {
		errs = append(errs, "indexer: max_reconnect_attempts must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
