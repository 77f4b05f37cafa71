package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies CORTEX_* environment variable overrides, and
// returns the final Config. A missing file is not an error; the defaults plus
// environment overrides are returned instead. The returned Config has NOT
// been validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CORTEX_* environment variables and
// overwrites the corresponding Config fields when a variable is set. Variable
// names use a double underscore between the section and the key, mirroring
// the TOML structure: CORTEX_SERVER__PORT overrides server.port.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setStr(&cfg.Server.Host, "CORTEX_SERVER__HOST")
	setInt(&cfg.Server.Port, "CORTEX_SERVER__PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "CORTEX_SERVER__CORS_ORIGINS")

	// ── Database (ClickHouse) ──
	setStr(&cfg.Database.URL, "CORTEX_DATABASE__URL")
	setStr(&cfg.Database.Database, "CORTEX_DATABASE__DATABASE")
	setStr(&cfg.Database.User, "CORTEX_DATABASE__USER")
	setStr(&cfg.Database.Password, "CORTEX_DATABASE__PASSWORD")

	// ── Postgres registry ──
	setStr(&cfg.Postgres.URL, "CORTEX_POSTGRES__URL")
	setInt(&cfg.Postgres.MaxConns, "CORTEX_POSTGRES__MAX_CONNS")
	setInt(&cfg.Postgres.MinConns, "CORTEX_POSTGRES__MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "CORTEX_POSTGRES__RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "CORTEX_REDIS__ADDR")
	setStr(&cfg.Redis.Password, "CORTEX_REDIS__PASSWORD")
	setInt(&cfg.Redis.DB, "CORTEX_REDIS__DB")
	setInt(&cfg.Redis.PoolSize, "CORTEX_REDIS__POOL_SIZE")
	setInt(&cfg.Redis.TTLSeconds, "CORTEX_REDIS__TTL_SECONDS")

	// ── Providers ──
	setStr(&cfg.Helius.APIKey, "CORTEX_HELIUS__API_KEY")
	setStr(&cfg.Helius.BaseURL, "CORTEX_HELIUS__BASE_URL")
	setStr(&cfg.Lyslabs.APIKey, "CORTEX_LYSLABS__API_KEY")
	setStr(&cfg.Lyslabs.WsURL, "CORTEX_LYSLABS__WS_URL")
	setStr(&cfg.Jupiter.PriceURL, "CORTEX_JUPITER__PRICE_URL")
	setStr(&cfg.Polymarket.GammaHost, "CORTEX_POLYMARKET__GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "CORTEX_POLYMARKET__CLOB_HOST")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "CORTEX_ARCHIVE__ENABLED")
	setStr(&cfg.Archive.Endpoint, "CORTEX_ARCHIVE__ENDPOINT")
	setStr(&cfg.Archive.Region, "CORTEX_ARCHIVE__REGION")
	setStr(&cfg.Archive.Bucket, "CORTEX_ARCHIVE__BUCKET")
	setStr(&cfg.Archive.Prefix, "CORTEX_ARCHIVE__PREFIX")
	setStr(&cfg.Archive.AccessKey, "CORTEX_ARCHIVE__ACCESS_KEY")
	setStr(&cfg.Archive.SecretKey, "CORTEX_ARCHIVE__SECRET_KEY")

	// ── Indexer ──
	setInt(&cfg.Indexer.MaxHistoricalTransactions, "CORTEX_INDEXER__MAX_HISTORICAL_TRANSACTIONS")
	setInt(&cfg.Indexer.ChannelCapacity, "CORTEX_INDEXER__CHANNEL_CAPACITY")
	setInt(&cfg.Indexer.MaxReconnectAttempts, "CORTEX_INDEXER__MAX_RECONNECT_ATTEMPTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "CORTEX_LOG_LEVEL")
	if os.Getenv("CORTEX_DEMO_MODE") != "" {
		cfg.DemoMode = true
	}
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
