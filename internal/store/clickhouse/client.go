// Package clickhouse implements the analytical store interfaces on top of
// ClickHouse. Transactions are append-only with signature dedup handled by a
// ReplacingMergeTree; summaries and positions are versioned rows read with
// FINAL.
package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClientConfig holds connection parameters for the ClickHouse client.
type ClientConfig struct {
	Addr     string
	Database string
	User     string
	Password string
}

// Client wraps a ClickHouse connection and manages schema bootstrap.
type Client struct {
	conn driver.Conn
}

// schema is the set of DDL statements applied at startup. Every statement is
// idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		signature   String,
		wallet      String,
		protocol    LowCardinality(String),
		tx_type     LowCardinality(String),
		token_in    String,
		token_out   String,
		amount_in   Float64,
		amount_out  Float64,
		usd_value   Float64,
		block_time  DateTime64(3),
		slot        UInt64
	) ENGINE = ReplacingMergeTree
	ORDER BY (wallet, signature)`,

	`CREATE TABLE IF NOT EXISTS wallet_summaries (
		wallet               String,
		total_value_usd      Float64,
		realized_pnl_24h     Float64,
		realized_pnl_7d      Float64,
		realized_pnl_30d     Float64,
		unrealized_pnl       Float64,
		largest_position_pct Float64,
		protocol_count       UInt8,
		position_count       UInt16,
		risk_score           UInt8,
		last_activity        DateTime64(3),
		protocols            Array(String),
		updated_at           DateTime64(3) DEFAULT now64(3)
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY wallet`,

	`CREATE TABLE IF NOT EXISTS positions (
		wallet         String,
		protocol       LowCardinality(String),
		position_type  LowCardinality(String),
		token          String,
		pool           String,
		amount         Float64,
		entry_price    Float64,
		current_price  Float64,
		usd_value      Float64,
		unrealized_pnl Float64,
		apy            Float64,
		updated_at     DateTime64(3) DEFAULT now64(3)
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY (wallet, protocol, position_type, token, pool)`,
}

// New opens a ClickHouse connection and pings it to verify connectivity.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse: open: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("clickhouse: ping: %w", err)
	}

	return &Client{conn: conn}, nil
}

// Bootstrap applies the idempotent schema DDL.
func (c *Client) Bootstrap(ctx context.Context) error {
	for _, stmt := range schema {
		if err := c.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("clickhouse: bootstrap schema: %w", err)
		}
	}
	return nil
}

// Ping checks the ClickHouse connection.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.conn.Ping(ctx); err != nil {
		return fmt.Errorf("clickhouse: ping: %w", err)
	}
	return nil
}

// Conn returns the underlying driver connection for the store types in this
// package.
func (c *Client) Conn() driver.Conn {
	return c.conn
}

// Close shuts down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
