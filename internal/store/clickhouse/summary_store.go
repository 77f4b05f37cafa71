package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/solderlabs/cortex/internal/domain"
)

// SummaryStore persists per-wallet rollups as versioned rows.
type SummaryStore struct {
	conn driver.Conn
}

// NewSummaryStore creates a SummaryStore backed by the given client.
func NewSummaryStore(c *Client) *SummaryStore {
	return &SummaryStore{conn: c.Conn()}
}

// Upsert overwrites the wallet's rollup by inserting a new version row; the
// ReplacingMergeTree keeps the latest updated_at per wallet.
func (s *SummaryStore) Upsert(ctx context.Context, summary domain.WalletSummary) error {
	protocols := append([]string(nil), summary.Protocols...)
	sort.Strings(protocols)

	const q = `INSERT INTO wallet_summaries
		(wallet, total_value_usd, realized_pnl_24h, realized_pnl_7d, realized_pnl_30d,
		 unrealized_pnl, largest_position_pct, protocol_count, position_count,
		 risk_score, last_activity, protocols, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now64(3))`

	err := s.conn.Exec(ctx, q,
		summary.Wallet,
		summary.TotalValueUSD,
		summary.RealizedPnl24h,
		summary.RealizedPnl7d,
		summary.RealizedPnl30d,
		summary.UnrealizedPnl,
		summary.LargestPositionPct,
		uint8(summary.ProtocolCount),
		uint16(summary.PositionCount),
		uint8(summary.RiskScore),
		time.UnixMilli(summary.LastActivityMs),
		protocols,
	)
	if err != nil {
		return fmt.Errorf("clickhouse: %w: upsert summary %s: %v", domain.ErrStore, summary.Wallet, err)
	}
	return nil
}

// Get returns the wallet's current rollup, or domain.ErrNotFound when the
// wallet has never been summarised.
func (s *SummaryStore) Get(ctx context.Context, wallet string) (domain.WalletSummary, error) {
	const q = `SELECT wallet, total_value_usd, realized_pnl_24h, realized_pnl_7d,
			realized_pnl_30d, unrealized_pnl, largest_position_pct, protocol_count,
			position_count, risk_score, last_activity, protocols
		FROM wallet_summaries FINAL
		WHERE wallet = ?`

	var (
		out           domain.WalletSummary
		protocolCount uint8
		positionCount uint16
		riskScore     uint8
		lastActivity  time.Time
	)
	row := s.conn.QueryRow(ctx, q, wallet)
	err := row.Scan(
		&out.Wallet,
		&out.TotalValueUSD,
		&out.RealizedPnl24h,
		&out.RealizedPnl7d,
		&out.RealizedPnl30d,
		&out.UnrealizedPnl,
		&out.LargestPositionPct,
		&protocolCount,
		&positionCount,
		&riskScore,
		&lastActivity,
		&out.Protocols,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WalletSummary{}, domain.ErrNotFound
		}
		return domain.WalletSummary{}, fmt.Errorf("clickhouse: %w: get summary %s: %v", domain.ErrStore, wallet, err)
	}
	out.ProtocolCount = int(protocolCount)
	out.PositionCount = int(positionCount)
	out.RiskScore = int(riskScore)
	out.LastActivityMs = lastActivity.UnixMilli()
	return out, nil
}

// Compile-time interface check.
var _ domain.SummaryStore = (*SummaryStore)(nil)
