package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/solderlabs/cortex/internal/domain"
)

// PositionStore persists open positions as versioned rows.
type PositionStore struct {
	conn driver.Conn
}

// NewPositionStore creates a PositionStore backed by the given client.
func NewPositionStore(c *Client) *PositionStore {
	return &PositionStore{conn: c.Conn()}
}

// Replace writes the wallet's current position set as new version rows. A
// closed position must appear in the set with amount 0 so FINAL reads mask
// its previous version.
func (s *PositionStore) Replace(ctx context.Context, wallet string, positions []domain.Position) error {
	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO positions
		(wallet, protocol, position_type, token, pool, amount, entry_price,
		 current_price, usd_value, unrealized_pnl, apy)`)
	if err != nil {
		return fmt.Errorf("clickhouse: prepare position batch: %w", err)
	}
	for _, p := range positions {
		err := batch.Append(
			wallet,
			string(p.Protocol),
			string(p.PositionType),
			p.Token,
			p.Pool,
			p.Amount,
			p.EntryPrice,
			p.CurrentPrice,
			p.USDValue,
			p.UnrealizedPnl,
			p.APY,
		)
		if err != nil {
			return fmt.Errorf("clickhouse: append position: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("clickhouse: %w: replace positions %s: %v", domain.ErrStore, wallet, err)
	}
	return nil
}

// ListByWallet returns the wallet's open positions.
func (s *PositionStore) ListByWallet(ctx context.Context, wallet string) ([]domain.Position, error) {
	const q = `SELECT wallet, protocol, position_type, token, pool, amount,
			entry_price, current_price, usd_value, unrealized_pnl, apy
		FROM positions FINAL
		WHERE wallet = ? AND amount > 0
		ORDER BY usd_value DESC`

	rows, err := s.conn.Query(ctx, q, wallet)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: %w: list positions %s: %v", domain.ErrStore, wallet, err)
	}
	defer rows.Close()

	var out []domain.Position
	for rows.Next() {
		var (
			p            domain.Position
			protocol     string
			positionType string
		)
		err := rows.Scan(
			&p.Wallet, &protocol, &positionType, &p.Token, &p.Pool,
			&p.Amount, &p.EntryPrice, &p.CurrentPrice, &p.USDValue,
			&p.UnrealizedPnl, &p.APY,
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse: scan position: %w", err)
		}
		p.Protocol = domain.Protocol(protocol)
		p.PositionType = domain.PositionType(positionType)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Compile-time interface check.
var _ domain.PositionStore = (*PositionStore)(nil)
