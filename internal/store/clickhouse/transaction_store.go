package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/solderlabs/cortex/internal/domain"
)

// TransactionStore persists normalised transactions.
type TransactionStore struct {
	conn driver.Conn
}

// NewTransactionStore creates a TransactionStore backed by the given client.
func NewTransactionStore(c *Client) *TransactionStore {
	return &TransactionStore{conn: c.Conn()}
}

const insertTransaction = `INSERT INTO transactions
	(signature, wallet, protocol, tx_type, token_in, token_out, amount_in, amount_out, usd_value, block_time, slot)`

// Insert appends one transaction row. Duplicate signatures are collapsed by
// the ReplacingMergeTree, so re-inserts from at-least-once delivery are safe.
func (s *TransactionStore) Insert(ctx context.Context, tx domain.ParsedTransaction) error {
	return s.InsertBatch(ctx, []domain.ParsedTransaction{tx})
}

// InsertBatch appends a batch of transaction rows in sequence order.
func (s *TransactionStore) InsertBatch(ctx context.Context, txs []domain.ParsedTransaction) error {
	if len(txs) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, insertTransaction)
	if err != nil {
		return fmt.Errorf("clickhouse: prepare transaction batch: %w", err)
	}
	for _, tx := range txs {
		err := batch.Append(
			tx.Signature,
			tx.Wallet,
			string(tx.Protocol),
			string(tx.TxType),
			tx.TokenIn,
			tx.TokenOut,
			tx.AmountIn,
			tx.AmountOut,
			tx.USDValue,
			tx.BlockTime(),
			tx.Slot,
		)
		if err != nil {
			return fmt.Errorf("clickhouse: append transaction %s: %w", tx.Signature, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("clickhouse: %w: insert transactions: %v", domain.ErrStore, err)
	}
	return nil
}

// ListByWallet returns the wallet's most recent transactions, newest first.
func (s *TransactionStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]domain.ParsedTransaction, error) {
	if limit <= 0 {
		limit = 1000
	}

	const q = `SELECT signature, wallet, protocol, tx_type, token_in, token_out,
			amount_in, amount_out, usd_value, block_time, slot
		FROM transactions FINAL
		WHERE wallet = ?
		ORDER BY block_time DESC
		LIMIT ?`

	rows, err := s.conn.Query(ctx, q, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: %w: list transactions: %v", domain.ErrStore, err)
	}
	defer rows.Close()

	var out []domain.ParsedTransaction
	for rows.Next() {
		var (
			tx        domain.ParsedTransaction
			protocol  string
			txType    string
			blockTime time.Time
		)
		err := rows.Scan(
			&tx.Signature, &tx.Wallet, &protocol, &txType,
			&tx.TokenIn, &tx.TokenOut, &tx.AmountIn, &tx.AmountOut,
			&tx.USDValue, &blockTime, &tx.Slot,
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse: scan transaction: %w", err)
		}
		tx.Protocol = domain.Protocol(protocol)
		tx.TxType = domain.TransactionType(txType)
		tx.BlockTimeMs = blockTime.UnixMilli()
		out = append(out, tx)
	}
	return out, rows.Err()
}

// PnlByProtocol aggregates realized PnL per protocol over the given window.
// Realized flow counts swap, remove_liquidity, and withdraw as proceeds and
// add_liquidity, deposit, and borrow as outlays.
func (s *TransactionStore) PnlByProtocol(ctx context.Context, wallet string, window domain.TimeWindow) ([]domain.ProtocolPnl, error) {
	q := `SELECT protocol,
			sumIf(usd_value, tx_type IN ('swap', 'remove_liquidity', 'withdraw'))
			- sumIf(usd_value, tx_type IN ('add_liquidity', 'deposit', 'borrow')) AS realized,
			toFloat64(0) AS unrealized,
			count() AS trade_count
		FROM transactions FINAL
		WHERE wallet = ?`
	args := []any{wallet}

	if days := window.Days(); days > 0 {
		q += ` AND block_time >= ?`
		args = append(args, time.Now().AddDate(0, 0, -days))
	}
	q += ` GROUP BY protocol ORDER BY protocol`

	rows, err := s.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: %w: pnl by protocol: %v", domain.ErrStore, err)
	}
	defer rows.Close()

	var out []domain.ProtocolPnl
	for rows.Next() {
		var p domain.ProtocolPnl
		if err := rows.Scan(&p.Protocol, &p.Realized, &p.Unrealized, &p.TradeCount); err != nil {
			return nil, fmt.Errorf("clickhouse: scan pnl row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Compile-time interface check.
var _ domain.TransactionStore = (*TransactionStore)(nil)
