package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solderlabs/cortex/internal/domain"
)

// SubscriptionStore implements domain.SubscriptionStore on PostgreSQL.
type SubscriptionStore struct {
	pool *pgxpool.Pool
}

// NewSubscriptionStore creates a SubscriptionStore using the given pool.
func NewSubscriptionStore(pool *pgxpool.Pool) *SubscriptionStore {
	return &SubscriptionStore{pool: pool}
}

// Create registers a tracked wallet. A wallet that is already registered
// returns domain.ErrAlreadyExists.
func (s *SubscriptionStore) Create(ctx context.Context, rec domain.SubscriptionRecord) error {
	const q = `INSERT INTO subscriptions (id, wallet, created_at) VALUES ($1, $2, $3)`

	_, err := s.pool.Exec(ctx, q, rec.ID, rec.Wallet, rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("postgres: subscription %s: %w", rec.Wallet, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: create subscription %s: %w", rec.Wallet, err)
	}
	return nil
}

// Delete removes a tracked wallet. Deleting an unknown wallet is not an
// error; stop is idempotent end to end.
func (s *SubscriptionStore) Delete(ctx context.Context, wallet string) error {
	const q = `DELETE FROM subscriptions WHERE wallet = $1`

	if _, err := s.pool.Exec(ctx, q, wallet); err != nil {
		return fmt.Errorf("postgres: delete subscription %s: %w", wallet, err)
	}
	return nil
}

// List returns every registered wallet, oldest first.
func (s *SubscriptionStore) List(ctx context.Context) ([]domain.SubscriptionRecord, error) {
	const q = `SELECT id, wallet, created_at FROM subscriptions ORDER BY created_at`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("postgres: list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []domain.SubscriptionRecord
	for rows.Next() {
		var rec domain.SubscriptionRecord
		if err := rows.Scan(&rec.ID, &rec.Wallet, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan subscription: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("postgres: list subscriptions: %w", err)
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.SubscriptionStore = (*SubscriptionStore)(nil)
