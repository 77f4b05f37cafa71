// Package service exposes the read-side use cases behind the HTTP API:
// wallet analytics projections and the conviction pipeline. Handlers depend
// on services, never on stores directly.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/solderlabs/cortex/internal/domain"
)

// WalletService serves the per-wallet analytics projections.
type WalletService struct {
	summaries    domain.SummaryStore
	transactions domain.TransactionStore
	positions    domain.PositionStore
	logger       *slog.Logger
}

// NewWalletService creates a WalletService.
func NewWalletService(
	summaries domain.SummaryStore,
	transactions domain.TransactionStore,
	positions domain.PositionStore,
	logger *slog.Logger,
) *WalletService {
	return &WalletService{
		summaries:    summaries,
		transactions: transactions,
		positions:    positions,
		logger:       logger,
	}
}

// Summary returns the wallet's rollup. A wallet the indexer has never seen
// yields a zero-valued summary, not an error.
func (s *WalletService) Summary(ctx context.Context, wallet string) (domain.WalletSummary, error) {
	if !domain.ValidWalletAddress(wallet) {
		return domain.WalletSummary{}, fmt.Errorf("wallet_service: %w: invalid wallet address %q", domain.ErrInvalidInput, wallet)
	}

	summary, err := s.summaries.Get(ctx, wallet)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.WalletSummary{Wallet: wallet, Protocols: []string{}}, nil
		}
		return domain.WalletSummary{}, fmt.Errorf("wallet_service: summary for %q: %w", wallet, err)
	}
	return summary, nil
}

// Pnl returns the by-protocol PnL projection for the given window.
func (s *WalletService) Pnl(ctx context.Context, wallet string, window domain.TimeWindow) ([]domain.ProtocolPnl, error) {
	if !domain.ValidWalletAddress(wallet) {
		return nil, fmt.Errorf("wallet_service: %w: invalid wallet address %q", domain.ErrInvalidInput, wallet)
	}

	pnl, err := s.transactions.PnlByProtocol(ctx, wallet, window)
	if err != nil {
		return nil, fmt.Errorf("wallet_service: pnl for %q: %w", wallet, err)
	}
	if pnl == nil {
		pnl = []domain.ProtocolPnl{}
	}
	return pnl, nil
}

// Positions returns the wallet's open positions.
func (s *WalletService) Positions(ctx context.Context, wallet string) ([]domain.Position, error) {
	if !domain.ValidWalletAddress(wallet) {
		return nil, fmt.Errorf("wallet_service: %w: invalid wallet address %q", domain.ErrInvalidInput, wallet)
	}

	positions, err := s.positions.ListByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("wallet_service: positions for %q: %w", wallet, err)
	}
	if positions == nil {
		positions = []domain.Position{}
	}
	return positions, nil
}
