package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/solderlabs/cortex/internal/conviction"
	"github.com/solderlabs/cortex/internal/domain"
)

// BetSource fetches a wallet's prediction-market positions.
type BetSource interface {
	Positions(ctx context.Context, address string) ([]domain.PredictionMarketBet, error)
}

// ConvictionService joins on-chain positions with prediction-market bets and
// runs the conviction engine over the result.
type ConvictionService struct {
	positions domain.PositionStore
	bets      BetSource
	engine    *conviction.Engine
	demoMode  bool
	logger    *slog.Logger
}

// NewConvictionService creates a ConvictionService. With demoMode set,
// wallets without live prediction-market activity are analysed against the
// canned demo bets instead of an empty set.
func NewConvictionService(
	positions domain.PositionStore,
	bets BetSource,
	engine *conviction.Engine,
	demoMode bool,
	logger *slog.Logger,
) *ConvictionService {
	return &ConvictionService{
		positions: positions,
		bets:      bets,
		engine:    engine,
		demoMode:  demoMode,
		logger:    logger,
	}
}

// Profile loads the wallet's positions and bets. It implements
// conviction.ProfileSource for the informed-trader detector.
func (s *ConvictionService) Profile(ctx context.Context, wallet string) (conviction.WalletProfile, error) {
	var profile conviction.WalletProfile

	positions, err := s.positions.ListByWallet(ctx, wallet)
	if err != nil {
		return profile, fmt.Errorf("conviction_service: positions for %q: %w", wallet, err)
	}
	profile.Positions = positions

	bets, err := s.bets.Positions(ctx, wallet)
	switch {
	case err == nil:
		profile.Bets = bets
	case errors.Is(err, domain.ErrInvalidInput):
		// Not an EVM address; the wallet simply has no Polymarket side.
	default:
		s.logger.WarnContext(ctx, "conviction_service: bet fetch failed",
			slog.String("wallet", wallet),
			slog.String("error", err.Error()),
		)
	}

	if len(profile.Bets) == 0 && s.demoMode {
		profile.Bets = conviction.DemoBets(time.Now())
	}
	return profile, nil
}

// Conviction computes the wallet's conviction from its current profile.
func (s *ConvictionService) Conviction(ctx context.Context, wallet string) (domain.WalletConviction, error) {
	profile, err := s.Profile(ctx, wallet)
	if err != nil {
		return domain.WalletConviction{}, err
	}
	return s.engine.Analyze(wallet, profile.Positions, profile.Bets, time.Now()), nil
}
