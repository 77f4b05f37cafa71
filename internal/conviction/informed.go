package conviction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/solderlabs/cortex/internal/domain"
)

// maxBettors caps how many bettors a market scan inspects. The scan is
// serial; providers rate-limit aggressively.
const maxBettors = 50

// WalletProfile is the per-wallet input to a conviction analysis.
type WalletProfile struct {
	Positions []domain.Position
	Bets      []domain.PredictionMarketBet
}

// ProfileSource loads a wallet's positions and bets.
type ProfileSource interface {
	Profile(ctx context.Context, wallet string) (WalletProfile, error)
}

// BettorSource lists bettor addresses for a market.
type BettorSource interface {
	Bettors(ctx context.Context, marketSlug string, limit int) []string
}

// Detector scans a market's bettors for wallets whose on-chain activity
// backs their bet.
type Detector struct {
	profiles ProfileSource
	bettors  BettorSource
	engine   *Engine
	logger   *slog.Logger
}

// NewDetector creates a Detector.
func NewDetector(profiles ProfileSource, bettors BettorSource, engine *Engine, logger *slog.Logger) *Detector {
	return &Detector{
		profiles: profiles,
		bettors:  bettors,
		engine:   engine,
		logger:   logger.With("component", "informed_detector"),
	}
}

// Detect fetches up to 50 bettors for the market, scores each one through
// the per-wallet conviction pipeline, and keeps those at or above
// minConviction. The scan is serial by design.
func (d *Detector) Detect(ctx context.Context, marketSlug, platform string, minConviction float64) (domain.InformedTraderAnalysis, error) {
	if marketSlug == "" {
		return domain.InformedTraderAnalysis{}, fmt.Errorf("conviction: detect: %w: empty market slug", domain.ErrInvalidInput)
	}
	if minConviction < 0 || minConviction > 1 {
		return domain.InformedTraderAnalysis{}, fmt.Errorf("conviction: detect: %w: min conviction %v outside [0,1]", domain.ErrInvalidInput, minConviction)
	}

	now := time.Now()
	analysis := domain.InformedTraderAnalysis{
		MarketSlug: marketSlug,
		Platform:   platform,
		AnalyzedAt: now,
	}

	var bullishUSD, bearishUSD float64

	for _, wallet := range d.bettors.Bettors(ctx, marketSlug, maxBettors) {
		if err := ctx.Err(); err != nil {
			return analysis, err
		}

		profile, err := d.profiles.Profile(ctx, wallet)
		if err != nil {
			d.logger.Debug("bettor profile failed", "wallet", wallet, "error", err)
			continue
		}

		conviction := d.engine.Analyze(wallet, profile.Positions, profile.Bets, now)
		if conviction.Score < minConviction || len(conviction.Signals) == 0 {
			continue
		}

		var exposure float64
		for _, pos := range profile.Positions {
			v := pos.USDValue
			if v < 0 {
				v = -v
			}
			exposure += v
		}

		outcome, betSize := marketBet(profile.Bets, marketSlug)
		analysis.Traders = append(analysis.Traders, domain.InformedTrader{
			Wallet:          wallet,
			BetOutcome:      outcome,
			BetSizeUSD:      betSize,
			ConvictionScore: conviction.Score,
			OnchainActivity: fmt.Sprintf("%d position(s), $%.2f DeFi exposure", len(profile.Positions), exposure),
		})

		if hasSignal(conviction.Signals, domain.SignalBullishAlignment) {
			bullishUSD += exposure
		} else {
			bearishUSD += exposure
		}
	}

	analysis.InformedCount = len(analysis.Traders)
	analysis.AggregateSignal = aggregate(bullishUSD, bearishUSD, analysis.InformedCount)
	return analysis, nil
}

// marketBet finds the bettor's bet on this market, if visible.
func marketBet(bets []domain.PredictionMarketBet, slug string) (string, float64) {
	for _, bet := range bets {
		if strings.EqualFold(bet.MarketSlug, slug) {
			return bet.Outcome, bet.AmountUSD
		}
	}
	return "", 0
}

func hasSignal(signals []domain.ConvictionSignal, t domain.SignalType) bool {
	for _, sig := range signals {
		if sig.SignalType == t {
			return true
		}
	}
	return false
}

// aggregate summarises which way the informed money leans.
func aggregate(bullishUSD, bearishUSD float64, informedCount int) domain.AggregateSignal {
	total := bullishUSD + bearishUSD

	direction := "bullish"
	winner := bullishUSD
	if bearishUSD > bullishUSD {
		direction = "bearish"
		winner = bearishUSD
	}

	var alignmentPct float64
	if total > 0 {
		alignmentPct = winner / total * 100
	}

	confidence := domain.ConfidenceLow
	switch {
	case informedCount >= 5:
		confidence = domain.ConfidenceHigh
	case informedCount >= 2:
		confidence = domain.ConfidenceMedium
	}

	return domain.AggregateSignal{
		Direction:        direction,
		AlignmentPct:     alignmentPct,
		TotalInformedUSD: total,
		Confidence:       confidence,
	}
}
