package conviction

import (
	"time"

	"github.com/solderlabs/cortex/internal/domain"
)

// DemoBets returns the canned prediction-market activity served in demo
// mode, so the conviction pipeline can be exercised without Polymarket
// credentials or live positions.
func DemoBets(now time.Time) []domain.PredictionMarketBet {
	return []domain.PredictionMarketBet{
		{
			Platform:      "polymarket",
			MarketSlug:    "eth-above-5000-march-2026",
			MarketTitle:   "Will ETH be above $5000 by March 2026?",
			Outcome:       "YES",
			AmountUSD:     5000,
			EntryPrice:    0.67,
			CurrentPrice:  0.72,
			Shares:        7462.69,
			UnrealizedPnl: 373.13,
			Category:      "crypto",
			Status:        domain.MarketOpen,
			PlacedAt:      now.Add(-7 * 24 * time.Hour),
		},
	}
}
