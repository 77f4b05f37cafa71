package domain

import "time"

// MarketStatus is the lifecycle state of a prediction market.
type MarketStatus string

const (
	MarketOpen     MarketStatus = "open"
	MarketClosed   MarketStatus = "closed"
	MarketResolved MarketStatus = "resolved"
	MarketDisputed MarketStatus = "disputed"
)

// PredictionMarketBet is a normalised bet fetched from a prediction-market
// platform for a single wallet.
type PredictionMarketBet struct {
	Platform      string       `json:"platform"`
	MarketSlug    string       `json:"market_slug"`
	MarketTitle   string       `json:"market_title"`
	Outcome       string       `json:"outcome"`
	AmountUSD     float64      `json:"amount_usd"`
	EntryPrice    float64      `json:"entry_price"`
	CurrentPrice  float64      `json:"current_price"`
	Shares        float64      `json:"shares"`
	UnrealizedPnl float64      `json:"unrealized_pnl"`
	Category      string       `json:"category"`
	Status        MarketStatus `json:"status"`
	PlacedAt      time.Time    `json:"placed_at"`
}

// SignalType enumerates the kinds of cross-domain correlation a conviction
// signal can express.
type SignalType string

const (
	SignalBullishAlignment SignalType = "bullish_alignment"
	SignalBearishAlignment SignalType = "bearish_alignment"
	SignalContradiction    SignalType = "contradiction"
	SignalFrontRunning     SignalType = "front_running"
	SignalHighConviction   SignalType = "high_conviction"
	SignalTrackRecord      SignalType = "track_record"
)

// ConvictionConfidence expresses how much data backed a conviction score.
type ConvictionConfidence string

const (
	ConfidenceHigh   ConvictionConfidence = "high"
	ConfidenceMedium ConvictionConfidence = "medium"
	ConfidenceLow    ConvictionConfidence = "low"
)

// ConvictionSignal is one detected correlation between a prediction-market
// bet and a group of relevant on-chain positions.
type ConvictionSignal struct {
	SignalType        SignalType `json:"signal_type"`
	Strength          float64    `json:"strength"`
	DefiContext       string     `json:"defi_context"`
	PredictionContext string     `json:"prediction_context"`
	Description       string     `json:"description"`
}

// WalletConviction is the aggregate result of correlating one wallet's DeFi
// activity with its prediction-market bets.
type WalletConviction struct {
	Wallet         string               `json:"wallet"`
	Score          float64              `json:"conviction_score"`
	Confidence     ConvictionConfidence `json:"confidence"`
	Signals        []ConvictionSignal   `json:"signals"`
	Interpretation string               `json:"interpretation"`
	AnalyzedAt     time.Time            `json:"analyzed_at"`
}

// InformedTrader is one bettor whose on-chain activity passed the conviction
// threshold for a market.
type InformedTrader struct {
	Wallet          string  `json:"wallet"`
	BetOutcome      string  `json:"bet_outcome"`
	BetSizeUSD      float64 `json:"bet_size_usd"`
	ConvictionScore float64 `json:"conviction_score"`
	OnchainActivity string  `json:"onchain_activity"`
}

// AggregateSignal summarises which way the informed traders in a market lean.
type AggregateSignal struct {
	Direction        string               `json:"direction"`
	AlignmentPct     float64              `json:"alignment_pct"`
	TotalInformedUSD float64              `json:"total_informed_usd"`
	Confidence       ConvictionConfidence `json:"confidence"`
}

// InformedTraderAnalysis is the full result of scanning a market's bettors
// for correlated on-chain activity.
type InformedTraderAnalysis struct {
	MarketSlug      string           `json:"market_slug"`
	Platform        string           `json:"platform"`
	InformedCount   int              `json:"informed_traders_count"`
	Traders         []InformedTrader `json:"traders"`
	AggregateSignal AggregateSignal  `json:"aggregate_signal"`
	AnalyzedAt      time.Time        `json:"analyzed_at"`
}
