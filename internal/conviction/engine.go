// Package conviction correlates a wallet's on-chain DeFi activity with its
// prediction-market bets and scores how strongly the two point the same way.
package conviction

import (
	"fmt"
	"strings"
	"time"

	"github.com/solderlabs/cortex/internal/domain"
)

const (
	// alignedBaseStrength is the floor strength of an aligned signal.
	alignedBaseStrength = 0.7
	// contradictionStrength is the fixed strength of a contradicting signal,
	// flagged as a possible hedge.
	contradictionStrength = 0.3

	// betSizeNorm and exposureNorm scale the bonus terms of an aligned
	// signal: a $1000 bet and $10000 of exposure max them out.
	betSizeNorm  = 1000.0
	exposureNorm = 10000.0
)

// assetKeywords maps market-title keywords to asset symbols. Extraction picks
// the keyword occurring earliest in the title, so "Will SOL flip ETH?"
// resolves to SOL.
var assetKeywords = []struct {
	keyword string
	symbol  string
}{
	{"bitcoin", "BTC"},
	{"btc", "BTC"},
	{"ethereum", "ETH"},
	{"eth", "ETH"},
	{"solana", "SOL"},
	{"sol ", "SOL"},
	{"$sol", "SOL"},
	{"bonk", "BONK"},
	{"jup", "JUP"},
	{"usdc", "USDC"},
}

// anyCrypto is the wildcard asset for generic crypto price markets; it
// matches every on-chain position.
const anyCrypto = "CRYPTO"

// Engine performs the pure conviction analysis. It holds no I/O.
type Engine struct{}

// NewEngine creates an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// extractAsset resolves the underlying asset of a market title. Markets that
// name no known asset but are crypto-category price markets map to the
// wildcard; everything else is skipped.
func extractAsset(title, category string) (string, bool) {
	lower := strings.ToLower(title)

	best := ""
	bestIdx := len(lower) + 1
	for _, kw := range assetKeywords {
		idx := strings.Index(lower, kw.keyword)
		if idx >= 0 && idx < bestIdx {
			best = kw.symbol
			bestIdx = idx
		}
	}
	if best != "" {
		return best, true
	}

	if strings.EqualFold(category, "crypto") &&
		(strings.Contains(lower, "price") || strings.Contains(lower, "reach")) {
		return anyCrypto, true
	}
	return "", false
}

// relevantPositions selects the positions exposed to the asset: a direct
// symbol match, the wrapped form W<SYM>, or an LP token containing the
// symbol.
func relevantPositions(asset string, positions []domain.Position) []domain.Position {
	if asset == anyCrypto {
		return positions
	}

	var out []domain.Position
	wrapped := "W" + asset
	for _, pos := range positions {
		token := strings.ToUpper(pos.Token)
		switch {
		case token == asset || token == wrapped:
			out = append(out, pos)
		case pos.PositionType == domain.PositionLP && strings.Contains(token, asset):
			out = append(out, pos)
		}
	}
	return out
}

// bullishOutcome reports whether a bet outcome expresses an upside view.
func bullishOutcome(outcome string) bool {
	upper := strings.ToUpper(outcome)
	if upper == "YES" {
		return true
	}
	for _, kw := range []string{"ABOVE", "OVER", "UP", "HIGHER"} {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// AnalyzeBet correlates one bet with the wallet's positions. It returns
// false when the bet names no extractable asset or the wallet holds nothing
// relevant.
func (e *Engine) AnalyzeBet(bet domain.PredictionMarketBet, positions []domain.Position) (domain.ConvictionSignal, bool) {
	asset, ok := extractAsset(bet.MarketTitle, bet.Category)
	if !ok {
		return domain.ConvictionSignal{}, false
	}

	relevant := relevantPositions(asset, positions)
	if len(relevant) == 0 {
		return domain.ConvictionSignal{}, false
	}

	var exposure, pnl float64
	for _, pos := range relevant {
		exposure += pos.USDValue
		pnl += pos.UnrealizedPnl
	}

	betBullish := bullishOutcome(bet.Outcome)
	positionBullish := exposure > 0 && pnl >= 0

	defiContext := fmt.Sprintf("%d %s position(s) worth $%.2f", len(relevant), asset, exposure)
	predictionContext := fmt.Sprintf("%s $%.2f on %q", bet.Outcome, bet.AmountUSD, bet.MarketTitle)

	if betBullish != positionBullish {
		return domain.ConvictionSignal{
			SignalType:        domain.SignalContradiction,
			Strength:          contradictionStrength,
			DefiContext:       defiContext,
			PredictionContext: predictionContext,
			Description: fmt.Sprintf("bet contradicts on-chain stance on %s, possible hedge: $%.2f bet vs $%.2f exposure",
				asset, bet.AmountUSD, exposure),
		}, true
	}

	strength := alignedBaseStrength +
		0.15*minFloat(bet.AmountUSD/betSizeNorm, 1) +
		0.15*minFloat(exposure/exposureNorm, 1)

	signalType := domain.SignalBullishAlignment
	direction := "bullish"
	if !betBullish {
		signalType = domain.SignalBearishAlignment
		direction = "bearish"
	}

	return domain.ConvictionSignal{
		SignalType:        signalType,
		Strength:          strength,
		DefiContext:       defiContext,
		PredictionContext: predictionContext,
		Description: fmt.Sprintf("%s $%.2f bet on %s aligns with $%.2f on-chain exposure",
			direction, bet.AmountUSD, asset, exposure),
	}, true
}

// Analyze runs the per-bet analysis over every bet and folds the signals
// into an overall conviction.
func (e *Engine) Analyze(wallet string, positions []domain.Position, bets []domain.PredictionMarketBet, now time.Time) domain.WalletConviction {
	var signals []domain.ConvictionSignal
	for _, bet := range bets {
		if sig, ok := e.AnalyzeBet(bet, positions); ok {
			signals = append(signals, sig)
		}
	}

	var score float64
	if len(signals) > 0 {
		for _, sig := range signals {
			score += sig.Strength
		}
		score /= float64(len(signals))
		if score > 1 {
			score = 1
		}
		if score < 0 {
			score = 0
		}
	}

	confidence := confidenceFor(len(positions), len(bets), len(signals))

	return domain.WalletConviction{
		Wallet:         wallet,
		Score:          score,
		Confidence:     confidence,
		Signals:        signals,
		Interpretation: interpret(score, confidence, signals),
		AnalyzedAt:     now,
	}
}

// confidenceFor grades how much data backed the score.
func confidenceFor(positionCount, betCount, signalCount int) domain.ConvictionConfidence {
	switch {
	case positionCount >= 3 && betCount >= 2 && signalCount >= 2:
		return domain.ConfidenceHigh
	case (positionCount >= 1 || betCount >= 1) && signalCount >= 1:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// interpret renders the human-readable summary: confidence, conviction
// label, dominant direction, contradictions, and signal count.
func interpret(score float64, confidence domain.ConvictionConfidence, signals []domain.ConvictionSignal) string {
	if len(signals) == 0 {
		return fmt.Sprintf("%s: no overlapping signals between on-chain activity and prediction-market bets", domain.ErrInsufficientData)
	}

	label := "weak"
	switch {
	case score > 0.7:
		label = "strong"
	case score > 0.4:
		label = "moderate"
	}

	var bullish, bearish, contradictions int
	for _, sig := range signals {
		switch sig.SignalType {
		case domain.SignalBullishAlignment:
			bullish++
		case domain.SignalBearishAlignment:
			bearish++
		case domain.SignalContradiction:
			contradictions++
		}
	}
	direction := "mixed"
	switch {
	case bullish > bearish:
		direction = "bullish"
	case bearish > bullish:
		direction = "bearish"
	}

	out := fmt.Sprintf("%s confidence, %s %s conviction from %d signal(s)",
		confidence, label, direction, len(signals))
	if contradictions > 0 {
		out += fmt.Sprintf("; %d contradictory signal(s) suggest hedging", contradictions)
	}
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
