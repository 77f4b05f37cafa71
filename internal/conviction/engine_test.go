package conviction

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/solderlabs/cortex/internal/domain"
)

func solSpot(usd, pnl float64) domain.Position {
	return domain.Position{
		Wallet:        "W",
		Protocol:      domain.ProtocolJupiter,
		PositionType:  domain.PositionSpot,
		Token:         "SOL",
		Amount:        1,
		USDValue:      usd,
		UnrealizedPnl: pnl,
	}
}

func yesBet(title string, usd float64) domain.PredictionMarketBet {
	return domain.PredictionMarketBet{
		Platform:    "polymarket",
		MarketSlug:  "slug",
		MarketTitle: title,
		Outcome:     "YES",
		AmountUSD:   usd,
		Category:    "crypto",
		Status:      domain.MarketOpen,
	}
}

func TestExtractAsset(t *testing.T) {
	t.Parallel()

	cases := []struct {
		title    string
		category string
		want     string
		ok       bool
	}{
		{"Will Bitcoin hit 100k?", "", "BTC", true},
		{"Will ETH be above $5000 by March 2026?", "", "ETH", true},
		{"Will SOL flip ETH?", "", "SOL", true},
		{"Will $SOL double?", "", "SOL", true},
		{"Will BONK moon?", "", "BONK", true},
		{"Will the crypto market reach new highs?", "crypto", "CRYPTO", true},
		{"Will it rain tomorrow?", "weather", "", false},
		{"Generic crypto question", "crypto", "", false},
	}

	for _, tc := range cases {
		asset, ok := extractAsset(tc.title, tc.category)
		if ok != tc.ok || asset != tc.want {
			t.Errorf("extractAsset(%q, %q) = %q/%v, want %q/%v",
				tc.title, tc.category, asset, ok, tc.want, tc.ok)
		}
	}
}

func TestAnalyzeBetAlignedBullish(t *testing.T) {
	t.Parallel()
	engine := NewEngine()

	positions := []domain.Position{solSpot(15000, 5000)}
	bet := yesBet("Will SOL flip ETH?", 500)

	sig, ok := engine.AnalyzeBet(bet, positions)
	if !ok {
		t.Fatal("expected a signal")
	}
	if sig.SignalType != domain.SignalBullishAlignment {
		t.Errorf("SignalType = %q, want bullish_alignment", sig.SignalType)
	}
	// 0.7 + 0.15*(500/1000) + 0.15*min(15000/10000, 1) = 0.925
	if math.Abs(sig.Strength-0.925) > 1e-9 {
		t.Errorf("Strength = %v, want 0.925", sig.Strength)
	}
}

func TestAnalyzeBetContradiction(t *testing.T) {
	t.Parallel()
	engine := NewEngine()

	// Losing on-chain stance vs a bullish bet.
	positions := []domain.Position{solSpot(15000, -2000)}
	bet := yesBet("Will SOL flip ETH?", 500)

	sig, ok := engine.AnalyzeBet(bet, positions)
	if !ok {
		t.Fatal("expected a signal")
	}
	if sig.SignalType != domain.SignalContradiction {
		t.Errorf("SignalType = %q, want contradiction", sig.SignalType)
	}
	if sig.Strength != 0.3 {
		t.Errorf("Strength = %v, want 0.3", sig.Strength)
	}
}

func TestAnalyzeBetSkipsIrrelevant(t *testing.T) {
	t.Parallel()
	engine := NewEngine()

	if _, ok := engine.AnalyzeBet(yesBet("Will it rain tomorrow?", 500), []domain.Position{solSpot(1000, 0)}); ok {
		t.Error("non-asset market should produce no signal")
	}

	bonkBet := yesBet("Will BONK moon?", 500)
	if _, ok := engine.AnalyzeBet(bonkBet, []domain.Position{solSpot(1000, 0)}); ok {
		t.Error("bet with no relevant positions should produce no signal")
	}
}

func TestAnalyzeBetWrappedAndLPMatches(t *testing.T) {
	t.Parallel()
	engine := NewEngine()
	bet := yesBet("Will SOL flip ETH?", 500)

	wrapped := solSpot(1000, 0)
	wrapped.Token = "WSOL"
	if _, ok := engine.AnalyzeBet(bet, []domain.Position{wrapped}); !ok {
		t.Error("wrapped token should be relevant")
	}

	lp := solSpot(1000, 0)
	lp.Token = "SOL-USDC"
	lp.PositionType = domain.PositionLP
	if _, ok := engine.AnalyzeBet(bet, []domain.Position{lp}); !ok {
		t.Error("LP token containing the symbol should be relevant")
	}
}

func TestAnalyzeSingleSignalConviction(t *testing.T) {
	t.Parallel()
	engine := NewEngine()

	positions := []domain.Position{solSpot(15000, 5000)}
	bets := []domain.PredictionMarketBet{yesBet("Will SOL flip ETH?", 500)}

	result := engine.Analyze("W", positions, bets, time.Now())

	if math.Abs(result.Score-0.925) > 1e-9 {
		t.Errorf("Score = %v, want 0.925", result.Score)
	}
	if result.Confidence != domain.ConfidenceMedium {
		t.Errorf("Confidence = %q, want medium (1 position, 1 bet, 1 signal)", result.Confidence)
	}
	if len(result.Signals) != 1 {
		t.Errorf("Signals = %d, want 1", len(result.Signals))
	}
	if result.Interpretation == "" {
		t.Error("Interpretation must not be empty")
	}
}

func TestAnalyzeConfidenceTiers(t *testing.T) {
	t.Parallel()
	engine := NewEngine()
	now := time.Now()

	empty := engine.Analyze("W", nil, nil, now)
	if empty.Score != 0 || empty.Confidence != domain.ConfidenceLow {
		t.Errorf("no data: score=%v confidence=%q, want 0/low", empty.Score, empty.Confidence)
	}
	if !strings.Contains(empty.Interpretation, domain.ErrInsufficientData.Error()) {
		t.Errorf("zero-score interpretation %q should note insufficient data", empty.Interpretation)
	}

	positions := []domain.Position{
		solSpot(5000, 100),
		solSpot(3000, 50),
		solSpot(2000, 25),
	}
	bets := []domain.PredictionMarketBet{
		yesBet("Will SOL flip ETH?", 500),
		yesBet("Will Solana reach $500?", 800),
	}
	high := engine.Analyze("W", positions, bets, now)
	if high.Confidence != domain.ConfidenceHigh {
		t.Errorf("Confidence = %q, want high (3 positions, 2 bets, %d signals)",
			high.Confidence, len(high.Signals))
	}
	if high.Score < 0 || high.Score > 1 {
		t.Errorf("Score %v outside [0,1]", high.Score)
	}
}

func TestAnalyzeScoreClamped(t *testing.T) {
	t.Parallel()
	engine := NewEngine()

	result := engine.Analyze("W",
		[]domain.Position{solSpot(100000, 1)},
		[]domain.PredictionMarketBet{yesBet("Will SOL flip ETH?", 100000)},
		time.Now())
	if result.Score > 1 {
		t.Errorf("Score %v exceeds 1", result.Score)
	}
}

func TestDemoBetsFeedTheEngine(t *testing.T) {
	t.Parallel()
	engine := NewEngine()
	now := time.Now()

	bets := DemoBets(now)
	if len(bets) != 1 || bets[0].MarketSlug != "eth-above-5000-march-2026" {
		t.Fatalf("unexpected demo bets: %+v", bets)
	}

	eth := domain.Position{
		Wallet:       "W",
		Protocol:     domain.ProtocolJupiter,
		PositionType: domain.PositionSpot,
		Token:        "ETH",
		Amount:       2,
		USDValue:     8000,
	}
	result := engine.Analyze("W", []domain.Position{eth}, bets, now)
	if len(result.Signals) != 1 {
		t.Fatalf("demo bet should signal against an ETH position, got %d signals", len(result.Signals))
	}
	if result.Signals[0].SignalType != domain.SignalBullishAlignment {
		t.Errorf("SignalType = %q, want bullish_alignment", result.Signals[0].SignalType)
	}
}
