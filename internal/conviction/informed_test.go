package conviction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/solderlabs/cortex/internal/domain"
)

type fakeProfiles struct {
	profiles map[string]WalletProfile
}

func (f *fakeProfiles) Profile(_ context.Context, wallet string) (WalletProfile, error) {
	p, ok := f.profiles[wallet]
	if !ok {
		return WalletProfile{}, domain.ErrNotFound
	}
	return p, nil
}

type fakeBettors struct {
	wallets []string
	limit   int
}

func (f *fakeBettors) Bettors(_ context.Context, _ string, limit int) []string {
	f.limit = limit
	if len(f.wallets) > limit {
		return f.wallets[:limit]
	}
	return f.wallets
}

func informedProfile(exposure float64) WalletProfile {
	return WalletProfile{
		Positions: []domain.Position{solSpot(exposure, 100)},
		Bets: []domain.PredictionMarketBet{{
			Platform:    "polymarket",
			MarketSlug:  "sol-500",
			MarketTitle: "Will SOL reach $500?",
			Outcome:     "YES",
			AmountUSD:   900,
			Category:    "crypto",
		}},
	}
}

func newTestDetector(profiles *fakeProfiles, bettors *fakeBettors) *Detector {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDetector(profiles, bettors, NewEngine(), logger)
}

func TestDetectFiltersByThreshold(t *testing.T) {
	t.Parallel()

	profiles := &fakeProfiles{profiles: map[string]WalletProfile{
		"0xaaa": informedProfile(20000),
		// No on-chain activity: conviction 0, filtered out.
		"0xbbb": {},
	}}
	bettors := &fakeBettors{wallets: []string{"0xaaa", "0xbbb", "0xccc"}}

	analysis, err := newTestDetector(profiles, bettors).Detect(context.Background(), "sol-500", "polymarket", 0.5)
	if err != nil {
		t.Fatal(err)
	}

	if analysis.InformedCount != 1 {
		t.Fatalf("InformedCount = %d, want 1", analysis.InformedCount)
	}
	trader := analysis.Traders[0]
	if trader.Wallet != "0xaaa" {
		t.Errorf("Wallet = %q, want 0xaaa", trader.Wallet)
	}
	if trader.BetOutcome != "YES" || trader.BetSizeUSD != 900 {
		t.Errorf("bet = %q/$%v, want YES/$900", trader.BetOutcome, trader.BetSizeUSD)
	}
	if trader.ConvictionScore < 0.5 {
		t.Errorf("ConvictionScore = %v, below threshold", trader.ConvictionScore)
	}

	agg := analysis.AggregateSignal
	if agg.Direction != "bullish" {
		t.Errorf("Direction = %q, want bullish", agg.Direction)
	}
	if agg.TotalInformedUSD != 20000 {
		t.Errorf("TotalInformedUSD = %v, want 20000", agg.TotalInformedUSD)
	}
	if agg.AlignmentPct != 100 {
		t.Errorf("AlignmentPct = %v, want 100", agg.AlignmentPct)
	}
	if agg.Confidence != domain.ConfidenceLow {
		t.Errorf("Confidence = %q, want low for a single informed trader", agg.Confidence)
	}

	if bettors.limit != maxBettors {
		t.Errorf("bettor scan limit = %d, want %d", bettors.limit, maxBettors)
	}
}

func TestDetectAggregateConfidenceTiers(t *testing.T) {
	t.Parallel()

	profiles := &fakeProfiles{profiles: map[string]WalletProfile{}}
	var wallets []string
	for _, w := range []string{"0x1", "0x2", "0x3", "0x4", "0x5"} {
		profiles.profiles[w] = informedProfile(10000)
		wallets = append(wallets, w)
	}
	bettors := &fakeBettors{wallets: wallets}

	analysis, err := newTestDetector(profiles, bettors).Detect(context.Background(), "sol-500", "polymarket", 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if analysis.InformedCount != 5 {
		t.Fatalf("InformedCount = %d, want 5", analysis.InformedCount)
	}
	if analysis.AggregateSignal.Confidence != domain.ConfidenceHigh {
		t.Errorf("Confidence = %q, want high for 5 informed traders", analysis.AggregateSignal.Confidence)
	}
}

func TestDetectValidatesInput(t *testing.T) {
	t.Parallel()
	d := newTestDetector(&fakeProfiles{}, &fakeBettors{})

	if _, err := d.Detect(context.Background(), "", "polymarket", 0.5); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty slug err = %v, want ErrInvalidInput", err)
	}
	if _, err := d.Detect(context.Background(), "slug", "polymarket", 1.5); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("threshold 1.5 err = %v, want ErrInvalidInput", err)
	}
}
