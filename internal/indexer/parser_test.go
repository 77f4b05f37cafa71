package indexer

import (
	"encoding/json"
	"testing"

	"github.com/solderlabs/cortex/internal/domain"
)

const testWallet = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

func raydiumSwapRecord() *RawRecord {
	in := uiAmount(1.5)
	out := uiAmount(42.0)
	return &RawRecord{
		Signature:   "sig1",
		DecoderType: "Raydium AMM",
		EventType:   "SWAP",
		BlockTime:   1700000000,
		TokenIn:     &TokenSide{Mint: "Ma", UIAmount: in, Owner: testWallet},
		TokenOut:    &TokenSide{Mint: "Mb", UIAmount: out, Owner: testWallet},
	}
}

func TestParseRaydiumSwap(t *testing.T) {
	t.Parallel()

	tx, ok := Parse(raydiumSwapRecord(), testWallet)
	if !ok {
		t.Fatal("expected swap to parse")
	}

	if tx.Protocol != domain.ProtocolRaydium {
		t.Errorf("Protocol = %q, want raydium", tx.Protocol)
	}
	if tx.TxType != domain.TxSwap {
		t.Errorf("TxType = %q, want swap", tx.TxType)
	}
	if tx.AmountIn != 1.5 || tx.AmountOut != 42.0 {
		t.Errorf("amounts = %v/%v, want 1.5/42.0", tx.AmountIn, tx.AmountOut)
	}
	if tx.USDValue != 0 {
		t.Errorf("USDValue = %v, want 0 at parse time", tx.USDValue)
	}
	if tx.BlockTimeMs != 1_700_000_000_000 {
		t.Errorf("BlockTimeMs = %d, want 1700000000000", tx.BlockTimeMs)
	}
	if err := tx.Validate(); err != nil {
		t.Errorf("parsed swap fails validation: %v", err)
	}
}

func TestParseDropsUnknownProtocol(t *testing.T) {
	t.Parallel()

	rec := raydiumSwapRecord()
	rec.DecoderType = "SomethingElse"
	rec.ProgramID = "NotAKnownProgram"
	if _, ok := Parse(rec, testWallet); ok {
		t.Error("record with unknown protocol should be dropped")
	}
}

func TestParseProgramIDFallback(t *testing.T) {
	t.Parallel()

	rec := raydiumSwapRecord()
	rec.DecoderType = ""
	rec.ProgramID = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	tx, ok := Parse(rec, testWallet)
	if !ok {
		t.Fatal("expected program-ID fallback to resolve the protocol")
	}
	if tx.Protocol != domain.ProtocolJupiter {
		t.Errorf("Protocol = %q, want jupiter", tx.Protocol)
	}
}

func TestParseDropsTransfer(t *testing.T) {
	t.Parallel()

	rec := raydiumSwapRecord()
	rec.EventType = "TRANSFER"
	if _, ok := Parse(rec, testWallet); ok {
		t.Error("TRANSFER records should be dropped")
	}
}

func TestParseSwapLikeFallback(t *testing.T) {
	t.Parallel()

	rec := raydiumSwapRecord()
	rec.EventType = "UNRECOGNISED"
	tx, ok := Parse(rec, testWallet)
	if !ok {
		t.Fatal("swap-like decoder with unknown event should fall back to swap")
	}
	if tx.TxType != domain.TxSwap {
		t.Errorf("TxType = %q, want swap", tx.TxType)
	}
}

func TestParseOneSidedEvents(t *testing.T) {
	t.Parallel()

	cases := []struct {
		event    string
		wantType domain.TransactionType
		wantIn   bool
	}{
		{"DEPOSIT", domain.TxDeposit, true},
		{"SUPPLY", domain.TxDeposit, true},
		{"WITHDRAW", domain.TxWithdraw, false},
		{"REDEEM", domain.TxWithdraw, false},
		{"BORROW", domain.TxBorrow, false},
		{"REPAY", domain.TxRepay, true},
		{"ADD_LIQUIDITY", domain.TxAddLiquidity, true},
		{"REMOVE_LIQUIDITY", domain.TxRemoveLiquidity, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.event, func(t *testing.T) {
			t.Parallel()
			rec := &RawRecord{
				Signature:   "sig",
				DecoderType: "Kamino Lending",
				EventType:   tc.event,
				BlockTime:   1700000000,
				Mint:        "So11111111111111111111111111111111111111112",
				UIAmount:    3.25,
			}
			tx, ok := Parse(rec, testWallet)
			if !ok {
				t.Fatalf("event %s should parse", tc.event)
			}
			if tx.TxType != tc.wantType {
				t.Errorf("TxType = %q, want %q", tx.TxType, tc.wantType)
			}
			if tc.wantIn {
				if tx.TokenIn != rec.Mint || tx.AmountIn != 3.25 {
					t.Errorf("input side = %q/%v, want %q/3.25", tx.TokenIn, tx.AmountIn, rec.Mint)
				}
			} else {
				if tx.TokenOut != rec.Mint || tx.AmountOut != 3.25 {
					t.Errorf("output side = %q/%v, want %q/3.25", tx.TokenOut, tx.AmountOut, rec.Mint)
				}
			}
		})
	}
}

func TestParseSwapRecordLevelAttribution(t *testing.T) {
	t.Parallel()

	rec := &RawRecord{
		Signature:   "sig",
		DecoderType: "Jupiter Aggregator",
		EventType:   "SWAP",
		BlockTime:   1700000000,
		Source:      testWallet,
		Mint:        "Ma",
		UIAmount:    5,
	}
	tx, ok := Parse(rec, testWallet)
	if !ok {
		t.Fatal("expected record-level swap to parse")
	}
	if tx.TokenIn != "Ma" || tx.AmountIn != 5 {
		t.Errorf("wallet-as-source should fill the input side, got %q/%v", tx.TokenIn, tx.AmountIn)
	}

	rec.Source = "someone-else"
	rec.Destination = testWallet
	tx, ok = Parse(rec, testWallet)
	if !ok {
		t.Fatal("expected record-level swap to parse")
	}
	if tx.TokenOut != "Ma" || tx.AmountOut != 5 {
		t.Errorf("wallet-as-destination should fill the output side, got %q/%v", tx.TokenOut, tx.AmountOut)
	}
}

func TestParseDropsEmptySignature(t *testing.T) {
	t.Parallel()

	rec := raydiumSwapRecord()
	rec.Signature = ""
	if _, ok := Parse(rec, testWallet); ok {
		t.Error("record without a signature should be dropped")
	}
}

func TestBlockTimeMillisPassthrough(t *testing.T) {
	t.Parallel()

	if got := blockTimeMs(1_700_000_000_000); got != 1_700_000_000_000 {
		t.Errorf("millisecond input should pass through, got %d", got)
	}
	if got := blockTimeMs(1_700_000_000); got != 1_700_000_000_000 {
		t.Errorf("second input should scale, got %d", got)
	}
}

func TestParseNormalisationStableThroughJSON(t *testing.T) {
	t.Parallel()

	rec := raydiumSwapRecord()
	before, ok := Parse(rec, testWallet)
	if !ok {
		t.Fatal("expected swap to parse")
	}

	payload, err := json.Marshal(map[string]any{
		"txSignature": rec.Signature,
		"decoderType": rec.DecoderType,
		"eventType":   rec.EventType,
		"blockTime":   rec.BlockTime,
		"tokenIn":     rec.TokenIn,
		"tokenOut":    rec.TokenOut,
	})
	if err != nil {
		t.Fatal(err)
	}

	var decoded RawRecord
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatal(err)
	}
	after, ok := Parse(&decoded, testWallet)
	if !ok {
		t.Fatal("expected round-tripped record to parse")
	}

	if *before != *after {
		t.Errorf("normalisation changed across JSON round trip:\nbefore %+v\nafter  %+v", before, after)
	}
}
