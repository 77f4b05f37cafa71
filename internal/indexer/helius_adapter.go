package indexer

import (
	"math"
	"strconv"
	"strings"

	"github.com/solderlabs/cortex/internal/platform/helius"
)

// FromHelius adapts one Helius enhanced transaction into the canonical raw
// record shape consumed by Parse. The enhanced-tx schema differs from the
// stream schema, so the mapping is explicit: the decoder tag comes from the
// source (falling back to the type), UNKNOWN types with a swap sub-event are
// upgraded to SWAP, raw swap amounts are scaled to UI amounts, and the
// participant set is collected from the fee payer plus token transfers.
func FromHelius(tx *helius.EnhancedTransaction, wallet string) *RawRecord {
	if tx == nil || tx.Signature == "" {
		return nil
	}

	decoder := tx.Source
	if decoder == "" {
		decoder = strings.ToUpper(tx.Type)
	}

	event := strings.ToUpper(tx.Type)
	if event == "UNKNOWN" && tx.Events.Swap != nil {
		event = "SWAP"
	}

	rec := &RawRecord{
		Signature:   tx.Signature,
		Slot:        tx.Slot,
		BlockTime:   tx.Timestamp,
		DecoderType: decoder,
		EventType:   event,
		FeePayer:    tx.FeePayer,
	}

	if swap := tx.Events.Swap; swap != nil {
		if len(swap.TokenInputs) > 0 {
			rec.TokenIn = swapTokenSide(swap.TokenInputs[0])
		}
		if len(swap.TokenOutputs) > 0 {
			rec.TokenOut = swapTokenSide(swap.TokenOutputs[0])
		}
	}

	if len(tx.TokenTransfers) > 0 {
		first := tx.TokenTransfers[0]
		rec.Source = first.FromUserAccount
		rec.Destination = first.ToUserAccount
		rec.Mint = first.Mint
		rec.UIAmount = first.TokenAmount
	}

	accounts := make([]string, 0, 2+2*len(tx.TokenTransfers))
	seen := make(map[string]struct{})
	add := func(a string) {
		if a == "" {
			return
		}
		if _, dup := seen[a]; dup {
			return
		}
		seen[a] = struct{}{}
		accounts = append(accounts, a)
	}
	add(wallet)
	add(tx.FeePayer)
	for _, tr := range tx.TokenTransfers {
		add(tr.FromUserAccount)
		add(tr.ToUserAccount)
	}
	rec.Accounts = accounts

	return rec
}

// swapTokenSide converts one swap leg, scaling the raw integer amount by the
// token's decimals.
func swapTokenSide(tok helius.SwapToken) *TokenSide {
	raw, err := strconv.ParseFloat(tok.RawTokenAmount.TokenAmount, 64)
	if err != nil {
		raw = 0
	}
	ui := raw
	if tok.RawTokenAmount.Decimals > 0 {
		ui = raw / math.Pow10(tok.RawTokenAmount.Decimals)
	}
	return &TokenSide{
		Mint:     tok.Mint,
		UIAmount: uiAmount(ui),
		Owner:    tok.UserAccount,
	}
}
