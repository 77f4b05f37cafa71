package indexer

import (
	"strings"

	"github.com/solderlabs/cortex/internal/domain"
)

// decoderProtocols maps decoder-tag substrings to protocols. Matching is
// case-insensitive and checked in this order.
var decoderProtocols = []struct {
	substr   string
	protocol domain.Protocol
}{
	{"jupiter", domain.ProtocolJupiter},
	{"raydium", domain.ProtocolRaydium},
	{"kamino", domain.ProtocolKamino},
	{"meteora", domain.ProtocolMeteora},
	{"orca", domain.ProtocolOrca},
	{"pump", domain.ProtocolPumpFun},
}

// programProtocols maps known on-chain program IDs to protocols. Used when
// the decoder tag gives no match.
var programProtocols = map[string]domain.Protocol{
	"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4":  domain.ProtocolJupiter, // Jupiter v6
	"JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB":  domain.ProtocolJupiter, // Jupiter v4
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": domain.ProtocolRaydium, // Raydium AMM
	"CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK": domain.ProtocolRaydium, // Raydium CLMM
	"KLend2g3cP87ber41L3rfCMYbkK3YqPjSSahS1E3HVK":  domain.ProtocolKamino,  // Kamino Lending
	"6LtLpnUFNByNXLyCoK9wA2MykKAmQNZKBdY8s47dehDc": domain.ProtocolKamino,  // Kamino Liquidity
	"LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo":  domain.ProtocolMeteora, // Meteora DLMM
	"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc":  domain.ProtocolOrca,    // Orca Whirlpool
	"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P":  domain.ProtocolPumpFun, // Pump.fun
}

// detectProtocol resolves the protocol from the decoder tag first, then from
// the program ID table.
func detectProtocol(decoderType, programID string) (domain.Protocol, bool) {
	lower := strings.ToLower(decoderType)
	for _, d := range decoderProtocols {
		if strings.Contains(lower, d.substr) {
			return d.protocol, true
		}
	}
	if p, ok := programProtocols[programID]; ok {
		return p, true
	}
	return "", false
}

// swapLikeDecoder reports whether the decoder tag indicates a protocol whose
// unlabelled events are most plausibly swaps.
func swapLikeDecoder(decoderType string) bool {
	lower := strings.ToLower(decoderType)
	for _, s := range []string{"swap", "raydium", "jupiter", "meteora", "orca", "pump"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// blockTimeMs normalises a provider block time to milliseconds. Providers
// report seconds; a value already in milliseconds is passed through.
func blockTimeMs(blockTime int64) int64 {
	if blockTime > 0 && blockTime < 1_000_000_000_000 {
		return blockTime * 1000
	}
	return blockTime
}

// Parse normalises one raw provider record into a ParsedTransaction for the
// given wallet. It returns (nil, false) for records that do not map onto a
// known protocol and event type; callers drop those silently.
func Parse(rec *RawRecord, wallet string) (*domain.ParsedTransaction, bool) {
	if rec == nil || rec.Signature == "" {
		return nil, false
	}

	protocol, ok := detectProtocol(rec.DecoderType, rec.ProgramID)
	if !ok {
		return nil, false
	}

	event := strings.ToUpper(rec.EventType)
	switch event {
	case "SWAP":
		return parseSwap(rec, wallet, protocol)
	case "DEPOSIT", "SUPPLY":
		return parseOneSided(rec, wallet, protocol, domain.TxDeposit, sideIn)
	case "WITHDRAW", "REDEEM":
		return parseOneSided(rec, wallet, protocol, domain.TxWithdraw, sideOut)
	case "BORROW":
		return parseOneSided(rec, wallet, protocol, domain.TxBorrow, sideOut)
	case "REPAY":
		return parseOneSided(rec, wallet, protocol, domain.TxRepay, sideIn)
	case "ADD_LIQUIDITY":
		return parseOneSided(rec, wallet, protocol, domain.TxAddLiquidity, sideIn)
	case "REMOVE_LIQUIDITY":
		return parseOneSided(rec, wallet, protocol, domain.TxRemoveLiquidity, sideOut)
	case "TRANSFER":
		return nil, false
	default:
		if swapLikeDecoder(rec.DecoderType) {
			return parseSwap(rec, wallet, protocol)
		}
		return nil, false
	}
}

// parseSwap extracts both sides of a swap. Explicit tokenIn/tokenOut
// sub-objects win; otherwise the record-level mint and amount are attributed
// to the input side when the wallet is the source, or the output side when it
// is the destination.
func parseSwap(rec *RawRecord, wallet string, protocol domain.Protocol) (*domain.ParsedTransaction, bool) {
	var tokenIn, tokenOut string
	var amountIn, amountOut float64

	if rec.TokenIn != nil && rec.TokenIn.Mint != "" {
		tokenIn = rec.TokenIn.Mint
		amountIn = rec.TokenIn.Value()
	}
	if rec.TokenOut != nil && rec.TokenOut.Mint != "" {
		tokenOut = rec.TokenOut.Mint
		amountOut = rec.TokenOut.Value()
	}

	if tokenIn == "" && tokenOut == "" {
		switch {
		case rec.Source == wallet && rec.Mint != "":
			tokenIn = rec.Mint
			amountIn = rec.topAmount()
		case rec.Destination == wallet && rec.Mint != "":
			tokenOut = rec.Mint
			amountOut = rec.topAmount()
		}
	}

	if tokenIn == "" && tokenOut == "" {
		return nil, false
	}

	return &domain.ParsedTransaction{
		Signature:   rec.Signature,
		Wallet:      wallet,
		Protocol:    protocol,
		TxType:      domain.TxSwap,
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		AmountIn:    amountIn,
		AmountOut:   amountOut,
		USDValue:    0,
		BlockTimeMs: blockTimeMs(rec.BlockTime),
		Slot:        rec.Slot,
	}, true
}

type side int

const (
	sideIn side = iota
	sideOut
)

// parseOneSided extracts a deposit/withdraw/borrow/repay/liquidity event.
// Exactly one token side is populated.
func parseOneSided(rec *RawRecord, wallet string, protocol domain.Protocol, txType domain.TransactionType, s side) (*domain.ParsedTransaction, bool) {
	mint := rec.Mint
	amount := rec.topAmount()

	if s == sideIn && rec.TokenIn != nil && rec.TokenIn.Mint != "" {
		mint = rec.TokenIn.Mint
		amount = rec.TokenIn.Value()
	}
	if s == sideOut && rec.TokenOut != nil && rec.TokenOut.Mint != "" {
		mint = rec.TokenOut.Mint
		amount = rec.TokenOut.Value()
	}

	if mint == "" {
		return nil, false
	}

	tx := &domain.ParsedTransaction{
		Signature:   rec.Signature,
		Wallet:      wallet,
		Protocol:    protocol,
		TxType:      txType,
		USDValue:    0,
		BlockTimeMs: blockTimeMs(rec.BlockTime),
		Slot:        rec.Slot,
	}
	if s == sideIn {
		tx.TokenIn = mint
		tx.AmountIn = amount
	} else {
		tx.TokenOut = mint
		tx.AmountOut = amount
	}
	return tx, true
}
