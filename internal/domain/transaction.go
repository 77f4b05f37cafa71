// Package domain defines the core entities of the cortex wallet pipeline:
// normalised transactions, wallet summaries, positions, prediction-market
// bets, and the store interfaces the rest of the system depends on.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Protocol identifies the DeFi protocol a transaction was decoded from.
type Protocol string

const (
	ProtocolJupiter Protocol = "jupiter"
	ProtocolRaydium Protocol = "raydium"
	ProtocolKamino  Protocol = "kamino"
	ProtocolMeteora Protocol = "meteora"
	ProtocolOrca    Protocol = "orca"
	ProtocolPumpFun Protocol = "pumpfun"
)

// ParseProtocol maps a protocol name to its Protocol value. It accepts the
// common spelling variants seen in provider payloads.
func ParseProtocol(s string) (Protocol, bool) {
	switch strings.ToLower(s) {
	case "jupiter":
		return ProtocolJupiter, true
	case "raydium":
		return ProtocolRaydium, true
	case "kamino":
		return ProtocolKamino, true
	case "meteora":
		return ProtocolMeteora, true
	case "orca":
		return ProtocolOrca, true
	case "pumpfun", "pump_fun", "pump.fun":
		return ProtocolPumpFun, true
	default:
		return "", false
	}
}

// TransactionType classifies a normalised transaction.
type TransactionType string

const (
	TxSwap            TransactionType = "swap"
	TxDeposit         TransactionType = "deposit"
	TxWithdraw        TransactionType = "withdraw"
	TxBorrow          TransactionType = "borrow"
	TxRepay           TransactionType = "repay"
	TxAddLiquidity    TransactionType = "add_liquidity"
	TxRemoveLiquidity TransactionType = "remove_liquidity"
)

// TimeWindow selects a PnL aggregation window.
type TimeWindow string

const (
	WindowDay   TimeWindow = "24h"
	WindowWeek  TimeWindow = "7d"
	WindowMonth TimeWindow = "30d"
	WindowAll   TimeWindow = "all"
)

// ParseTimeWindow maps a query-string window value to a TimeWindow.
func ParseTimeWindow(s string) (TimeWindow, bool) {
	switch strings.ToLower(s) {
	case "24h", "1d":
		return WindowDay, true
	case "7d", "1w":
		return WindowWeek, true
	case "30d", "1m":
		return WindowMonth, true
	case "all":
		return WindowAll, true
	default:
		return "", false
	}
}

// Days returns the window length in days, or 0 for WindowAll.
func (w TimeWindow) Days() int {
	switch w {
	case WindowDay:
		return 1
	case WindowWeek:
		return 7
	case WindowMonth:
		return 30
	default:
		return 0
	}
}

// ParsedTransaction is the canonical normalised record every provider payload
// is reduced to. Either token side may be empty for one-sided operations;
// USDValue is zero when no price was available at ingest time.
type ParsedTransaction struct {
	Signature   string          `json:"signature"`
	Wallet      string          `json:"wallet"`
	Protocol    Protocol        `json:"protocol"`
	TxType      TransactionType `json:"tx_type"`
	TokenIn     string          `json:"token_in"`
	TokenOut    string          `json:"token_out"`
	AmountIn    float64         `json:"amount_in"`
	AmountOut   float64         `json:"amount_out"`
	USDValue    float64         `json:"usd_value"`
	BlockTimeMs int64           `json:"block_time_ms"`
	Slot        uint64          `json:"slot"`
}

// Validate checks the structural invariants of a normalised transaction.
func (t *ParsedTransaction) Validate() error {
	if t.Signature == "" {
		return fmt.Errorf("%w: empty signature", ErrInvalidInput)
	}
	if t.BlockTimeMs <= 0 {
		return fmt.Errorf("%w: block_time_ms must be positive", ErrInvalidInput)
	}
	if t.TxType == TxSwap {
		if t.TokenIn == "" || t.TokenOut == "" || t.AmountIn <= 0 || t.AmountOut <= 0 {
			return fmt.Errorf("%w: swap requires both sides populated", ErrInvalidInput)
		}
	}
	return nil
}

// BlockTime returns the transaction time as a time.Time.
func (t *ParsedTransaction) BlockTime() time.Time {
	return time.UnixMilli(t.BlockTimeMs)
}

// base58Alphabet is the Bitcoin base58 alphabet used by Solana addresses.
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// ValidWalletAddress reports whether s looks like a Solana wallet address:
// base58 characters, length 32 to 44.
func ValidWalletAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune(base58Alphabet, c) {
			return false
		}
	}
	return true
}
