// Package metrics derives wallet rollups from normalised transaction history:
// realized PnL over fixed windows, open-position projection, and a
// concentration-based risk score.
package metrics

import (
	"time"

	"github.com/solderlabs/cortex/internal/domain"
)

// Pnl is the realized PnL rollup over the fixed reporting windows.
// Unrealized stays 0 until a current-price hook is wired; the field exists so
// the API shape is stable.
type Pnl struct {
	Realized24h float64
	Realized7d  float64
	Realized30d float64
	TotalValue  float64
	Unrealized  float64
}

// tokenPosition tracks the running amount and cost basis of one token while
// replaying history.
type tokenPosition struct {
	amount    float64
	costBasis float64
}

// realizing reports whether a transaction type's usd_value counts as
// realized proceeds.
func realizing(t domain.TransactionType) bool {
	return t == domain.TxSwap || t == domain.TxWithdraw || t == domain.TxRemoveLiquidity
}

// ComputePnl replays txs and returns the realized PnL windows anchored at now
// plus a cost-basis estimate of total value. Transactions may arrive in any
// order; window membership depends only on block time.
func ComputePnl(txs []domain.ParsedTransaction, now time.Time) Pnl {
	var p Pnl

	cut24 := now.Add(-24 * time.Hour)
	cut7d := now.Add(-7 * 24 * time.Hour)
	cut30d := now.Add(-30 * 24 * time.Hour)

	positions := make(map[string]*tokenPosition)
	pos := func(token string) *tokenPosition {
		tp, ok := positions[token]
		if !ok {
			tp = &tokenPosition{}
			positions[token] = tp
		}
		return tp
	}

	// reduce subtracts amount from the token position and shrinks its cost
	// basis by the same fraction of the pre-reduction amount.
	reduce := func(token string, amount float64) {
		tp := pos(token)
		prev := tp.amount
		tp.amount -= amount
		if prev > 0 && amount > 0 {
			frac := amount / prev
			if frac > 1 {
				frac = 1
			}
			tp.costBasis -= tp.costBasis * frac
		}
	}

	for i := range txs {
		tx := &txs[i]
		bt := tx.BlockTime()

		if realizing(tx.TxType) {
			if !bt.Before(cut24) {
				p.Realized24h += tx.USDValue
			}
			if !bt.Before(cut7d) {
				p.Realized7d += tx.USDValue
			}
			if !bt.Before(cut30d) {
				p.Realized30d += tx.USDValue
			}
		}

		switch tx.TxType {
		case domain.TxDeposit, domain.TxAddLiquidity:
			tp := pos(tx.TokenIn)
			tp.amount += tx.AmountIn
			tp.costBasis += tx.USDValue
		case domain.TxWithdraw, domain.TxRemoveLiquidity:
			reduce(tx.TokenOut, tx.AmountOut)
		case domain.TxSwap:
			pos(tx.TokenIn).amount -= tx.AmountIn
			out := pos(tx.TokenOut)
			out.amount += tx.AmountOut
			out.costBasis += tx.USDValue
		}
	}

	for _, tp := range positions {
		if tp.amount > 0 && tp.costBasis > 0 {
			p.TotalValue += tp.costBasis
		}
	}

	return p
}
