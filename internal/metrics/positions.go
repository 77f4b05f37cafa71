package metrics

import (
	"sort"

	"github.com/solderlabs/cortex/internal/domain"
)

// positionKey identifies one open exposure while replaying history.
type positionKey struct {
	protocol domain.Protocol
	ptype    domain.PositionType
	token    string
}

type positionAcc struct {
	amount    float64
	costBasis float64
}

// DerivePositions replays txs and projects the wallet's position set.
// Deposits and repayments build lending exposure, liquidity adds build LP
// exposure, and swap outputs build spot exposure. Keys whose amount has gone
// to zero or below stay in the set as amount-0 rows: versioned stores need
// them to mask the previous open version of a closed position.
func DerivePositions(wallet string, txs []domain.ParsedTransaction) []domain.Position {
	acc := make(map[positionKey]*positionAcc)
	get := func(k positionKey) *positionAcc {
		a, ok := acc[k]
		if !ok {
			a = &positionAcc{}
			acc[k] = a
		}
		return a
	}
	reduce := func(k positionKey, amount float64) {
		a := get(k)
		prev := a.amount
		a.amount -= amount
		if prev > 0 && amount > 0 {
			frac := amount / prev
			if frac > 1 {
				frac = 1
			}
			a.costBasis -= a.costBasis * frac
		}
	}

	for i := range txs {
		tx := &txs[i]
		switch tx.TxType {
		case domain.TxDeposit:
			a := get(positionKey{tx.Protocol, domain.PositionLendingSupply, tx.TokenIn})
			a.amount += tx.AmountIn
			a.costBasis += tx.USDValue
		case domain.TxWithdraw:
			reduce(positionKey{tx.Protocol, domain.PositionLendingSupply, tx.TokenOut}, tx.AmountOut)
		case domain.TxBorrow:
			a := get(positionKey{tx.Protocol, domain.PositionLendingBorrow, tx.TokenOut})
			a.amount += tx.AmountOut
			a.costBasis += tx.USDValue
		case domain.TxRepay:
			reduce(positionKey{tx.Protocol, domain.PositionLendingBorrow, tx.TokenIn}, tx.AmountIn)
		case domain.TxAddLiquidity:
			a := get(positionKey{tx.Protocol, domain.PositionLP, tx.TokenIn})
			a.amount += tx.AmountIn
			a.costBasis += tx.USDValue
		case domain.TxRemoveLiquidity:
			reduce(positionKey{tx.Protocol, domain.PositionLP, tx.TokenOut}, tx.AmountOut)
		case domain.TxSwap:
			reduce(positionKey{tx.Protocol, domain.PositionSpot, tx.TokenIn}, tx.AmountIn)
			a := get(positionKey{tx.Protocol, domain.PositionSpot, tx.TokenOut})
			a.amount += tx.AmountOut
			a.costBasis += tx.USDValue
		}
	}

	out := make([]domain.Position, 0, len(acc))
	for k, a := range acc {
		p := domain.Position{
			Wallet:       wallet,
			Protocol:     k.protocol,
			PositionType: k.ptype,
			Token:        k.token,
		}
		if a.amount > 0 {
			p.Amount = a.amount
			p.USDValue = a.costBasis
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].USDValue != out[j].USDValue {
			return out[i].USDValue > out[j].USDValue
		}
		return out[i].Token < out[j].Token
	})
	return out
}
