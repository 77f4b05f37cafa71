package metrics

import (
	"sort"
	"time"

	"github.com/solderlabs/cortex/internal/domain"
)

// ComputeSummary rolls a wallet's transaction history up into a WalletSummary
// plus the position projection it was derived from. The returned positions
// include amount-0 rows for closed keys; the summary and risk profile only
// count open ones. The summary is a pure function of (txs, now); callers
// persist both pieces together so reads stay consistent.
func ComputeSummary(wallet string, txs []domain.ParsedTransaction, now time.Time) (domain.WalletSummary, []domain.Position) {
	pnl := ComputePnl(txs, now)
	positions := DerivePositions(wallet, txs)

	open := make([]domain.Position, 0, len(positions))
	for i := range positions {
		if positions[i].Amount > 0 {
			open = append(open, positions[i])
		}
	}
	risk := ComputeRisk(open)

	protocols := make(map[domain.Protocol]struct{})
	var lastActivity int64
	for i := range txs {
		protocols[txs[i].Protocol] = struct{}{}
		if txs[i].BlockTimeMs > lastActivity {
			lastActivity = txs[i].BlockTimeMs
		}
	}

	names := make([]string, 0, len(protocols))
	for p := range protocols {
		names = append(names, string(p))
	}
	sort.Strings(names)

	return domain.WalletSummary{
		Wallet:             wallet,
		TotalValueUSD:      pnl.TotalValue,
		RealizedPnl24h:     pnl.Realized24h,
		RealizedPnl7d:      pnl.Realized7d,
		RealizedPnl30d:     pnl.Realized30d,
		UnrealizedPnl:      pnl.Unrealized,
		LargestPositionPct: risk.LargestPositionPct,
		ProtocolCount:      risk.ProtocolCount,
		PositionCount:      risk.PositionCount,
		RiskScore:          risk.Score,
		LastActivityMs:     lastActivity,
		Protocols:          names,
	}, positions
}
