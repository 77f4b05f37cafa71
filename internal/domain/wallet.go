package domain

import "time"

// WalletSummary is the derived per-wallet rollup. It is recomputed from the
// transaction history and never authoritative on its own.
type WalletSummary struct {
	Wallet             string   `json:"wallet"`
	TotalValueUSD      float64  `json:"total_value_usd"`
	RealizedPnl24h     float64  `json:"realized_pnl_24h"`
	RealizedPnl7d      float64  `json:"realized_pnl_7d"`
	RealizedPnl30d     float64  `json:"realized_pnl_30d"`
	UnrealizedPnl      float64  `json:"unrealized_pnl"`
	LargestPositionPct float64  `json:"largest_position_pct"`
	ProtocolCount      int      `json:"protocol_count"`
	PositionCount      int      `json:"position_count"`
	RiskScore          int      `json:"risk_score"`
	LastActivityMs     int64    `json:"last_activity_ms"`
	Protocols          []string `json:"protocols"`
}

// PositionType classifies an open exposure.
type PositionType string

const (
	PositionLendingSupply PositionType = "lending_supply"
	PositionLendingBorrow PositionType = "lending_borrow"
	PositionLP            PositionType = "lp"
	PositionSpot          PositionType = "spot"
)

// Position is one open exposure, an ephemeral projection of transaction
// history keyed by (wallet, protocol, type, token, pool).
type Position struct {
	Wallet        string       `json:"wallet"`
	Protocol      Protocol     `json:"protocol"`
	PositionType  PositionType `json:"position_type"`
	Token         string       `json:"token"`
	Pool          string       `json:"pool,omitempty"`
	Amount        float64      `json:"amount"`
	EntryPrice    float64      `json:"entry_price,omitempty"`
	CurrentPrice  float64      `json:"current_price"`
	USDValue      float64      `json:"usd_value"`
	UnrealizedPnl float64      `json:"unrealized_pnl"`
	APY           float64      `json:"apy,omitempty"`
}

// ProtocolPnl is the by-protocol realized/unrealized PnL projection served by
// the read API.
type ProtocolPnl struct {
	Protocol   string  `json:"protocol"`
	Realized   float64 `json:"realized"`
	Unrealized float64 `json:"unrealized"`
	TradeCount uint64  `json:"trade_count"`
}

// SubscriptionInfo is the externally visible snapshot of one live wallet
// subscription.
type SubscriptionInfo struct {
	ID        string    `json:"id"`
	Wallet    string    `json:"wallet"`
	StartedAt time.Time `json:"started_at"`
	TxCount   uint64    `json:"tx_count"`
	Running   bool      `json:"running"`
}

// SubscriptionRecord is the durable form of a subscription, persisted so
// tracked wallets resume after a restart.
type SubscriptionRecord struct {
	ID        string
	Wallet    string
	CreatedAt time.Time
}
