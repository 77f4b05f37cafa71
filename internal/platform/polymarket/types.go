package polymarket

import (
	"time"

	"github.com/solderlabs/cortex/internal/domain"
)

// APIPosition is one position row from the Gamma or CLOB positions endpoint.
type APIPosition struct {
	ProxyWallet  string  `json:"proxyWallet"`
	Asset        string  `json:"asset"`
	ConditionID  string  `json:"conditionId"`
	Title        string  `json:"title"`
	Slug         string  `json:"slug"`
	EventSlug    string  `json:"eventSlug"`
	Outcome      string  `json:"outcome"`
	Size         float64 `json:"size"`
	AvgPrice     float64 `json:"avgPrice"`
	CurPrice     float64 `json:"curPrice"`
	InitialValue float64 `json:"initialValue"`
	CurrentValue float64 `json:"currentValue"`
	CashPnl      float64 `json:"cashPnl"`
	Category     string  `json:"category"`
	EndDate      string  `json:"endDate"`
	Redeemable   bool    `json:"redeemable"`
	Closed       bool    `json:"closed"`
}

// ToBet converts an API position into the normalised bet shape.
func (p *APIPosition) ToBet() domain.PredictionMarketBet {
	status := domain.MarketOpen
	if p.Closed {
		status = domain.MarketClosed
	}
	if p.Redeemable {
		status = domain.MarketResolved
	}

	placedAt := time.Time{}
	if p.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, p.EndDate); err == nil {
			placedAt = t
		}
	}

	return domain.PredictionMarketBet{
		Platform:      "polymarket",
		MarketSlug:    p.Slug,
		MarketTitle:   p.Title,
		Outcome:       p.Outcome,
		AmountUSD:     p.InitialValue,
		EntryPrice:    p.AvgPrice,
		CurrentPrice:  p.CurPrice,
		Shares:        p.Size,
		UnrealizedPnl: p.CashPnl,
		Category:      p.Category,
		Status:        status,
		PlacedAt:      placedAt,
	}
}

// APITrader is one bettor row from the market traders endpoint.
type APITrader struct {
	ProxyWallet string `json:"proxyWallet"`
	Address     string `json:"address"`
}
