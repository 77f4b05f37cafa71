// Package jupiter is the best-effort token price client backed by the
// Jupiter price API. Lookups never block ingestion: any failure is reported
// as a missing price.
package jupiter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/solderlabs/cortex/internal/domain"
)

// Client fetches token prices from the Jupiter price API.
type Client struct {
	priceURL   string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a price client. priceURL is the full price endpoint, e.g.
// "https://price.jup.ag/v6/price".
func New(priceURL string, logger *slog.Logger) *Client {
	return &Client{
		priceURL: priceURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger.With(slog.String("component", "jupiter")),
	}
}

// priceResponse is the v6 price API envelope.
type priceResponse struct {
	Data map[string]struct {
		Price float64 `json:"price"`
	} `json:"data"`
}

// Price returns the current USD price of a token mint. Any failure yields
// (0, false).
func (c *Client) Price(ctx context.Context, mint string) (float64, bool) {
	endpoint := c.priceURL + "?ids=" + url.QueryEscape(mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("price lookup failed", slog.String("mint", mint), slog.String("error", err.Error()))
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, false
	}

	var pr priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, false
	}

	entry, ok := pr.Data[mint]
	if !ok || entry.Price <= 0 {
		return 0, false
	}
	return entry.Price, true
}

// Compile-time interface check.
var _ domain.PriceProvider = (*Client)(nil)
