// Package polymarket is the REST client for Polymarket prediction-market
// data: per-wallet positions (Gamma with a CLOB fallback) and per-market
// bettor lists.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/solderlabs/cortex/internal/domain"
)

// Client fetches prediction-market data from the Polymarket APIs.
type Client struct {
	gammaHost  string
	clobHost   string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a new Polymarket client.
//
// gammaHost and clobHost are the API roots, e.g.
// "https://gamma-api.polymarket.com" and "https://clob.polymarket.com".
func New(gammaHost, clobHost string, logger *slog.Logger) *Client {
	return &Client{
		gammaHost: gammaHost,
		clobHost:  clobHost,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(slog.String("component", "polymarket")),
	}
}

// Positions returns the normalised bets for an EVM address. The richer Gamma
// endpoint is tried first, then the CLOB endpoint; a 404 from either means
// the wallet has no positions and yields an empty list, not an error.
func (c *Client) Positions(ctx context.Context, address string) ([]domain.PredictionMarketBet, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("polymarket: %w: address %q is not a valid EVM address", domain.ErrInvalidInput, address)
	}

	path := "/positions?user=" + url.QueryEscape(address)

	positions, err := c.fetchPositions(ctx, c.gammaHost+path)
	if err == nil {
		return positions, nil
	}
	c.logger.Debug("gamma positions fetch failed, trying clob",
		slog.String("address", address),
		slog.String("error", err.Error()),
	)

	positions, err = c.fetchPositions(ctx, c.clobHost+path)
	if err != nil {
		return nil, fmt.Errorf("polymarket: positions %s: %w", address, err)
	}
	return positions, nil
}

// Bettors returns up to limit bettor addresses for a market. Any failure
// yields an empty list; bettor discovery is strictly best-effort.
func (c *Client) Bettors(ctx context.Context, marketSlug string, limit int) []string {
	if limit <= 0 {
		limit = 50
	}

	endpoint := fmt.Sprintf("%s/markets/%s/traders", c.gammaHost, url.PathEscape(marketSlug))
	body, status, err := c.doGet(ctx, endpoint)
	if err != nil || status != http.StatusOK {
		c.logger.Debug("bettors fetch failed",
			slog.String("slug", marketSlug),
			slog.Int("status", status),
		)
		return nil
	}

	var traders []APITrader
	if err := json.Unmarshal(body, &traders); err != nil {
		return nil
	}

	out := make([]string, 0, len(traders))
	for _, t := range traders {
		addr := t.ProxyWallet
		if addr == "" {
			addr = t.Address
		}
		if addr == "" || !common.IsHexAddress(addr) {
			continue
		}
		out = append(out, addr)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// fetchPositions fetches and decodes one positions endpoint. A 404 decodes to
// an empty list.
func (c *Client) fetchPositions(ctx context.Context, endpoint string) ([]domain.PredictionMarketBet, error) {
	body, status, err := c.doGet(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return []domain.PredictionMarketBet{}, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrTransport, status)
	}

	var apiPositions []APIPosition
	if err := json.Unmarshal(body, &apiPositions); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}

	bets := make([]domain.PredictionMarketBet, 0, len(apiPositions))
	for i := range apiPositions {
		bets = append(bets, apiPositions[i].ToBet())
	}
	return bets, nil
}

func (c *Client) doGet(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
