// Package helius is the REST client for the Helius enhanced-transactions
// API, used to backfill a wallet's recent history.
package helius

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/solderlabs/cortex/internal/domain"
)

const (
	// pageSize is the fixed page size for history pagination.
	pageSize = 100

	// pageDelay is the minimum delay between history pages, respecting the
	// provider rate limit.
	pageDelay = 100 * time.Millisecond
)

// Client is the Helius REST API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	pageDelay  time.Duration
}

// New creates a new Helius client.
//
// baseURL is the API root, e.g. "https://api.helius.xyz".
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		pageDelay: pageDelay,
	}
}

// FetchHistory returns up to max enhanced transactions for the wallet in
// reverse chronological order, paging with the opaque before-signature
// cursor. Paging stops on an empty page or when max is reached. Records
// without a signature are dropped.
func (c *Client) FetchHistory(ctx context.Context, wallet string, max int) ([]EnhancedTransaction, error) {
	var out []EnhancedTransaction
	before := ""

	for len(out) < max {
		page, err := c.fetchPage(ctx, wallet, before)
		if err != nil {
			return out, err
		}
		if len(page) == 0 {
			break
		}

		for _, tx := range page {
			if tx.Signature == "" {
				continue
			}
			out = append(out, tx)
			if len(out) >= max {
				return out, nil
			}
		}

		before = page[len(page)-1].Signature

		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-time.After(c.pageDelay):
		}
	}

	return out, nil
}

// fetchPage requests a single history page. 4xx responses are fatal for this
// fetch; 5xx and transport failures are wrapped as ErrTransport so callers
// can classify them.
func (c *Client) fetchPage(ctx context.Context, wallet, before string) ([]EnhancedTransaction, error) {
	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("limit", strconv.Itoa(pageSize))
	if before != "" {
		params.Set("before", before)
	}

	endpoint := fmt.Sprintf("%s/v0/addresses/%s/transactions?%s",
		c.baseURL, url.PathEscape(wallet), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("helius: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("helius: %w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("helius: read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("helius: %w: status %d", domain.ErrTransport, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("helius: history fetch failed: status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var page []EnhancedTransaction
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("helius: decode page: %w", err)
	}
	return page, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
