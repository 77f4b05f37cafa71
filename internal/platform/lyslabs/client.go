// Package lyslabs is the WebSocket client for the LYS Labs parsed-transaction
// stream. It maintains a per-wallet subscription with exponential-backoff
// reconnects and pushes matched records into a bounded channel, blocking when
// the consumer falls behind.
package lyslabs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/solderlabs/cortex/internal/domain"
	"github.com/solderlabs/cortex/internal/indexer"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// baseReconnectDelay is the unit delay for exponential backoff.
	baseReconnectDelay = time.Second

	// maxBackoffExponent caps the backoff exponent: delay = base * 2^min(a, 6).
	maxBackoffExponent = 6

	// defaultMaxReconnectAttempts bounds consecutive failed connects before
	// the stream terminates.
	defaultMaxReconnectAttempts = 10
)

// FrameArchiver receives raw inbound frames for best-effort archival.
type FrameArchiver interface {
	ArchiveFrame(ctx context.Context, wallet string, frame []byte)
}

// Client streams live transactions from the LYS Labs WebSocket API.
type Client struct {
	wsURL       string
	apiKey      string
	maxAttempts int
	logger      *slog.Logger
	archiver    FrameArchiver
}

// New creates a stream client. maxAttempts bounds consecutive reconnect
// failures; zero selects the default of 10.
func New(wsURL, apiKey string, maxAttempts int, logger *slog.Logger) *Client {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxReconnectAttempts
	}
	return &Client{
		wsURL:       wsURL,
		apiKey:      apiKey,
		maxAttempts: maxAttempts,
		logger:      logger.With(slog.String("component", "lyslabs")),
	}
}

// SetArchiver attaches an optional raw-frame archiver. Must be called before
// Stream.
func (c *Client) SetArchiver(a FrameArchiver) {
	c.archiver = a
}

// envelope is the typed wrapper around every inbound text frame.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// subscribeFrame is sent once per connection to open the firehose.
var subscribeFrame = []byte(`{"action":"subscribe"}`)

// Stream connects to the provider and pushes every record involving wallet
// into out. It blocks until the context is cancelled, the reconnect budget is
// exhausted (domain.ErrReconnectExhausted), or an unrecoverable error occurs.
// The channel send back-pressures the reader; records are never dropped.
func (c *Client) Stream(ctx context.Context, wallet string, out chan<- *indexer.RawRecord) error {
	attempt := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := c.dial(ctx)
		if err != nil {
			attempt++
			c.logger.Warn("connect failed",
				slog.String("wallet", wallet),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			if attempt >= c.maxAttempts {
				return fmt.Errorf("lyslabs: stream %s: %w", wallet, domain.ErrReconnectExhausted)
			}
			if err := sleepCtx(ctx, backoffDelay(attempt)); err != nil {
				return err
			}
			continue
		}

		// Successful connect resets the failure counter.
		attempt = 0
		c.logger.Info("connected", slog.String("wallet", wallet), slog.Int("attempt", attempt))

		err = c.run(ctx, conn, wallet, out)
		_ = conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !errors.Is(err, domain.ErrWSDisconnect) {
			return err
		}

		attempt++
		c.logger.Warn("disconnected, reconnecting",
			slog.String("wallet", wallet),
			slog.Int("attempt", attempt),
		)
		if attempt >= c.maxAttempts {
			return fmt.Errorf("lyslabs: stream %s: %w", wallet, domain.ErrReconnectExhausted)
		}
		if err := sleepCtx(ctx, backoffDelay(attempt)); err != nil {
			return err
		}
	}
}

// dial opens the WebSocket connection with the API key attached.
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("lyslabs: parse ws url: %w", err)
	}
	q := u.Query()
	if c.apiKey != "" {
		q.Set("apiKey", c.apiKey)
	}
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("lyslabs: %w: %v", domain.ErrTransport, err)
	}
	return conn, nil
}

// run sends the subscribe frame and consumes inbound frames until the
// connection drops or the context is cancelled. It returns
// domain.ErrWSDisconnect for recoverable read errors.
func (c *Client) run(ctx context.Context, conn *websocket.Conn, wallet string, out chan<- *indexer.RawRecord) error {
	// Close the socket when the context is cancelled so the blocked read
	// returns promptly.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.PongMessage, []byte(appData))
	})

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, subscribeFrame); err != nil {
		return fmt.Errorf("lyslabs: subscribe: %w", domain.ErrWSDisconnect)
	}

	for {
		msgType, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return domain.ErrWSDisconnect
		}
		if msgType != websocket.TextMessage {
			continue
		}

		if c.archiver != nil {
			c.archiver.ArchiveFrame(ctx, wallet, frame)
		}

		records := decodeEnvelope(frame)
		for _, rec := range records {
			if !rec.InvolvesWallet(wallet) {
				continue
			}
			select {
			case out <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// decodeEnvelope expands one text frame into zero or more raw records.
// Frames that fail to decode are dropped.
func decodeEnvelope(frame []byte) []*indexer.RawRecord {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil
	}

	switch env.Type {
	case "transaction":
		var rec indexer.RawRecord
		if err := json.Unmarshal(env.Data, &rec); err != nil {
			return nil
		}
		if rec.Signature == "" {
			return nil
		}
		return []*indexer.RawRecord{&rec}
	case "transactions":
		var recs []*indexer.RawRecord
		if err := json.Unmarshal(env.Data, &recs); err != nil {
			return nil
		}
		matched := recs[:0]
		for _, r := range recs {
			if r != nil && r.Signature != "" {
				matched = append(matched, r)
			}
		}
		return matched
	default:
		return nil
	}
}

// backoffDelay computes the reconnect delay for the given consecutive failure
// count: 1s * 2^min(attempt, 6).
func backoffDelay(attempt int) time.Duration {
	exp := attempt
	if exp > maxBackoffExponent {
		exp = maxBackoffExponent
	}
	return baseReconnectDelay * (1 << exp)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
