package domain

import (
	"context"
	"io"
	"time"
)

// TransactionStore persists normalised transactions. Duplicate signatures are
// the store's responsibility to suppress; at-least-once delivery means the
// writer will occasionally re-insert rows it has already seen.
type TransactionStore interface {
	Insert(ctx context.Context, tx ParsedTransaction) error
	InsertBatch(ctx context.Context, txs []ParsedTransaction) error
	ListByWallet(ctx context.Context, wallet string, limit int) ([]ParsedTransaction, error)
	PnlByProtocol(ctx context.Context, wallet string, window TimeWindow) ([]ProtocolPnl, error)
}

// SummaryStore persists per-wallet rollups.
type SummaryStore interface {
	Upsert(ctx context.Context, summary WalletSummary) error
	Get(ctx context.Context, wallet string) (WalletSummary, error)
}

// PositionStore persists open positions.
type PositionStore interface {
	Replace(ctx context.Context, wallet string, positions []Position) error
	ListByWallet(ctx context.Context, wallet string) ([]Position, error)
}

// SubscriptionStore is the durable registry of tracked wallets. The indexer
// replays it at startup so subscriptions survive a restart.
type SubscriptionStore interface {
	Create(ctx context.Context, rec SubscriptionRecord) error
	Delete(ctx context.Context, wallet string) error
	List(ctx context.Context) ([]SubscriptionRecord, error)
}

// PriceCache caches best-effort token prices in front of the price provider.
type PriceCache interface {
	SetPrice(ctx context.Context, mint string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, mint string) (float64, time.Time, error)
}

// PriceProvider looks up the current USD price of a token mint. A lookup
// failure is reported as ok=false, never as a hard error; prices are
// opportunistic and must not block ingestion.
type PriceProvider interface {
	Price(ctx context.Context, mint string) (price float64, ok bool)
}

// BlobWriter uploads raw provider payloads to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
