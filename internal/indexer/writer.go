package indexer

import (
	"context"
	"log/slog"
	"time"

	"github.com/solderlabs/cortex/internal/domain"
	"github.com/solderlabs/cortex/internal/metrics"
)

// Writer persists normalised transactions and recomputes wallet rollups.
// Before a swap with no USD value is inserted, the writer tries to price its
// output token through the cache and the price provider. Pricing is strictly
// best effort: a miss leaves usd_value at 0 and never delays the insert.
type Writer struct {
	txs       domain.TransactionStore
	summaries domain.SummaryStore
	positions domain.PositionStore
	cache     domain.PriceCache
	prices    domain.PriceProvider
	logger    *slog.Logger

	summaryDepth int
}

// WriterConfig carries the writer's collaborators. Cache and Prices are
// optional; without them enrichment is skipped.
type WriterConfig struct {
	Transactions domain.TransactionStore
	Summaries    domain.SummaryStore
	Positions    domain.PositionStore
	Cache        domain.PriceCache
	Prices       domain.PriceProvider

	// SummaryDepth bounds how much history a summary recompute reads.
	SummaryDepth int
}

// NewWriter creates a Writer.
func NewWriter(cfg WriterConfig, logger *slog.Logger) *Writer {
	depth := cfg.SummaryDepth
	if depth <= 0 {
		depth = 1000
	}
	return &Writer{
		txs:          cfg.Transactions,
		summaries:    cfg.Summaries,
		positions:    cfg.Positions,
		cache:        cfg.Cache,
		prices:       cfg.Prices,
		logger:       logger.With("component", "writer"),
		summaryDepth: depth,
	}
}

// Insert enriches and appends one transaction. Duplicates are the store's
// problem; an insert error is logged and returned so the caller can decide
// whether the stream should keep going.
func (w *Writer) Insert(ctx context.Context, tx *domain.ParsedTransaction) error {
	w.enrich(ctx, tx)
	if err := w.txs.Insert(ctx, *tx); err != nil {
		w.logger.Error("insert failed", "wallet", tx.Wallet, "signature", tx.Signature, "error", err)
		return err
	}
	return nil
}

// InsertBatch enriches and appends a batch, preserving order.
func (w *Writer) InsertBatch(ctx context.Context, txs []domain.ParsedTransaction) error {
	for i := range txs {
		w.enrich(ctx, &txs[i])
	}
	if err := w.txs.InsertBatch(ctx, txs); err != nil {
		w.logger.Error("batch insert failed", "count", len(txs), "error", err)
		return err
	}
	return nil
}

// RecomputeSummary rebuilds the wallet's rollup and open positions from
// recent history and overwrites the stored projections.
func (w *Writer) RecomputeSummary(ctx context.Context, wallet string) error {
	history, err := w.txs.ListByWallet(ctx, wallet, w.summaryDepth)
	if err != nil {
		return err
	}

	summary, positions := metrics.ComputeSummary(wallet, history, time.Now())
	if err := w.summaries.Upsert(ctx, summary); err != nil {
		return err
	}
	if w.positions != nil {
		if err := w.positions.Replace(ctx, wallet, positions); err != nil {
			return err
		}
	}
	return nil
}

// enrich fills usd_value on swaps when a price for the output token is
// available. Cache first, then the provider; provider hits are written back
// to the cache.
func (w *Writer) enrich(ctx context.Context, tx *domain.ParsedTransaction) {
	if tx.TxType != domain.TxSwap || tx.USDValue != 0 || tx.TokenOut == "" {
		return
	}

	if w.cache != nil {
		if price, _, err := w.cache.GetPrice(ctx, tx.TokenOut); err == nil && price > 0 {
			tx.USDValue = price * tx.AmountOut
			return
		}
	}

	if w.prices == nil {
		return
	}
	price, ok := w.prices.Price(ctx, tx.TokenOut)
	if !ok || price <= 0 {
		return
	}
	tx.USDValue = price * tx.AmountOut

	if w.cache != nil {
		if err := w.cache.SetPrice(ctx, tx.TokenOut, price, time.Now()); err != nil {
			w.logger.Debug("price cache write failed", "mint", tx.TokenOut, "error", err)
		}
	}
}
