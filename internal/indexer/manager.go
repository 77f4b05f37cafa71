// Package indexer drives per-wallet ingestion: normalising provider records,
// persisting them, and running the subscription lifecycle that keeps a
// wallet's history and live stream flowing into the store.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/solderlabs/cortex/internal/domain"
	"github.com/solderlabs/cortex/internal/platform/helius"
)

const (
	// snapshotBudget bounds a one-shot index fill.
	snapshotBudget = 15 * time.Second
	// snapshotMaxRecords caps how many live records a snapshot collects.
	snapshotMaxRecords = 1000
	// summaryRecomputeEvery controls how often a long-lived processor
	// refreshes the wallet rollup.
	summaryRecomputeEvery = 50
)

// StreamClient delivers a wallet's live records into out until ctx is
// cancelled or the reconnect budget is exhausted.
type StreamClient interface {
	Stream(ctx context.Context, wallet string, out chan<- *RawRecord) error
}

// HistoryClient pages a wallet's recent transaction history.
type HistoryClient interface {
	FetchHistory(ctx context.Context, wallet string, max int) ([]helius.EnhancedTransaction, error)
}

// StartResult reports the outcome of a Start call. The values double as the
// API status strings.
type StartResult string

// StopResult reports the outcome of a Stop call.
type StopResult string

const (
	StartStarted        StartResult = "started"
	StartAlreadyRunning StartResult = "already_running"

	StopStopped    StopResult = "stopped"
	StopNotRunning StopResult = "not_running"
)

// subscription is the runtime state of one tracked wallet.
type subscription struct {
	id        string
	wallet    string
	startedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	txCount atomic.Uint64
}

// ManagerConfig tunes the subscription engine.
type ManagerConfig struct {
	ChannelCapacity int
	HistoryMax      int
}

// Manager owns the wallet → subscription map and is the uniqueness
// authority: at most one subscription per wallet, ever.
type Manager struct {
	stream   StreamClient
	history  HistoryClient
	writer   *Writer
	registry domain.SubscriptionStore
	logger   *slog.Logger

	channelCap int
	historyMax int

	mu   sync.Mutex
	subs map[string]*subscription
}

// NewManager creates a Manager. registry is optional; without it
// subscriptions do not survive a restart.
func NewManager(stream StreamClient, history HistoryClient, writer *Writer, registry domain.SubscriptionStore, cfg ManagerConfig, logger *slog.Logger) *Manager {
	channelCap := cfg.ChannelCapacity
	if channelCap < 1 {
		channelCap = 1000
	}
	historyMax := cfg.HistoryMax
	if historyMax < 0 {
		historyMax = 1000
	}
	return &Manager{
		stream:     stream,
		history:    history,
		writer:     writer,
		registry:   registry,
		logger:     logger.With("component", "indexer"),
		channelCap: channelCap,
		historyMax: historyMax,
		subs:       make(map[string]*subscription),
	}
}

// Start begins continuous ingestion for a wallet. A wallet that is already
// tracked returns StartAlreadyRunning without side effects.
func (m *Manager) Start(ctx context.Context, wallet string) (StartResult, error) {
	if !domain.ValidWalletAddress(wallet) {
		return "", fmt.Errorf("indexer: start %s: %w: not a valid wallet address", wallet, domain.ErrInvalidInput)
	}

	m.mu.Lock()
	if _, ok := m.subs[wallet]; ok {
		m.mu.Unlock()
		return StartAlreadyRunning, nil
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		id:        uuid.NewString(),
		wallet:    wallet,
		startedAt: time.Now(),
		ctx:       subCtx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	m.subs[wallet] = sub
	m.mu.Unlock()

	if m.registry != nil {
		err := m.registry.Create(ctx, domain.SubscriptionRecord{
			ID:        sub.id,
			Wallet:    wallet,
			CreatedAt: sub.startedAt,
		})
		if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			m.logger.Warn("registry create failed", "wallet", wallet, "error", err)
		}
	}

	go m.run(sub)

	m.logger.Info("subscription started", "wallet", wallet, "id", sub.id)
	return StartStarted, nil
}

// Stop cancels a wallet's subscription and waits for its tasks to wind down,
// bounded by the caller's context. Stopping an untracked wallet is not an
// error.
func (m *Manager) Stop(ctx context.Context, wallet string) (StopResult, error) {
	m.mu.Lock()
	sub, ok := m.subs[wallet]
	if !ok {
		m.mu.Unlock()
		return StopNotRunning, nil
	}
	delete(m.subs, wallet)
	m.mu.Unlock()

	sub.cancel()

	if m.registry != nil {
		if err := m.registry.Delete(ctx, wallet); err != nil {
			m.logger.Warn("registry delete failed", "wallet", wallet, "error", err)
		}
	}

	select {
	case <-sub.done:
	case <-ctx.Done():
	}

	m.logger.Info("subscription stopped", "wallet", wallet, "tx_count", sub.txCount.Load())
	return StopStopped, nil
}

// List returns a snapshot of every tracked subscription.
func (m *Manager) List() []domain.SubscriptionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.SubscriptionInfo, 0, len(m.subs))
	for _, sub := range m.subs {
		out = append(out, domain.SubscriptionInfo{
			ID:        sub.id,
			Wallet:    sub.wallet,
			StartedAt: sub.startedAt,
			TxCount:   sub.txCount.Load(),
			Running:   sub.ctx.Err() == nil,
		})
	}
	return out
}

// IsSubscribed reports whether the wallet is currently tracked.
func (m *Manager) IsSubscribed(wallet string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.subs[wallet]
	return ok
}

// Resume restarts ingestion for every wallet in the durable registry. Called
// once at boot.
func (m *Manager) Resume(ctx context.Context) error {
	if m.registry == nil {
		return nil
	}
	records, err := m.registry.List(ctx)
	if err != nil {
		return fmt.Errorf("indexer: resume: %w", err)
	}
	for _, rec := range records {
		result, err := m.Start(ctx, rec.Wallet)
		if err != nil {
			m.logger.Warn("resume failed", "wallet", rec.Wallet, "error", err)
			continue
		}
		m.logger.Info("subscription resumed", "wallet", rec.Wallet, "result", string(result))
	}
	return nil
}

// Shutdown cancels every subscription without touching the registry, so the
// wallets resume on the next boot. It waits for the task groups to exit,
// bounded by ctx.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	subs := make([]*subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	m.subs = make(map[string]*subscription)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
	}
	for _, sub := range subs {
		select {
		case <-sub.done:
		case <-ctx.Done():
			return
		}
	}
}

// run is the lifetime of one subscription: a history producer and a live
// producer feeding a bounded channel, drained by a single processor. The
// producers fail independently; only cancellation or reconnect exhaustion
// ends the stream.
func (m *Manager) run(sub *subscription) {
	defer close(sub.done)

	ch := make(chan *RawRecord, m.channelCap)

	var producers errgroup.Group
	producers.Go(func() error {
		return m.produceHistory(sub.ctx, sub.wallet, ch)
	})
	producers.Go(func() error {
		err := m.stream.Stream(sub.ctx, sub.wallet, ch)
		if errors.Is(err, domain.ErrReconnectExhausted) {
			m.remove(sub)
		}
		return err
	})

	go func() {
		if err := producers.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Warn("producer exited", "wallet", sub.wallet, "error", err)
		}
		close(ch)
	}()

	m.process(sub, ch)
}

// produceHistory backfills the wallet's recent history into the channel.
func (m *Manager) produceHistory(ctx context.Context, wallet string, ch chan<- *RawRecord) error {
	if m.history == nil || m.historyMax == 0 {
		return nil
	}
	txs, err := m.history.FetchHistory(ctx, wallet, m.historyMax)
	if err != nil {
		return fmt.Errorf("indexer: history %s: %w", wallet, err)
	}
	for i := range txs {
		rec := FromHelius(&txs[i], wallet)
		if rec == nil {
			continue
		}
		select {
		case ch <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.logger.Info("history backfill complete", "wallet", wallet, "records", len(txs))
	return nil
}

// process drains the channel until every producer is done, normalising and
// persisting as it goes. It keeps running through store errors; at-least-once
// delivery means a record lost here will not come back.
func (m *Manager) process(sub *subscription, ch <-chan *RawRecord) {
	var sinceRecompute int

	for rec := range ch {
		tx, ok := Parse(rec, sub.wallet)
		if !ok {
			continue
		}
		if err := m.writer.Insert(sub.ctx, tx); err != nil {
			continue
		}
		sub.txCount.Add(1)
		sinceRecompute++

		if sinceRecompute >= summaryRecomputeEvery {
			sinceRecompute = 0
			m.recompute(sub.ctx, sub.wallet)
		}
	}

	if sub.txCount.Load() > 0 {
		m.recompute(context.Background(), sub.wallet)
	}
}

func (m *Manager) recompute(ctx context.Context, wallet string) {
	if err := m.writer.RecomputeSummary(ctx, wallet); err != nil {
		m.logger.Warn("summary recompute failed", "wallet", wallet, "error", err)
	}
}

// remove drops a subscription whose stream died for good. A Stop racing this
// call wins; remove only deletes its own entry.
func (m *Manager) remove(sub *subscription) {
	m.mu.Lock()
	if current, ok := m.subs[sub.wallet]; ok && current == sub {
		delete(m.subs, sub.wallet)
	}
	m.mu.Unlock()
	sub.cancel()
	m.logger.Warn("subscription removed, reconnect budget exhausted", "wallet", sub.wallet)
}

// IndexSnapshot performs a one-shot fill: it collects live records for up to
// 15 seconds (or 1000 records), bulk-inserts the normalised result, and
// recomputes the wallet summary. It does not register a subscription.
func (m *Manager) IndexSnapshot(ctx context.Context, wallet string) (int, error) {
	if !domain.ValidWalletAddress(wallet) {
		return 0, fmt.Errorf("indexer: snapshot %s: %w: not a valid wallet address", wallet, domain.ErrInvalidInput)
	}

	snapCtx, cancel := context.WithTimeout(ctx, snapshotBudget)
	defer cancel()

	ch := make(chan *RawRecord, m.channelCap)
	streamErr := make(chan error, 1)
	go func() {
		streamErr <- m.stream.Stream(snapCtx, wallet, ch)
	}()

	var records []*RawRecord
collect:
	for len(records) < snapshotMaxRecords {
		select {
		case rec := <-ch:
			records = append(records, rec)
		case <-snapCtx.Done():
			break collect
		case err := <-streamErr:
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				return 0, err
			}
			break collect
		}
	}
	cancel()

	// The stream may have buffered records the loop never got to.
drain:
	for len(records) < snapshotMaxRecords {
		select {
		case rec := <-ch:
			records = append(records, rec)
		default:
			break drain
		}
	}

	txs := make([]domain.ParsedTransaction, 0, len(records))
	for _, rec := range records {
		if tx, ok := Parse(rec, wallet); ok {
			txs = append(txs, *tx)
		}
	}

	if len(txs) > 0 {
		if err := m.writer.InsertBatch(ctx, txs); err != nil {
			return 0, err
		}
		if err := m.writer.RecomputeSummary(ctx, wallet); err != nil {
			return len(txs), err
		}
	}
	return len(txs), nil
}
