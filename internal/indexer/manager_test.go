package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/solderlabs/cortex/internal/domain"
	"github.com/solderlabs/cortex/internal/platform/helius"
)

// fakeTxStore is an in-memory TransactionStore.
type fakeTxStore struct {
	mu  sync.Mutex
	txs []domain.ParsedTransaction
}

func (s *fakeTxStore) Insert(_ context.Context, tx domain.ParsedTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, tx)
	return nil
}

func (s *fakeTxStore) InsertBatch(ctx context.Context, txs []domain.ParsedTransaction) error {
	for _, tx := range txs {
		if err := s.Insert(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeTxStore) ListByWallet(_ context.Context, wallet string, limit int) ([]domain.ParsedTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ParsedTransaction
	for _, tx := range s.txs {
		if tx.Wallet == wallet {
			out = append(out, tx)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *fakeTxStore) PnlByProtocol(context.Context, string, domain.TimeWindow) ([]domain.ProtocolPnl, error) {
	return nil, nil
}

func (s *fakeTxStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

// fakeSummaryStore records upserts.
type fakeSummaryStore struct {
	mu        sync.Mutex
	summaries map[string]domain.WalletSummary
}

func (s *fakeSummaryStore) Upsert(_ context.Context, sum domain.WalletSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summaries == nil {
		s.summaries = make(map[string]domain.WalletSummary)
	}
	s.summaries[sum.Wallet] = sum
	return nil
}

func (s *fakeSummaryStore) Get(_ context.Context, wallet string) (domain.WalletSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.summaries[wallet]
	if !ok {
		return domain.WalletSummary{}, domain.ErrNotFound
	}
	return sum, nil
}

// fakeStream emits a fixed set of records, then blocks until cancelled. A
// non-nil err is returned immediately instead.
type fakeStream struct {
	records []*RawRecord
	err     error
}

func (f *fakeStream) Stream(ctx context.Context, _ string, out chan<- *RawRecord) error {
	if f.err != nil {
		return f.err
	}
	for _, rec := range f.records {
		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

// countingStream emits its records, tracking how many the channel accepted,
// then blocks until cancelled.
type countingStream struct {
	records []*RawRecord
	sent    atomic.Int32
}

func (f *countingStream) Stream(ctx context.Context, _ string, out chan<- *RawRecord) error {
	for _, rec := range f.records {
		select {
		case out <- rec:
			f.sent.Add(1)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

// gatedStore blocks every Insert until the gate is closed.
type gatedStore struct {
	fakeTxStore
	gate chan struct{}
}

func (s *gatedStore) Insert(ctx context.Context, tx domain.ParsedTransaction) error {
	select {
	case <-s.gate:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.fakeTxStore.Insert(ctx, tx)
}

// finiteStream emits its records and returns, as a stream whose provider
// closed cleanly.
type finiteStream struct {
	records []*RawRecord
}

func (f *finiteStream) Stream(ctx context.Context, _ string, out chan<- *RawRecord) error {
	for _, rec := range f.records {
		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// fakeHistory returns a fixed page of enhanced transactions.
type fakeHistory struct {
	txs []helius.EnhancedTransaction
}

func (f *fakeHistory) FetchHistory(context.Context, string, int) ([]helius.EnhancedTransaction, error) {
	return f.txs, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(stream StreamClient, history HistoryClient, store *fakeTxStore) *Manager {
	writer := NewWriter(WriterConfig{
		Transactions: store,
		Summaries:    &fakeSummaryStore{},
	}, testLogger())
	return NewManager(stream, history, writer, nil, ManagerConfig{ChannelCapacity: 16, HistoryMax: 100}, testLogger())
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestManagerStartStopLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestManager(&fakeStream{}, &fakeHistory{}, &fakeTxStore{})

	result, err := m.Start(ctx, testWallet)
	if err != nil {
		t.Fatal(err)
	}
	if result != StartStarted {
		t.Fatalf("Start = %q, want started", result)
	}

	list := m.List()
	if len(list) != 1 {
		t.Fatalf("List = %d entries, want 1", len(list))
	}
	if !list[0].Running || list[0].TxCount != 0 || list[0].Wallet != testWallet {
		t.Errorf("unexpected snapshot: %+v", list[0])
	}
	if !m.IsSubscribed(testWallet) {
		t.Error("IsSubscribed should be true after Start")
	}

	stop, err := m.Stop(ctx, testWallet)
	if err != nil {
		t.Fatal(err)
	}
	if stop != StopStopped {
		t.Fatalf("Stop = %q, want stopped", stop)
	}
	if len(m.List()) != 0 {
		t.Error("List should be empty after Stop")
	}

	// A fresh Start after Stop is a new subscription, not AlreadyRunning.
	result, err = m.Start(ctx, testWallet)
	if err != nil {
		t.Fatal(err)
	}
	if result != StartStarted {
		t.Errorf("Start after Stop = %q, want started", result)
	}
	if _, err := m.Stop(ctx, testWallet); err != nil {
		t.Fatal(err)
	}
}

func TestManagerStartIdempotence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestManager(&fakeStream{}, &fakeHistory{}, &fakeTxStore{})

	if _, err := m.Start(ctx, testWallet); err != nil {
		t.Fatal(err)
	}
	result, err := m.Start(ctx, testWallet)
	if err != nil {
		t.Fatal(err)
	}
	if result != StartAlreadyRunning {
		t.Errorf("second Start = %q, want already_running", result)
	}
	if len(m.List()) != 1 {
		t.Errorf("double Start must not register a second subscription")
	}
	if _, err := m.Stop(ctx, testWallet); err != nil {
		t.Fatal(err)
	}
}

func TestManagerStopIdempotence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestManager(&fakeStream{}, &fakeHistory{}, &fakeTxStore{})

	result, err := m.Stop(ctx, testWallet)
	if err != nil {
		t.Fatal(err)
	}
	if result != StopNotRunning {
		t.Errorf("Stop of untracked wallet = %q, want not_running", result)
	}

	if _, err := m.Start(ctx, testWallet); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Stop(ctx, testWallet); err != nil {
		t.Fatal(err)
	}
	result, err = m.Stop(ctx, testWallet)
	if err != nil {
		t.Fatal(err)
	}
	if result != StopNotRunning {
		t.Errorf("double Stop = %q, want not_running", result)
	}
}

func TestManagerRejectsInvalidWallet(t *testing.T) {
	t.Parallel()
	m := newTestManager(&fakeStream{}, &fakeHistory{}, &fakeTxStore{})

	_, err := m.Start(context.Background(), "not-a-wallet")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Start invalid wallet err = %v, want ErrInvalidInput", err)
	}
}

func TestManagerProcessesLiveRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := &fakeTxStore{}
	stream := &fakeStream{records: []*RawRecord{
		raydiumSwapRecord(),
		{Signature: "drop-me", DecoderType: "unknown", EventType: "SWAP"},
	}}
	m := newTestManager(stream, &fakeHistory{}, store)

	if _, err := m.Start(ctx, testWallet); err != nil {
		t.Fatal(err)
	}
	defer m.Stop(ctx, testWallet)

	waitFor(t, func() bool { return store.count() == 1 }, "processor never persisted the parseable record")

	waitFor(t, func() bool {
		list := m.List()
		return len(list) == 1 && list[0].TxCount == 1
	}, "tx_count should reflect inserted records only")
}

func TestManagerHistoryBackfill(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := &fakeTxStore{}
	history := &fakeHistory{txs: []helius.EnhancedTransaction{
		{
			Signature: "hist1",
			Type:      "SWAP",
			Source:    "RAYDIUM",
			FeePayer:  testWallet,
			Timestamp: 1700000000,
			Events: helius.Events{Swap: &helius.SwapEvent{
				TokenInputs: []helius.SwapToken{{
					Mint:           "Ma",
					UserAccount:    testWallet,
					RawTokenAmount: helius.RawTokenAmount{TokenAmount: "1500000", Decimals: 6},
				}},
				TokenOutputs: []helius.SwapToken{{
					Mint:           "Mb",
					UserAccount:    testWallet,
					RawTokenAmount: helius.RawTokenAmount{TokenAmount: "42000000000", Decimals: 9},
				}},
			}},
		},
	}}
	m := newTestManager(&fakeStream{}, history, store)

	if _, err := m.Start(ctx, testWallet); err != nil {
		t.Fatal(err)
	}
	defer m.Stop(ctx, testWallet)

	waitFor(t, func() bool { return store.count() == 1 }, "history backfill never reached the store")

	txs, _ := store.ListByWallet(ctx, testWallet, 10)
	if txs[0].AmountIn != 1.5 || txs[0].AmountOut != 42.0 {
		t.Errorf("scaled amounts = %v/%v, want 1.5/42.0", txs[0].AmountIn, txs[0].AmountOut)
	}
}

func TestManagerBackpressureBlocksProducer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	recs := make([]*RawRecord, 3)
	for i := range recs {
		rec := raydiumSwapRecord()
		rec.Signature = fmt.Sprintf("bp%d", i)
		recs[i] = rec
	}
	stream := &countingStream{records: recs}
	store := &gatedStore{gate: make(chan struct{})}

	writer := NewWriter(WriterConfig{
		Transactions: store,
		Summaries:    &fakeSummaryStore{},
	}, testLogger())
	m := NewManager(stream, &fakeHistory{}, writer, nil,
		ManagerConfig{ChannelCapacity: 1, HistoryMax: 0}, testLogger())

	if _, err := m.Start(ctx, testWallet); err != nil {
		t.Fatal(err)
	}
	defer m.Stop(ctx, testWallet)

	// The processor holds record 1 in the stalled insert and record 2 fills
	// the one-slot buffer, so the send of record 3 must block.
	waitFor(t, func() bool { return stream.sent.Load() == 2 }, "producer never filled the channel")
	time.Sleep(50 * time.Millisecond)
	if got := stream.sent.Load(); got != 2 {
		t.Fatalf("sent = %d while the processor is stalled, want 2: a full channel must block the producer", got)
	}
	if n := store.count(); n != 0 {
		t.Fatalf("store has %d rows while stalled, want 0", n)
	}

	close(store.gate)
	waitFor(t, func() bool { return store.count() == 3 }, "records were dropped under backpressure")
	waitFor(t, func() bool { return stream.sent.Load() == 3 }, "producer never resumed after the stall cleared")
}

func TestIndexSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := &fakeTxStore{}
	stream := &finiteStream{records: []*RawRecord{
		raydiumSwapRecord(),
		{Signature: "drop-me", DecoderType: "unknown", EventType: "SWAP"},
	}}
	m := newTestManager(stream, &fakeHistory{}, store)

	n, err := m.IndexSnapshot(ctx, testWallet)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("IndexSnapshot = %d records, want 1", n)
	}
	if store.count() != 1 {
		t.Errorf("store has %d rows, want 1", store.count())
	}
	if m.IsSubscribed(testWallet) {
		t.Error("snapshot must not register a subscription")
	}
}

func TestIndexSnapshotRejectsInvalidWallet(t *testing.T) {
	t.Parallel()
	m := newTestManager(&fakeStream{}, &fakeHistory{}, &fakeTxStore{})

	if _, err := m.IndexSnapshot(context.Background(), "bogus"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("IndexSnapshot invalid wallet err = %v, want ErrInvalidInput", err)
	}
}

func TestManagerRemovesSubscriptionOnReconnectExhaustion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestManager(&fakeStream{err: domain.ErrReconnectExhausted}, &fakeHistory{}, &fakeTxStore{})

	if _, err := m.Start(ctx, testWallet); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return !m.IsSubscribed(testWallet) },
		"exhausted stream should remove the subscription")
}
