package helius

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/solderlabs/cortex/internal/domain"
)

func page(sigs ...string) []EnhancedTransaction {
	out := make([]EnhancedTransaction, len(sigs))
	for i, s := range sigs {
		out[i] = EnhancedTransaction{Signature: s, Type: "SWAP"}
	}
	return out
}

func newTestClient(srv *httptest.Server) *Client {
	c := New(srv.URL, "test-key")
	c.pageDelay = time.Millisecond
	return c
}

func TestFetchHistoryPagesUntilEmpty(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var cursors []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		before := r.URL.Query().Get("before")
		mu.Lock()
		cursors = append(cursors, before)
		mu.Unlock()

		var resp []EnhancedTransaction
		switch before {
		case "":
			resp = page("a", "b", "c")
		case "c":
			resp = nil
		default:
			t.Errorf("unexpected cursor %q", before)
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	txs, err := newTestClient(srv).FetchHistory(context.Background(), "W", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}

	mu.Lock()
	defer mu.Unlock()
	if len(cursors) != 2 || cursors[0] != "" || cursors[1] != "c" {
		t.Errorf("cursors = %v, want [\"\" c]", cursors)
	}
}

func TestFetchHistoryTruncatesAtMax(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	requests := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		json.NewEncoder(w).Encode(page("a", "b", "c"))
	}))
	defer srv.Close()

	txs, err := newTestClient(srv).FetchHistory(context.Background(), "W", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want max 2", len(txs))
	}

	mu.Lock()
	defer mu.Unlock()
	if requests != 1 {
		t.Errorf("requests = %d, want 1 (max reached mid-page)", requests)
	}
}

func TestFetchHistoryDropsSignaturelessRecords(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			json.NewEncoder(w).Encode([]EnhancedTransaction{})
			return
		}
		json.NewEncoder(w).Encode([]EnhancedTransaction{
			{Signature: "a", Type: "SWAP"},
			{Type: "SWAP"},
		})
	}))
	defer srv.Close()

	txs, err := newTestClient(srv).FetchHistory(context.Background(), "W", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 1 || txs[0].Signature != "a" {
		t.Errorf("got %d records, want only the signed one", len(txs))
	}
}

func TestFetchHistoryServerErrorIsTransport(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchHistory(context.Background(), "W", 10)
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("5xx err = %v, want ErrTransport", err)
	}
}

func TestFetchHistoryClientErrorIsFatal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchHistory(context.Background(), "W", 10)
	if err == nil {
		t.Fatal("expected error for 4xx response")
	}
	if errors.Is(err, domain.ErrTransport) {
		t.Errorf("4xx must not be classified as transport: %v", err)
	}
}

func TestFetchHistorySendsAPIKeyAndLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("api-key"); got != "test-key" {
			t.Errorf("api-key = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "100" {
			t.Errorf("limit = %q, want 100", got)
		}
		json.NewEncoder(w).Encode([]EnhancedTransaction{})
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).FetchHistory(context.Background(), "W", 10); err != nil {
		t.Fatal(err)
	}
}
