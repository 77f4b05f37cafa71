package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/solderlabs/cortex/internal/indexer"
)

// IndexHandler serves the subscription lifecycle endpoints.
type IndexHandler struct {
	manager *indexer.Manager
	logger  *slog.Logger
}

// NewIndexHandler creates an IndexHandler.
func NewIndexHandler(manager *indexer.Manager, logger *slog.Logger) *IndexHandler {
	return &IndexHandler{manager: manager, logger: logger}
}

// List returns a snapshot of every active subscription.
// GET /api/v1/index
func (h *IndexHandler) List(w http.ResponseWriter, r *http.Request) {
	subs := h.manager.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":         len(subs),
		"subscriptions": subs,
	})
}

// Start begins continuous ingestion for a wallet.
// POST /api/v1/index with body {"wallet": "..."}
func (h *IndexHandler) Start(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Wallet string `json:"wallet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Wallet == "" {
		writeError(w, http.StatusBadRequest, "body must be JSON with a wallet field")
		return
	}

	result, err := h.manager.Start(r.Context(), body.Wallet)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"wallet": body.Wallet,
		"status": string(result),
	})
}

// Stop ends ingestion for a wallet. Stopping an untracked wallet reports
// not_running rather than an error.
// DELETE /api/v1/index/{wallet}
func (h *IndexHandler) Stop(w http.ResponseWriter, r *http.Request) {
	wallet := pathParam(r, "wallet")

	result, err := h.manager.Stop(r.Context(), wallet)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"wallet": wallet,
		"status": string(result),
	})
}
