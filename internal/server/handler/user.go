package handler

import (
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/solderlabs/cortex/internal/domain"
	"github.com/solderlabs/cortex/internal/service"
)

// UserHandler serves the per-wallet analytics endpoints.
type UserHandler struct {
	wallets     *service.WalletService
	convictions *service.ConvictionService
	logger      *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(wallets *service.WalletService, convictions *service.ConvictionService, logger *slog.Logger) *UserHandler {
	return &UserHandler{wallets: wallets, convictions: convictions, logger: logger}
}

// Summary returns the wallet rollup. Unknown wallets yield a zero-valued
// summary, never a 404.
// GET /api/v1/user/{wallet}/summary
func (h *UserHandler) Summary(w http.ResponseWriter, r *http.Request) {
	wallet := pathParam(r, "wallet")

	summary, err := h.wallets.Summary(r.Context(), wallet)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Pnl returns by-protocol PnL for a window (24h, 7d, 30d, all; default all).
// GET /api/v1/user/{wallet}/pnl?window=7d
func (h *UserHandler) Pnl(w http.ResponseWriter, r *http.Request) {
	wallet := pathParam(r, "wallet")

	window := domain.WindowAll
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, ok := domain.ParseTimeWindow(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid window: want 24h, 7d, 30d or all")
			return
		}
		window = parsed
	}

	pnl, err := h.wallets.Pnl(r.Context(), wallet, window)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"wallet": wallet,
		"window": window,
		"pnl":    pnl,
	})
}

// Positions returns the wallet's open positions.
// GET /api/v1/user/{wallet}/positions
func (h *UserHandler) Positions(w http.ResponseWriter, r *http.Request) {
	wallet := pathParam(r, "wallet")

	positions, err := h.wallets.Positions(r.Context(), wallet)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"wallet":    wallet,
		"positions": positions,
	})
}

// Conviction correlates the wallet's on-chain activity with its
// prediction-market bets. Both Solana and EVM address forms are accepted;
// the Polymarket side only resolves for the latter.
// GET /api/v1/user/{wallet}/conviction
func (h *UserHandler) Conviction(w http.ResponseWriter, r *http.Request) {
	wallet := pathParam(r, "wallet")
	if !domain.ValidWalletAddress(wallet) && !common.IsHexAddress(wallet) {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	conviction, err := h.convictions.Conviction(r.Context(), wallet)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conviction)
}
