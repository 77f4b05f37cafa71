package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/solderlabs/cortex/internal/conviction"
)

// defaultMinConviction filters bettors when the caller does not set a
// threshold.
const defaultMinConviction = 0.5

// MarketHandler serves the market-level analysis endpoints.
type MarketHandler struct {
	detector *conviction.Detector
	logger   *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(detector *conviction.Detector, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{detector: detector, logger: logger}
}

// Informed scans a market's bettors for wallets whose on-chain activity
// backs their bet.
// POST /api/v1/markets/{slug}/informed with optional body
// {"platform": "...", "min_conviction": 0.5}
func (h *MarketHandler) Informed(w http.ResponseWriter, r *http.Request) {
	slug := pathParam(r, "slug")

	body := struct {
		Platform      string   `json:"platform"`
		MinConviction *float64 `json:"min_conviction"`
	}{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed JSON body")
			return
		}
	}
	if body.Platform == "" {
		body.Platform = "polymarket"
	}
	minConviction := defaultMinConviction
	if body.MinConviction != nil {
		minConviction = *body.MinConviction
	}

	analysis, err := h.detector.Detect(r.Context(), slug, body.Platform, minConviction)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}
