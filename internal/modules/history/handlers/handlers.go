// Package handlers provides HTTP handlers for snapshot history.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/history"
)

const defaultLimit = 20

// Handler handles history HTTP requests
type Handler struct {
	repo *history.Repository
	log  zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(repo *history.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "history").Logger(),
	}
}

// HandleOpportunities handles GET /api/history/opportunities/{symbol}
func (h *Handler) HandleOpportunities(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	records, err := h.repo.RecentOpportunities(symbol, limitParam(r))
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch opportunity history")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"opportunities": records,
			"count":         len(records),
		},
	})
}

// HandleAllocations handles GET /api/history/allocations
func (h *Handler) HandleAllocations(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.RecentAllocations(limitParam(r))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch allocation history")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"allocations": records,
			"count":       len(records),
		},
	})
}

// HandleStocks handles GET /api/history/stocks/{symbol}
func (h *Handler) HandleStocks(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	records, err := h.repo.RecentStockSnapshots(symbol, limitParam(r))
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch stock history")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"snapshots": records,
			"count":     len(records),
		},
	})
}

// HandleSentiment handles GET /api/history/sentiment/{symbol}
func (h *Handler) HandleSentiment(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	records, err := h.repo.RecentSentiment(symbol, limitParam(r))
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch sentiment history")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"sentiment": records,
			"count":     len(records),
		},
	})
}

// limitParam reads the limit query parameter, falling back to the default.
func limitParam(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	return limit
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
