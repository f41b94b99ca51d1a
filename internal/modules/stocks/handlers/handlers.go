// Package handlers provides HTTP handlers for stock snapshots.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/stocks"
)

// Handler handles stocks HTTP requests
type Handler struct {
	service        *stocks.Service
	defaultSymbols []string
	log            zerolog.Logger
}

// NewHandler creates a new stocks handler
func NewHandler(service *stocks.Service, defaultSymbols []string, log zerolog.Logger) *Handler {
	return &Handler{
		service:        service,
		defaultSymbols: defaultSymbols,
		log:            log.With().Str("handler", "stocks").Logger(),
	}
}

// HandleList handles GET /api/stocks?symbols=AAPL,MSFT
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	symbols := h.defaultSymbols
	if raw := strings.TrimSpace(r.URL.Query().Get("symbols")); raw != "" {
		symbols = nil
		for _, part := range strings.Split(raw, ",") {
			if symbol := strings.ToUpper(strings.TrimSpace(part)); symbol != "" {
				symbols = append(symbols, symbol)
			}
		}
	}
	if len(symbols) == 0 {
		h.writeError(w, http.StatusBadRequest, "no symbols requested")
		return
	}

	snapshots := h.service.Snapshots(r.Context(), symbols)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"stocks": snapshots,
			"count":  len(snapshots),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGet handles GET /api/stocks/{symbol}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		h.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	snapshot, err := h.service.Snapshot(r.Context(), symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to build snapshot")
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": snapshot,
	})
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
