// Package handlers provides HTTP handlers for portfolio optimization.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service        *portfolio.Service
	defaultSymbols []string
	maxSymbols     int
	log            zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, defaultSymbols []string, maxSymbols int, log zerolog.Logger) *Handler {
	return &Handler{
		service:        service,
		defaultSymbols: defaultSymbols,
		maxSymbols:     maxSymbols,
		log:            log.With().Str("handler", "portfolio").Logger(),
	}
}

type optimizeRequest struct {
	Symbols []string `json:"symbols"`
}

// HandleOptimize handles POST /api/portfolio/optimize
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	symbols := normalizeSymbols(req.Symbols)
	if len(symbols) == 0 {
		symbols = h.defaultSymbols
	}
	if len(symbols) == 0 {
		h.writeError(w, http.StatusBadRequest, "no symbols requested")
		return
	}
	if len(symbols) > h.maxSymbols {
		h.writeError(w, http.StatusBadRequest, "too many symbols for combination search")
		return
	}

	allocations := h.service.OptimizePortfolio(r.Context(), symbols)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"allocations": allocations,
			"count":       len(allocations),
		},
		"metadata": map[string]interface{}{
			"symbols":   symbols,
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// normalizeSymbols trims, uppercases, and drops empty entries.
func normalizeSymbols(raw []string) []string {
	symbols := make([]string, 0, len(raw))
	for _, entry := range raw {
		symbol := strings.ToUpper(strings.TrimSpace(entry))
		if symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	return symbols
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
