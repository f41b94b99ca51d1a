// Package handlers provides HTTP handlers for opportunity scanning.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wheelhouse-labs/wheelhouse/internal/modules/pricing"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
)

// Handler handles scanner HTTP requests
type Handler struct {
	service        *scanner.Service
	defaultSymbols []string
	log            zerolog.Logger
}

// NewHandler creates a new scanner handler. defaultSymbols is the watchlist
// used when a request does not name its own symbols.
func NewHandler(service *scanner.Service, defaultSymbols []string, log zerolog.Logger) *Handler {
	return &Handler{
		service:        service,
		defaultSymbols: defaultSymbols,
		log:            log.With().Str("handler", "scanner").Logger(),
	}
}

// HandleScan handles GET /api/scan?symbols=AAPL,MSFT&side=put
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	symbols := parseSymbols(r.URL.Query().Get("symbols"), h.defaultSymbols)
	if len(symbols) == 0 {
		h.writeError(w, http.StatusBadRequest, "no symbols requested")
		return
	}

	side, err := parseSide(r.URL.Query().Get("side"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	perSymbol := h.service.ScanSymbols(r.Context(), symbols, side)
	merged := scanner.Merge(perSymbol)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"opportunities": merged,
			"count":         len(merged),
			"by_symbol":     perSymbol,
		},
		"metadata": map[string]interface{}{
			"symbols":   symbols,
			"side":      string(side),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleScanSymbol handles GET /api/scan/{symbol}
func (h *Handler) HandleScanSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		h.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	side, err := parseSide(r.URL.Query().Get("side"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opportunities := h.service.ScanSymbol(r.Context(), symbol, side)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"opportunities": opportunities,
			"count":         len(opportunities),
		},
		"metadata": map[string]interface{}{
			"symbol":    symbol,
			"side":      string(side),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// parseSymbols splits a comma-separated symbol list, falling back to the
// default watchlist when the parameter is absent.
func parseSymbols(raw string, fallback []string) []string {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		symbol := strings.ToUpper(strings.TrimSpace(part))
		if symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	return symbols
}

// parseSide maps the side query parameter to an option side, defaulting to
// cash-secured puts.
func parseSide(raw string) (pricing.OptionSide, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "put", "puts":
		return pricing.Put, nil
	case "call", "calls":
		return pricing.Call, nil
	default:
		return "", errInvalidSide
	}
}

var errInvalidSide = errors.New("side must be put or call")

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
