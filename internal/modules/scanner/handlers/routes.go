package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all scanner routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/scan", func(r chi.Router) {
		r.Get("/", h.HandleScan)
		r.Get("/{symbol}", h.HandleScanSymbol)
	})
}
