package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all sentiment routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sentiment", func(r chi.Router) {
		r.Get("/{symbol}", h.HandleAnalyze)
	})
}
