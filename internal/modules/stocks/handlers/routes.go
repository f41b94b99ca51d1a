package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all stocks routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/stocks", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{symbol}", h.HandleGet)
	})
}
