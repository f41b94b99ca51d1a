package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/opportunities/{symbol}", h.HandleOpportunities)
		r.Get("/allocations", h.HandleAllocations)
		r.Get("/stocks/{symbol}", h.HandleStocks)
		r.Get("/sentiment/{symbol}", h.HandleSentiment)
	})
}
