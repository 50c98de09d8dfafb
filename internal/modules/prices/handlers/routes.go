package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers investment price routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/investment-prices", func(r chi.Router) {
		r.Get("/", h.HandleGetPrices)
		r.Post("/", h.HandleCreatePrice)
	})
}
