package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all investment routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/investments", func(r chi.Router) {
		r.Get("/", h.HandleGetInvestments)
		r.Post("/", h.HandleCreateInvestment)
		r.Get("/{id}", h.HandleGetInvestment)
		r.Put("/{id}", h.HandleUpdateInvestment)
		r.Delete("/{id}", h.HandleDeleteInvestment)
	})
}
