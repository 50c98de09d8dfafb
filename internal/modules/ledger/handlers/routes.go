package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/movements", func(r chi.Router) {
		r.Get("/", h.HandleGetMovements)
		r.Post("/", h.HandleCreateMovement)
		r.Get("/{id}", h.HandleGetMovement)
		r.Put("/{id}", h.HandleUpdateMovement)
		r.Delete("/{id}", h.HandleDeleteMovement)
	})

	r.Get("/action-types", h.HandleGetActionTypes)
}
