// Package handlers provides HTTP handlers for computed developments.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/portfoliodb/portfoliodb/internal/modules/developments"
	priceshandlers "github.com/portfoliodb/portfoliodb/internal/modules/prices/handlers"
	"github.com/portfoliodb/portfoliodb/internal/utils"
	"github.com/rs/zerolog"
)

// Handler handles development HTTP requests
type Handler struct {
	calculator *developments.Calculator
	log        zerolog.Logger
}

// NewHandler creates a new developments handler
func NewHandler(calculator *developments.Calculator, log zerolog.Logger) *Handler {
	return &Handler{
		calculator: calculator,
		log:        log.With().Str("handler", "developments").Logger(),
	}
}

// DevelopmentPayload is the wire form of a development
type DevelopmentPayload struct {
	Investment int64   `json:"investment"`
	Date       string  `json:"date"`
	Price      float64 `json:"price"`
	Quantity   float64 `json:"quantity"`
	Value      float64 `json:"value"`
}

// RegisterRoutes registers development routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/developments", h.HandleGetDevelopments)
}

// HandleGetDevelopments handles GET /api/developments
func (h *Handler) HandleGetDevelopments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, err := priceshandlers.ParseDateRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	devs, err := h.calculator.CalculateDevelopments(r.Context(), start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to calculate developments")
		h.writeError(w, err)
		return
	}

	payload := make([]DevelopmentPayload, 0, len(devs))
	for _, d := range devs {
		payload = append(payload, DevelopmentPayload{
			Investment: d.InvestmentID,
			Date:       domain.FormatDay(d.Date),
			Price:      d.Price,
			Quantity:   d.Quantity,
			Value:      d.Value,
		})
	}
	h.writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, utils.StatusFromError(err), map[string]string{
		"error": err.Error(),
	})
}
