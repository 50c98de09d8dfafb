// Package handlers provides HTTP handlers for stored investment prices.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/portfoliodb/portfoliodb/internal/modules/prices"
	"github.com/portfoliodb/portfoliodb/internal/utils"
	"github.com/rs/zerolog"
)

// Handler handles investment price HTTP requests
type Handler struct {
	store *prices.Store
	log   zerolog.Logger
}

// NewHandler creates a new investment price handler
func NewHandler(store *prices.Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "prices").Logger(),
	}
}

// PricePayload is the wire form of an investment price
type PricePayload struct {
	Date         string  `json:"date"`
	InvestmentID int64   `json:"investment_id"`
	Price        float64 `json:"price"`
	Source       string  `json:"source"`
}

// ToPayload renders a stored price with a YYYY-MM-DD date
func ToPayload(p domain.InvestmentPrice) PricePayload {
	return PricePayload{
		Date:         domain.FormatDay(p.Date),
		InvestmentID: p.InvestmentID,
		Price:        p.Price,
		Source:       p.Source,
	}
}

// HandleGetPrices handles GET /api/investment-prices
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var investmentID *int64
	if raw := q.Get("investment_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(w, fmt.Errorf("%w: invalid investment_id %q", domain.ErrInvalidInput, raw))
			return
		}
		investmentID = &id
	}

	start, end, err := ParseDateRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	quotes, err := h.store.FindQuotes(r.Context(), investmentID, start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get investment prices")
		h.writeError(w, err)
		return
	}

	payload := make([]PricePayload, 0, len(quotes))
	for _, p := range quotes {
		payload = append(payload, ToPayload(p))
	}
	h.writeJSON(w, http.StatusOK, payload)
}

// HandleCreatePrice handles POST /api/investment-prices
func (h *Handler) HandleCreatePrice(w http.ResponseWriter, r *http.Request) {
	var req PricePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err))
		return
	}

	date, err := domain.ParseDay(req.Date)
	if err != nil {
		h.writeError(w, err)
		return
	}

	stored, err := h.store.CreatePrice(r.Context(), domain.InvestmentPrice{
		Date:         date,
		InvestmentID: req.InvestmentID,
		Price:        req.Price,
		Source:       req.Source,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, ToPayload(stored))
}

// ParseDateRange parses optional YYYY-MM-DD bounds. Empty strings yield nil.
func ParseDateRange(startRaw, endRaw string) (start, end *time.Time, err error) {
	if startRaw != "" {
		d, err := domain.ParseDay(startRaw)
		if err != nil {
			return nil, nil, err
		}
		start = &d
	}
	if endRaw != "" {
		d, err := domain.ParseDay(endRaw)
		if err != nil {
			return nil, nil, err
		}
		end = &d
	}
	return start, end, nil
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
