// Package handlers provides HTTP handlers for ledger operations.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/portfoliodb/portfoliodb/internal/modules/ledger"
	"github.com/portfoliodb/portfoliodb/internal/utils"
	"github.com/rs/zerolog"
)

// Handler handles ledger HTTP requests
type Handler struct {
	repo *ledger.MovementRepository
	log  zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(repo *ledger.MovementRepository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "ledger").Logger(),
	}
}

// movementPayload is the wire form of a movement; dates are YYYY-MM-DD
type movementPayload struct {
	ID           int64    `json:"id,omitempty"`
	Date         *string  `json:"date"`
	ActionID     *int64   `json:"action_id"`
	InvestmentID *int64   `json:"investment_id"`
	Quantity     *float64 `json:"quantity"`
	Amount       *float64 `json:"amount"`
	Fee          *float64 `json:"fee"`
}

func toPayload(m domain.Movement) movementPayload {
	p := movementPayload{
		ID:           m.ID,
		ActionID:     m.ActionID,
		InvestmentID: m.InvestmentID,
		Quantity:     m.Quantity,
		Amount:       m.Amount,
		Fee:          m.Fee,
	}
	if m.Date != nil {
		s := domain.FormatDay(*m.Date)
		p.Date = &s
	}
	return p
}

func (p movementPayload) toMovement() (domain.Movement, error) {
	m := domain.Movement{
		ID:           p.ID,
		ActionID:     p.ActionID,
		InvestmentID: p.InvestmentID,
		Quantity:     p.Quantity,
		Amount:       p.Amount,
		Fee:          p.Fee,
	}
	if p.Date != nil && *p.Date != "" {
		d, err := domain.ParseDay(*p.Date)
		if err != nil {
			return m, err
		}
		m.Date = &d
	}
	return m, nil
}

// HandleGetMovements handles GET /api/movements
func (h *Handler) HandleGetMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.repo.FindAllMovements(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get movements")
		h.writeError(w, err)
		return
	}

	payload := make([]movementPayload, 0, len(movements))
	for _, m := range movements {
		payload = append(payload, toPayload(m))
	}
	h.writeJSON(w, http.StatusOK, payload)
}

// HandleGetMovement handles GET /api/movements/{id}
func (h *Handler) HandleGetMovement(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	m, err := h.repo.FindMovementByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if m == nil {
		h.writeError(w, fmt.Errorf("%w: movement %d", domain.ErrNotFound, id))
		return
	}
	h.writeJSON(w, http.StatusOK, toPayload(*m))
}

// HandleCreateMovement handles POST /api/movements
func (h *Handler) HandleCreateMovement(w http.ResponseWriter, r *http.Request) {
	var req movementPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err))
		return
	}

	m, err := req.toMovement()
	if err != nil {
		h.writeError(w, err)
		return
	}

	created, err := h.repo.CreateMovement(r.Context(), m)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create movement")
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toPayload(*created))
}

// HandleUpdateMovement handles PUT /api/movements/{id}
func (h *Handler) HandleUpdateMovement(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req movementPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err))
		return
	}
	req.ID = id

	m, err := req.toMovement()
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.repo.UpdateMovement(r.Context(), m); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPayload(m))
}

// HandleDeleteMovement handles DELETE /api/movements/{id}
func (h *Handler) HandleDeleteMovement(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.repo.DeleteMovement(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetActionTypes handles GET /api/action-types
func (h *Handler) HandleGetActionTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.repo.FindAllActionTypes(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, types)
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid movement id %q", domain.ErrInvalidInput, raw)
	}
	return id, nil
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response with the status matching the error kind
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, utils.StatusFromError(err), map[string]string{
		"error": err.Error(),
	})
}
