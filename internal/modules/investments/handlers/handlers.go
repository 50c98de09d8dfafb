// Package handlers provides HTTP handlers for investment master records.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/portfoliodb/portfoliodb/internal/modules/investments"
	"github.com/portfoliodb/portfoliodb/internal/utils"
	"github.com/rs/zerolog"
)

// Handler handles investment HTTP requests
type Handler struct {
	repo *investments.Repository
	log  zerolog.Logger
}

// NewHandler creates a new investments handler
func NewHandler(repo *investments.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "investments").Logger(),
	}
}

// HandleGetInvestments handles GET /api/investments
func (h *Handler) HandleGetInvestments(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.FindAllInvestments(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get investments")
		h.writeError(w, err)
		return
	}
	if all == nil {
		all = []domain.Investment{}
	}
	h.writeJSON(w, http.StatusOK, all)
}

// HandleGetInvestment handles GET /api/investments/{id}
func (h *Handler) HandleGetInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	inv, err := h.repo.FindInvestmentByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if inv == nil {
		h.writeError(w, fmt.Errorf("%w: investment %d", domain.ErrNotFound, id))
		return
	}
	h.writeJSON(w, http.StatusOK, inv)
}

// HandleCreateInvestment handles POST /api/investments
func (h *Handler) HandleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req domain.Investment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err))
		return
	}
	req.ID = 0

	created, err := h.repo.CreateInvestment(r.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create investment")
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

// HandleUpdateInvestment handles PUT /api/investments/{id}
func (h *Handler) HandleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req domain.Investment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err))
		return
	}
	req.ID = id

	if err := h.repo.UpdateInvestment(r.Context(), req); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, req)
}

// HandleDeleteInvestment handles DELETE /api/investments/{id}
func (h *Handler) HandleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.repo.DeleteInvestment(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid investment id %q", domain.ErrInvalidInput, raw)
	}
	return id, nil
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
