// Package handlers provides HTTP handlers for quote synchronization.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/portfoliodb/portfoliodb/internal/modules/quotes"
	"github.com/portfoliodb/portfoliodb/internal/utils"
	"github.com/rs/zerolog"
)

// Handler handles quote HTTP requests
type Handler struct {
	fetcher     *quotes.Fetcher
	investments domain.InvestmentReader
	store       domain.QuoteReader
	log         zerolog.Logger
}

// NewHandler creates a new quotes handler
func NewHandler(fetcher *quotes.Fetcher, investments domain.InvestmentReader, store domain.QuoteReader, log zerolog.Logger) *Handler {
	return &Handler{
		fetcher:     fetcher,
		investments: investments,
		store:       store,
		log:         log.With().Str("handler", "quotes").Logger(),
	}
}

// FetchQuotesRequest is the optional body of POST /api/quotes/fetch
type FetchQuotesRequest struct {
	InvestmentIDs []int64 `json:"investment_ids"`
}

// FetchQuotesResponse reports a batch sync
type FetchQuotesResponse struct {
	RunID   string                    `json:"run_id"`
	Results []quotes.QuoteFetchResult `json:"results"`
	quotes.Summary
}

// FetchInvestmentResponse reports the sync of one investment
type FetchInvestmentResponse struct {
	InvestmentID  int64   `json:"investment_id"`
	Success       bool    `json:"success"`
	Error         *string `json:"error"`
	QuotesFetched int     `json:"quotes_fetched"`
	Provider      *string `json:"provider"`
}

// QuoteInfo is one stored quote of an investment
type QuoteInfo struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Source string  `json:"source"`
}

// InvestmentQuotesResponse lists the stored quotes of an investment
type InvestmentQuotesResponse struct {
	InvestmentID int64       `json:"investment_id"`
	Quotes       []QuoteInfo `json:"quotes"`
}

// RegisterRoutes registers quote routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/quotes", func(r chi.Router) {
		r.Get("/providers", h.HandleListProviders)
		r.Post("/fetch", h.HandleFetchQuotes)
		r.Post("/{investmentID}/fetch", h.HandleFetchInvestment)
		r.Get("/{investmentID}", h.HandleGetQuotes)
	})
}

// HandleListProviders handles GET /api/quotes/providers
func (h *Handler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.fetcher.AvailableProviders())
}

// HandleFetchQuotes handles POST /api/quotes/fetch
func (h *Handler) HandleFetchQuotes(w http.ResponseWriter, r *http.Request) {
	var req FetchQuotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err))
		return
	}

	runID := uuid.NewString()
	ctx := quotes.WithRunID(r.Context(), runID)

	results, err := h.fetcher.FetchQuotes(ctx, req.InvestmentIDs)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Quote fetch failed")
		if results == nil {
			h.writeError(w, err)
			return
		}
	}

	h.writeJSON(w, http.StatusOK, FetchQuotesResponse{
		RunID:   runID,
		Results: results,
		Summary: quotes.Summarize(results),
	})
}

// HandleFetchInvestment handles POST /api/quotes/{investmentID}/fetch.
// An optional date query parameter fetches a single day instead of the
// full history.
func (h *Handler) HandleFetchInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := parseInvestmentID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	inv, err := h.investments.FindInvestmentByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if inv == nil {
		h.writeError(w, fmt.Errorf("%w: investment %d", domain.ErrNotFound, id))
		return
	}

	var result quotes.QuoteFetchResult
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := domain.ParseDay(raw)
		if err != nil {
			h.writeError(w, err)
			return
		}
		result, err = h.fetcher.FetchQuoteOnDate(r.Context(), *inv, date)
		if err != nil {
			h.writeError(w, err)
			return
		}
	} else {
		result, err = h.fetcher.FetchQuotesForInvestment(r.Context(), *inv)
		if err != nil {
			h.writeError(w, err)
			return
		}
	}

	resp := FetchInvestmentResponse{
		InvestmentID:  result.InvestmentID,
		Success:       result.Success,
		Error:         result.Error,
		QuotesFetched: result.QuotesStored,
	}
	if inv.QuoteProvider != nil && *inv.QuoteProvider != "" {
		resp.Provider = inv.QuoteProvider
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleGetQuotes handles GET /api/quotes/{investmentID}
func (h *Handler) HandleGetQuotes(w http.ResponseWriter, r *http.Request) {
	id, err := parseInvestmentID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	stored, err := h.store.FindQuotes(r.Context(), &id, nil, nil)
	if err != nil {
		h.log.Error().Err(err).Int64("investment_id", id).Msg("Failed to get quotes")
		h.writeError(w, err)
		return
	}

	resp := InvestmentQuotesResponse{InvestmentID: id, Quotes: make([]QuoteInfo, 0, len(stored))}
	for _, q := range stored {
		resp.Quotes = append(resp.Quotes, QuoteInfo{
			Date:   domain.FormatDay(q.Date),
			Price:  q.Price,
			Source: q.Source,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func parseInvestmentID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "investmentID")
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
