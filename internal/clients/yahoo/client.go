// Package yahoo provides a Yahoo Finance quote provider backed by the v8 chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// ProviderName is the provider identifier stored as the quote source
	ProviderName = "yahoo"

	// DefaultBaseURL is the Yahoo Finance chart endpoint
	DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Client is a Yahoo Finance API client
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client.
// requestsPerSecond <= 0 disables rate limiting.
func NewClient(timeout time.Duration, requestsPerSecond float64, log zerolog.Logger) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Client{
		baseURL: DefaultBaseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// Name returns the provider identifier
func (c *Client) Name() string {
	return ProviderName
}

// GetQuote returns the close for ticker on date, or the most recent close
// when date is nil. Returns nil, nil when no close matches.
func (c *Client) GetQuote(ctx context.Context, ticker string, date *time.Time) (*domain.QuoteData, error) {
	quotes, err := c.GetQuotes(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if date != nil {
		day := domain.Day(*date)
		for i := range quotes {
			if quotes[i].Date.Equal(day) {
				return &quotes[i], nil
			}
		}
		return nil, nil
	}

	var latest *domain.QuoteData
	for i := range quotes {
		if latest == nil || quotes[i].Date.After(latest.Date) {
			latest = &quotes[i]
		}
	}
	return latest, nil
}

// GetQuotes fetches the full daily close history for ticker
func (c *Client) GetQuotes(ctx context.Context, ticker string) ([]domain.QuoteData, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: yahoo rate limiter: %w", domain.ErrExternalAPI, err)
	}

	params := url.Values{}
	params.Add("range", "max")
	params.Add("interval", "1d")
	reqURL := strings.TrimRight(c.baseURL, "/") + "/" + url.PathEscape(ticker) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", domain.ErrExternalAPI, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch chart for %s: %w", domain.ErrExternalAPI, ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: Yahoo Finance returned status: %d", domain.ErrExternalAPI, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", domain.ErrExternalAPI, err)
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %w", domain.ErrExternalAPI, err)
	}
	if result.Chart.Error != nil {
		return nil, fmt.Errorf("%w: Yahoo Finance API error: %v", domain.ErrExternalAPI, result.Chart.Error)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: No data in Yahoo Finance response", domain.ErrExternalAPI)
	}

	quotes := parseChart(ticker, result.Chart.Result[0])

	c.log.Debug().
		Str("ticker", ticker).
		Int("count", len(quotes)).
		Msg("Fetched historical quotes")

	return quotes, nil
}

// parseChart pairs timestamps with closes, skipping null closes
func parseChart(ticker string, chart chartResult) []domain.QuoteData {
	var closes []*float64
	if len(chart.Indicators.Quote) > 0 {
		closes = chart.Indicators.Quote[0].Close
	}

	quotes := make([]domain.QuoteData, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		quotes = append(quotes, domain.QuoteData{
			Ticker:   ticker,
			Date:     domain.Day(time.Unix(ts, 0).UTC()),
			Price:    *closes[i],
			Currency: chart.Meta.Currency,
			Source:   ProviderName,
		})
	}
	return quotes
}
