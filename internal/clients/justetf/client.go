// Package justetf provides a spot-price quote provider that scrapes JustETF
// ETF profile pages by ISIN.
package justetf

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	// ProviderName is the provider identifier stored as the quote source
	ProviderName = "justetf"

	// DefaultBaseURL is the JustETF profile page
	DefaultBaseURL = "https://www.justetf.com/en/etf-profile.html"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

var pricePattern = regexp.MustCompile(`(€|USD|EUR|GBP)\s*([0-9]+[.,][0-9]{2})`)

// currencies maps the price marker to the quote currency
var currencies = map[string]domain.Currency{
	"€":   domain.CurrencyEUR,
	"EUR": domain.CurrencyEUR,
	"USD": domain.CurrencyUSD,
	"GBP": domain.CurrencyGBP,
}

// Client scrapes the current quote from a JustETF profile page
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
	log     zerolog.Logger
}

// NewClient creates a new JustETF client
func NewClient(timeout time.Duration, requestsPerSecond float64, log zerolog.Logger) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Client{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
		log:     log.With().Str("client", "justetf").Logger(),
	}
}

// Name returns the provider identifier
func (c *Client) Name() string {
	return ProviderName
}

// GetQuote returns today's spot price for the ISIN. The page only carries
// the current price, so the date argument is ignored. Returns nil, nil when
// no price can be found on the page.
func (c *Client) GetQuote(ctx context.Context, isin string, _ *time.Time) (*domain.QuoteData, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: justetf rate limiter: %w", domain.ErrExternalAPI, err)
	}

	reqURL := c.baseURL + "?" + url.Values{"isin": {isin}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", domain.ErrExternalAPI, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch profile for %s: %w", domain.ErrExternalAPI, isin, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: JustETF returned status: %d", domain.ErrExternalAPI, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", domain.ErrExternalAPI, err)
	}

	match := pricePattern.FindStringSubmatch(string(body))
	if match == nil {
		c.log.Debug().Str("isin", isin).Msg("No price found on profile page")
		return nil, nil
	}

	price, err := decimal.NewFromString(strings.ReplaceAll(match[2], ",", "."))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse price %q: %w", domain.ErrExternalAPI, match[2], err)
	}

	return &domain.QuoteData{
		Ticker:   isin,
		Date:     domain.Day(c.now()),
		Price:    price.InexactFloat64(),
		Currency: string(currencies[match[1]]),
		Source:   ProviderName,
	}, nil
}

// GetQuotes returns the current quote as a single-element history, or an
// empty slice when the page carries no price
func (c *Client) GetQuotes(ctx context.Context, isin string) ([]domain.QuoteData, error) {
	quote, err := c.GetQuote(ctx, isin, nil)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return []domain.QuoteData{}, nil
	}
	return []domain.QuoteData{*quote}, nil
}
