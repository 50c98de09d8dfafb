// Package exchangerate provides historical currency exchange rate fetching and caching.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/portfoliodb/portfoliodb/internal/clientdata"
	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the Frankfurter API (ECB reference rates)
const DefaultBaseURL = "https://api.frankfurter.app"

// Client for the Frankfurter historical rates API.
// Lookups go through an in-process cache, then the persistent clientdata
// cache, then the API.
type Client struct {
	baseURL   string
	client    *http.Client
	memory    *cache.Cache
	cacheRepo *clientdata.Repository
	now       func() time.Time
	log       zerolog.Logger
}

// NewClient creates a new Frankfurter client.
// cacheRepo is optional - if nil, persistent caching is disabled.
func NewClient(baseURL string, timeout time.Duration, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
		memory:    cache.New(24*time.Hour, 48*time.Hour),
		cacheRepo: cacheRepo,
		now:       time.Now,
		log:       log.With().Str("client", "frankfurter").Logger(),
	}
}

// cachedExchangeRate is the structure stored in both caches.
// Found=false records that the source has no rate for the pair/date.
type cachedExchangeRate struct {
	Rate  float64 `json:"rate"`
	Found bool    `json:"found"`
}

// GetRate returns the from→to rate published for date.
// found is false when the source has no rate for that pair/date; err wraps
// domain.ErrCurrencyConversion on network or parse failures with no cached
// fallback.
func (c *Client) GetRate(ctx context.Context, from, to string, date time.Time) (rate float64, found bool, err error) {
	if from == to {
		return 1.0, true, nil
	}

	day := domain.FormatDay(date)
	cacheKey := from + ":" + to + ":" + day

	if v, ok := c.memory.Get(cacheKey); ok {
		cached := v.(cachedExchangeRate)
		return cached.Rate, cached.Found, nil
	}

	if cached, ok := c.getFromCache(ctx, cacheKey, true); ok {
		c.log.Debug().Str("pair", cacheKey).Float64("rate", cached.Rate).Msg("Cache hit")
		c.memory.Set(cacheKey, cached, c.ttlFor(date, cached.Found))
		return cached.Rate, cached.Found, nil
	}

	cached, err := c.fetch(ctx, from, to, day)
	if err != nil {
		// Stale data is better than no data
		if stale, ok := c.getFromCache(ctx, cacheKey, false); ok {
			c.log.Warn().
				Err(err).
				Str("pair", cacheKey).
				Float64("rate", stale.Rate).
				Msg("API failed, using stale cached rate")
			return stale.Rate, stale.Found, nil
		}
		return 0, false, fmt.Errorf("%w: %s->%s on %s: %w", domain.ErrCurrencyConversion, from, to, day, err)
	}

	c.memory.Set(cacheKey, cached, c.ttlFor(date, cached.Found))
	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(ctx, clientdata.TableExchangeRates, cacheKey, cached, c.ttlFor(date, cached.Found)); err != nil {
			c.log.Warn().Err(err).Str("pair", cacheKey).Msg("Failed to cache exchange rate")
		}
	}

	return cached.Rate, cached.Found, nil
}

// fetch queries {base}/{date}?from=X&to=Y. 404 and 422 mean the source has
// no rate for the pair or date. Any other non-2xx status is an error so that
// outages are retried instead of cached as missing.
func (c *Client) fetch(ctx context.Context, from, to, day string) (cachedExchangeRate, error) {
	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, day, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return cachedExchangeRate{}, fmt.Errorf("failed to build request: %w", err)
	}

	c.log.Debug().Str("url", endpoint).Msg("Fetching rate")

	resp, err := c.client.Do(req)
	if err != nil {
		return cachedExchangeRate{}, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity {
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("from", from).
			Str("to", to).
			Str("date", day).
			Msg("No rate available")
		return cachedExchangeRate{Found: false}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return cachedExchangeRate{}, fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return cachedExchangeRate{}, fmt.Errorf("failed to parse response: %w", err)
	}

	rate, ok := result.Rates[to]
	if !ok {
		return cachedExchangeRate{Found: false}, nil
	}

	c.log.Info().
		Str("from", from).
		Str("to", to).
		Str("date", day).
		Float64("rate", rate).
		Msg("Fetched rate")

	return cachedExchangeRate{Rate: rate, Found: true}, nil
}

func (c *Client) getFromCache(ctx context.Context, cacheKey string, freshOnly bool) (cachedExchangeRate, bool) {
	if c.cacheRepo == nil {
		return cachedExchangeRate{}, false
	}

	var (
		data json.RawMessage
		err  error
	)
	if freshOnly {
		data, err = c.cacheRepo.GetIfFresh(ctx, clientdata.TableExchangeRates, cacheKey)
	} else {
		data, err = c.cacheRepo.Get(ctx, clientdata.TableExchangeRates, cacheKey)
	}
	if err != nil || data == nil {
		return cachedExchangeRate{}, false
	}

	var cached cachedExchangeRate
	if err := json.Unmarshal(data, &cached); err != nil {
		return cachedExchangeRate{}, false
	}
	return cached, true
}

func (c *Client) ttlFor(date time.Time, found bool) time.Duration {
	if !found {
		return clientdata.TTLMissingRate
	}
	if domain.Day(date).Before(domain.Day(c.now())) {
		return clientdata.TTLHistoricalRate
	}
	return clientdata.TTLCurrentRate
}
