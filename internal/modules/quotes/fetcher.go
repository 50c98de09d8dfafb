// Package quotes synchronizes stored quotes with external quote providers.
package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/portfoliodb/portfoliodb/internal/utils"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many investments a batch syncs at once
const DefaultConcurrency = 4

type runIDKey struct{}

// WithRunID attaches a batch run identifier to ctx. FetchQuotes generates
// one when ctx carries none.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run identifier attached by WithRunID
func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// Fetcher fetches quotes from the registered providers, converts them to
// the base currency and upserts them into quote storage
type Fetcher struct {
	registry    *Registry
	investments domain.InvestmentReader
	quotes      domain.QuoteWriter
	settings    domain.SettingsReader
	converter   domain.CurrencyConverterInterface
	concurrency int
	log         zerolog.Logger
}

// NewFetcher creates a new quote fetcher. concurrency <= 0 uses DefaultConcurrency.
func NewFetcher(
	registry *Registry,
	investments domain.InvestmentReader,
	quotes domain.QuoteWriter,
	settings domain.SettingsReader,
	converter domain.CurrencyConverterInterface,
	concurrency int,
	log zerolog.Logger,
) *Fetcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Fetcher{
		registry:    registry,
		investments: investments,
		quotes:      quotes,
		settings:    settings,
		converter:   converter,
		concurrency: concurrency,
		log:         log.With().Str("service", "quote_fetcher").Logger(),
	}
}

// AvailableProviders lists the registered providers sorted by id
func (f *Fetcher) AvailableProviders() []ProviderInfo {
	ids := f.registry.IDs()
	out := make([]ProviderInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, ProviderInfo{ID: id, Name: id})
	}
	return out
}

// FetchQuotesForInvestment syncs the full provider history of inv.
// Provider and conversion failures are reported in the result. The returned
// error wraps domain.ErrInvalidInput when inv has neither ticker nor ISIN,
// or a storage error.
func (f *Fetcher) FetchQuotesForInvestment(ctx context.Context, inv domain.Investment) (QuoteFetchResult, error) {
	provider, ticker, early, err := f.resolve(inv)
	if err != nil || early != nil {
		return derefResult(early), err
	}

	quotes, err := provider.GetQuotes(ctx, ticker)
	if err != nil {
		f.log.Warn().Err(err).Int64("investment_id", inv.ID).Str("ticker", ticker).Msg("Provider fetch failed")
		return failed(inv.ID, fmt.Sprintf("Provider error: %v", err), 0), nil
	}
	if len(quotes) == 0 {
		return failed(inv.ID, "No quote data returned from provider", 0), nil
	}

	return f.storeQuotes(ctx, inv, provider.Name(), ticker, quotes)
}

// FetchQuoteOnDate syncs the single quote the provider has for date
func (f *Fetcher) FetchQuoteOnDate(ctx context.Context, inv domain.Investment, date time.Time) (QuoteFetchResult, error) {
	provider, ticker, early, err := f.resolve(inv)
	if err != nil || early != nil {
		return derefResult(early), err
	}

	day := domain.Day(date)
	quote, err := provider.GetQuote(ctx, ticker, &day)
	if err != nil {
		f.log.Warn().Err(err).Int64("investment_id", inv.ID).Str("ticker", ticker).Msg("Provider fetch failed")
		return failed(inv.ID, fmt.Sprintf("Provider error: %v", err), 0), nil
	}
	if quote == nil {
		return failed(inv.ID, "No quote data returned from provider", 0), nil
	}

	return f.storeQuotes(ctx, inv, provider.Name(), ticker, []domain.QuoteData{*quote})
}

// FetchQuotes syncs every investment in ids, or every investment with a
// configured provider when ids is nil. Unknown ids are dropped. Results
// follow the order of the target set, one per investment.
//
// Failures of one investment never affect the others. Storage failures are
// recorded in the affected result and also returned joined, together with
// the complete result set.
func (f *Fetcher) FetchQuotes(ctx context.Context, ids []int64) ([]QuoteFetchResult, error) {
	defer utils.OperationTimer("fetch_quotes", f.log)()

	runID, ok := RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = WithRunID(ctx, runID)
	}
	log := f.log.With().Str("run_id", runID).Logger()

	targets, err := f.targets(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]QuoteFetchResult, len(targets))
	errs := make([]error, len(targets))

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, inv := range targets {
		g.Go(func() error {
			result, err := f.FetchQuotesForInvestment(ctx, inv)
			switch {
			case errors.Is(err, domain.ErrInvalidInput):
				result = failed(inv.ID, "No ticker or ISIN configured", 0)
			case err != nil:
				errs[i] = err
				result = failed(inv.ID, err.Error(), 0)
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	summary := Summarize(results)
	log.Info().
		Int("total", summary.Total).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Msg("Quote fetch completed")

	return results, errors.Join(errs...)
}

func (f *Fetcher) targets(ctx context.Context, ids []int64) ([]domain.Investment, error) {
	if ids == nil {
		all, err := f.investments.FindAllInvestments(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load investments: %w", err)
		}
		targets := make([]domain.Investment, 0, len(all))
		for _, inv := range all {
			if inv.QuoteProvider != nil && *inv.QuoteProvider != "" {
				targets = append(targets, inv)
			}
		}
		return targets, nil
	}

	targets := make([]domain.Investment, 0, len(ids))
	for _, id := range ids {
		inv, err := f.investments.FindInvestmentByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load investment %d: %w", id, err)
		}
		if inv != nil {
			targets = append(targets, *inv)
		}
	}
	return targets, nil
}

// resolve picks the provider and ticker for inv. A non-nil result means the
// sync ends early with that failed result.
func (f *Fetcher) resolve(inv domain.Investment) (domain.QuoteProvider, string, *QuoteFetchResult, error) {
	if inv.QuoteProvider == nil || *inv.QuoteProvider == "" {
		r := failed(inv.ID, "No quote provider configured", 0)
		return nil, "", &r, nil
	}

	provider, ok := f.registry.Get(*inv.QuoteProvider)
	if !ok {
		r := failed(inv.ID, "Unknown provider: "+*inv.QuoteProvider, 0)
		return nil, "", &r, nil
	}

	switch {
	case inv.TickerSymbol != nil && *inv.TickerSymbol != "":
		return provider, *inv.TickerSymbol, nil, nil
	case inv.ISIN != nil && *inv.ISIN != "":
		return provider, *inv.ISIN, nil, nil
	default:
		return nil, "", nil, fmt.Errorf("%w: investment %d has no ticker or ISIN", domain.ErrInvalidInput, inv.ID)
	}
}

func (f *Fetcher) storeQuotes(ctx context.Context, inv domain.Investment, source, ticker string, quotes []domain.QuoteData) (QuoteFetchResult, error) {
	base, err := f.settings.GetBaseCurrency(ctx)
	if err != nil {
		return QuoteFetchResult{}, fmt.Errorf("failed to load base currency: %w", err)
	}
	base = strings.ToUpper(base)

	stored := 0
	for _, q := range quotes {
		price := q.Price
		if strings.ToUpper(q.Currency) != base {
			converted, ok, err := f.converter.Convert(ctx, q.Price, strings.ToUpper(q.Currency), base, q.Date)
			if err != nil {
				f.log.Error().Err(err).
					Int64("investment_id", inv.ID).
					Str("date", domain.FormatDay(q.Date)).
					Msg("Currency conversion failed")
				return failed(inv.ID, fmt.Sprintf("Currency conversion error: %v", err), stored), nil
			}
			if !ok {
				f.log.Warn().
					Str("ticker", ticker).
					Str("date", domain.FormatDay(q.Date)).
					Str("from", q.Currency).
					Str("to", base).
					Msg("No exchange rate, skipping quote")
				continue
			}
			price = converted
		}

		if err := f.quotes.UpsertQuote(ctx, domain.InvestmentPrice{
			Date:         domain.Day(q.Date),
			InvestmentID: inv.ID,
			Price:        price,
			Source:       source,
		}); err != nil {
			return QuoteFetchResult{}, fmt.Errorf("failed to store quote for investment %d: %w", inv.ID, err)
		}
		stored++
	}

	f.log.Info().
		Int64("investment_id", inv.ID).
		Str("investment", inv.DisplayName()).
		Str("ticker", ticker).
		Int("stored", stored).
		Msg("Fetched quotes")

	return QuoteFetchResult{InvestmentID: inv.ID, Success: true, QuotesStored: stored}, nil
}

func derefResult(r *QuoteFetchResult) QuoteFetchResult {
	if r == nil {
		return QuoteFetchResult{}
	}
	return *r
}
