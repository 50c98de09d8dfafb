package quotes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/portfoliodb/portfoliodb/internal/domain"
	testingpkg "github.com/portfoliodb/portfoliodb/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	yahoo     *testingpkg.MockQuoteProvider
	justetf   *testingpkg.MockQuoteProvider
	store     *testingpkg.MockQuoteStore
	converter *testingpkg.MockCurrencyConverter
	invRepo   *testingpkg.MockInvestmentRepository
	settings  *testingpkg.MockSettingsRepository
	fetcher   *Fetcher
}

func newFixture(investments ...domain.Investment) *fixture {
	f := &fixture{
		yahoo:     testingpkg.NewMockQuoteProvider("yahoo"),
		justetf:   testingpkg.NewMockQuoteProvider("justetf"),
		store:     testingpkg.NewMockQuoteStore(),
		converter: testingpkg.NewMockCurrencyConverter(map[string]float64{"USD/EUR": 0.5}),
		invRepo:   testingpkg.NewMockInvestmentRepository(investments...),
		settings:  testingpkg.NewMockSettingsRepository("EUR"),
	}
	f.fetcher = NewFetcher(
		NewRegistry(f.yahoo, f.justetf),
		f.invRepo, f.store, f.settings, f.converter,
		2, zerolog.Nop(),
	)
	return f
}

func quote(ticker string, date time.Time, price float64, currency string) domain.QuoteData {
	return domain.QuoteData{Ticker: ticker, Date: date, Price: price, Currency: currency, Source: "upstream"}
}

func investment(id int64, provider, ticker, isin *string) domain.Investment {
	return domain.Investment{ID: id, QuoteProvider: provider, TickerSymbol: ticker, ISIN: isin}
}

func TestFetchQuotesForInvestment_StoresConvertedQuotes(t *testing.T) {
	inv := testingpkg.NewInvestmentFixtures()[0]
	f := newFixture(inv)
	d1, d2 := testingpkg.Date(2024, 1, 1), testingpkg.Date(2024, 1, 2)
	f.yahoo.SetQuotes("VWRL.AS", []domain.QuoteData{
		quote("VWRL.AS", d1, 100, "EUR"),
		quote("VWRL.AS", d2, 220, "USD"),
	})

	result, err := f.fetcher.FetchQuotesForInvestment(context.Background(), inv)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Nil(t, result.Error)
	assert.Equal(t, 2, result.QuotesStored)
	assert.Equal(t, int64(1), result.InvestmentID)

	assert.Equal(t, []domain.InvestmentPrice{
		testingpkg.NewQuote(1, d1, 100, "yahoo"),
		testingpkg.NewQuote(1, d2, 110, "yahoo"),
	}, f.store.All())
	assert.Equal(t, 1, f.converter.Calls(), "same-currency quotes skip conversion")
}

func TestFetchQuotesForInvestment_SkipsQuotesWithoutRate(t *testing.T) {
	inv := testingpkg.NewInvestmentFixtures()[0]
	f := newFixture(inv)
	f.yahoo.SetQuotes("VWRL.AS", []domain.QuoteData{
		quote("VWRL.AS", testingpkg.Date(2024, 1, 1), 100, "GBP"),
		quote("VWRL.AS", testingpkg.Date(2024, 1, 2), 100, "EUR"),
	})

	result, err := f.fetcher.FetchQuotesForInvestment(context.Background(), inv)
	require.NoError(t, err)
	assert.True(t, result.Success, "partial success is still success")
	assert.Equal(t, 1, result.QuotesStored)
	assert.Len(t, f.store.All(), 1)
}

func TestFetchQuotesForInvestment_ConversionFailure(t *testing.T) {
	inv := testingpkg.NewInvestmentFixtures()[0]
	f := newFixture(inv)
	f.converter.SetError(fmt.Errorf("%w: timeout", domain.ErrCurrencyConversion))
	f.yahoo.SetQuotes("VWRL.AS", []domain.QuoteData{
		quote("VWRL.AS", testingpkg.Date(2024, 1, 1), 100, "EUR"),
		quote("VWRL.AS", testingpkg.Date(2024, 1, 2), 100, "USD"),
		quote("VWRL.AS", testingpkg.Date(2024, 1, 3), 100, "EUR"),
	})

	result, err := f.fetcher.FetchQuotesForInvestment(context.Background(), inv)
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "Currency conversion error")
	assert.Equal(t, 1, result.QuotesStored)
}

func TestFetchQuotesForInvestment_FailedResults(t *testing.T) {
	tests := []struct {
		name          string
		inv           domain.Investment
		setup         func(f *fixture)
		expectedError string
	}{
		{
			name:          "no provider",
			inv:           investment(3, nil, testingpkg.Ptr("AAPL"), nil),
			expectedError: "No quote provider configured",
		},
		{
			name:          "empty provider",
			inv:           investment(3, testingpkg.Ptr(""), testingpkg.Ptr("AAPL"), nil),
			expectedError: "No quote provider configured",
		},
		{
			name:          "unknown provider",
			inv:           investment(4, testingpkg.Ptr("bloomberg"), testingpkg.Ptr("AAPL"), nil),
			expectedError: "Unknown provider: bloomberg",
		},
		{
			name:          "empty history",
			inv:           investment(5, testingpkg.Ptr("yahoo"), testingpkg.Ptr("NONE"), nil),
			expectedError: "No quote data returned from provider",
		},
		{
			name: "provider error",
			inv:  investment(6, testingpkg.Ptr("yahoo"), testingpkg.Ptr("VWRL.AS"), nil),
			setup: func(f *fixture) {
				f.yahoo.SetError(fmt.Errorf("%w: Yahoo Finance returned status: 500", domain.ErrExternalAPI))
			},
			expectedError: "Provider error: external API error: Yahoo Finance returned status: 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.inv)
			if tt.setup != nil {
				tt.setup(f)
			}

			result, err := f.fetcher.FetchQuotesForInvestment(context.Background(), tt.inv)
			require.NoError(t, err)
			assert.Equal(t, tt.inv.ID, result.InvestmentID)
			assert.False(t, result.Success)
			assert.Equal(t, 0, result.QuotesStored)
			require.NotNil(t, result.Error)
			assert.Equal(t, tt.expectedError, *result.Error)
			assert.Empty(t, f.store.All())
		})
	}
}

func TestFetchQuotesForInvestment_TickerFallsBackToISIN(t *testing.T) {
	inv := testingpkg.NewInvestmentFixtures()[1]
	f := newFixture(inv)
	f.justetf.SetQuotes("IE00B4L5Y983", []domain.QuoteData{
		quote("IE00B4L5Y983", testingpkg.Date(2024, 5, 17), 87.42, "EUR"),
	})

	result, err := f.fetcher.FetchQuotesForInvestment(context.Background(), inv)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.QuotesStored)
	assert.Equal(t, "justetf", f.store.All()[0].Source)
}

func TestFetchQuotesForInvestment_NoTickerOrISIN(t *testing.T) {
	inv := investment(7, testingpkg.Ptr("yahoo"), nil, testingpkg.Ptr(""))
	f := newFixture(inv)

	_, err := f.fetcher.FetchQuotesForInvestment(context.Background(), inv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, 0, f.yahoo.Calls())
}

func TestFetchQuotesForInvestment_StorageErrors(t *testing.T) {
	inv := testingpkg.NewInvestmentFixtures()[0]
	storageErr := fmt.Errorf("%w: database is locked", domain.ErrStorage)

	t.Run("upsert", func(t *testing.T) {
		f := newFixture(inv)
		f.yahoo.SetQuotes("VWRL.AS", []domain.QuoteData{quote("VWRL.AS", testingpkg.Date(2024, 1, 1), 1, "EUR")})
		f.store.SetUpsertError(storageErr)

		_, err := f.fetcher.FetchQuotesForInvestment(context.Background(), inv)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrStorage))
	})

	t.Run("base currency", func(t *testing.T) {
		f := newFixture(inv)
		f.yahoo.SetQuotes("VWRL.AS", []domain.QuoteData{quote("VWRL.AS", testingpkg.Date(2024, 1, 1), 1, "EUR")})
		f.settings.SetError(storageErr)

		_, err := f.fetcher.FetchQuotesForInvestment(context.Background(), inv)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrStorage))
	})
}

func TestFetchQuotesForInvestment_UpsertIsIdempotent(t *testing.T) {
	inv := testingpkg.NewInvestmentFixtures()[0]
	f := newFixture(inv)
	day := testingpkg.Date(2024, 1, 1)

	f.yahoo.SetQuotes("VWRL.AS", []domain.QuoteData{quote("VWRL.AS", day, 100, "EUR")})
	_, err := f.fetcher.FetchQuotesForInvestment(context.Background(), inv)
	require.NoError(t, err)

	f.yahoo.SetQuotes("VWRL.AS", []domain.QuoteData{quote("VWRL.AS", day, 101, "EUR")})
	_, err = f.fetcher.FetchQuotesForInvestment(context.Background(), inv)
	require.NoError(t, err)

	assert.Equal(t, []domain.InvestmentPrice{testingpkg.NewQuote(1, day, 101, "yahoo")}, f.store.All())
}

func TestFetchQuotes_AllConfigured(t *testing.T) {
	investments := testingpkg.NewInvestmentFixtures()
	f := newFixture(investments...)
	f.yahoo.SetQuotes("VWRL.AS", []domain.QuoteData{quote("VWRL.AS", testingpkg.Date(2024, 1, 1), 100, "EUR")})

	results, err := f.fetcher.FetchQuotes(context.Background(), nil)
	require.NoError(t, err)

	// Investment 3 has no provider and is not part of the target set.
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].InvestmentID)
	assert.True(t, results[0].Success)
	assert.Equal(t, int64(2), results[1].InvestmentID)
	assert.False(t, results[1].Success)

	assert.Equal(t, Summary{Total: 2, Successful: 1, Failed: 1}, Summarize(results))
}

func TestFetchQuotes_ExplicitIDs(t *testing.T) {
	investments := testingpkg.NewInvestmentFixtures()
	f := newFixture(investments...)

	results, err := f.fetcher.FetchQuotes(context.Background(), []int64{3, 99, 1})
	require.NoError(t, err)

	require.Len(t, results, 2, "unknown ids are dropped")
	assert.Equal(t, int64(3), results[0].InvestmentID)
	assert.Equal(t, "No quote provider configured", *results[0].Error)
	assert.Equal(t, int64(1), results[1].InvestmentID)

	results, err = f.fetcher.FetchQuotes(context.Background(), []int64{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFetchQuotes_FailureIsolation(t *testing.T) {
	var investments []domain.Investment
	for i := int64(1); i <= 8; i++ {
		ticker := fmt.Sprintf("T%d", i)
		investments = append(investments, investment(i, testingpkg.Ptr("yahoo"), testingpkg.Ptr(ticker), nil))
	}
	// Missing ticker and ISIN is folded into the batch result
	investments = append(investments, investment(9, testingpkg.Ptr("yahoo"), nil, nil))

	f := newFixture(investments...)
	for i := int64(1); i <= 8; i += 2 {
		ticker := fmt.Sprintf("T%d", i)
		f.yahoo.SetQuotes(ticker, []domain.QuoteData{quote(ticker, testingpkg.Date(2024, 1, 1), float64(i), "EUR")})
	}

	results, err := f.fetcher.FetchQuotes(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 9)

	ids := make([]int64, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.InvestmentID)
		switch {
		case r.InvestmentID == 9:
			assert.False(t, r.Success)
			assert.Equal(t, "No ticker or ISIN configured", *r.Error)
		case r.InvestmentID%2 == 1:
			assert.True(t, r.Success, "investment %d", r.InvestmentID)
			assert.Equal(t, 1, r.QuotesStored)
		default:
			assert.False(t, r.Success, "investment %d", r.InvestmentID)
		}
	}
	assert.True(t, sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] < ids[j] }))
	assert.Len(t, f.store.All(), 4)
}

func TestFetchQuotes_StorageErrorsReturnedWithResults(t *testing.T) {
	investments := testingpkg.NewInvestmentFixtures()
	f := newFixture(investments...)
	f.yahoo.SetQuotes("VWRL.AS", []domain.QuoteData{quote("VWRL.AS", testingpkg.Date(2024, 1, 1), 100, "EUR")})
	f.store.SetUpsertError(fmt.Errorf("%w: disk full", domain.ErrStorage))

	results, err := f.fetcher.FetchQuotes(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorage))
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Contains(t, *results[0].Error, "disk full")
}

func TestFetchQuotes_InvestmentLookupError(t *testing.T) {
	f := newFixture()
	f.invRepo.SetError(fmt.Errorf("%w: closed", domain.ErrStorage))

	results, err := f.fetcher.FetchQuotes(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, errors.Is(err, domain.ErrStorage))

	_, err = f.fetcher.FetchQuotes(context.Background(), []int64{1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorage))
}

func TestRunID(t *testing.T) {
	_, ok := RunIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := RunIDFromContext(WithRunID(context.Background(), "run-1"))
	assert.True(t, ok)
	assert.Equal(t, "run-1", id)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) GetQuote(ctx context.Context, ticker string, date *time.Time) (*domain.QuoteData, error) {
	args := m.Called(ctx, ticker, date)
	q, _ := args.Get(0).(*domain.QuoteData)
	return q, args.Error(1)
}

func (m *mockProvider) GetQuotes(ctx context.Context, ticker string) ([]domain.QuoteData, error) {
	args := m.Called(ctx, ticker)
	q, _ := args.Get(0).([]domain.QuoteData)
	return q, args.Error(1)
}

func (m *mockProvider) Name() string {
	return "mock"
}

func TestFetchQuoteOnDate(t *testing.T) {
	inv := investment(1, testingpkg.Ptr("mock"), testingpkg.Ptr("ABC"), nil)
	day := testingpkg.Date(2024, 3, 1)

	provider := new(mockProvider)
	provider.On("GetQuote", mock.Anything, "ABC", mock.MatchedBy(func(d *time.Time) bool {
		return d != nil && d.Equal(day)
	})).Return(&domain.QuoteData{Ticker: "ABC", Date: day, Price: 40, Currency: "USD"}, nil).Once()

	store := testingpkg.NewMockQuoteStore()
	fetcher := NewFetcher(
		NewRegistry(provider),
		testingpkg.NewMockInvestmentRepository(inv),
		store,
		testingpkg.NewMockSettingsRepository("EUR"),
		testingpkg.NewMockCurrencyConverter(map[string]float64{"USD/EUR": 0.5}),
		0, zerolog.Nop(),
	)

	result, err := fetcher.FetchQuoteOnDate(context.Background(), inv, day.Add(15*time.Hour))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.QuotesStored)
	assert.Equal(t, []domain.InvestmentPrice{testingpkg.NewQuote(1, day, 20, "mock")}, store.All())
	provider.AssertExpectations(t)
}

func TestFetchQuoteOnDate_NoQuote(t *testing.T) {
	inv := investment(1, testingpkg.Ptr("mock"), testingpkg.Ptr("ABC"), nil)

	provider := new(mockProvider)
	provider.On("GetQuote", mock.Anything, "ABC", mock.Anything).Return(nil, nil)

	fetcher := NewFetcher(
		NewRegistry(provider),
		testingpkg.NewMockInvestmentRepository(inv),
		testingpkg.NewMockQuoteStore(),
		testingpkg.NewMockSettingsRepository("EUR"),
		testingpkg.NewMockCurrencyConverter(nil),
		0, zerolog.Nop(),
	)

	result, err := fetcher.FetchQuoteOnDate(context.Background(), inv, time.Now())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "No quote data returned from provider", *result.Error)
}

func TestAvailableProviders(t *testing.T) {
	f := newFixture()
	assert.Equal(t, []ProviderInfo{
		{ID: "justetf", Name: "justetf"},
		{ID: "yahoo", Name: "yahoo"},
	}, f.fetcher.AvailableProviders())
}
