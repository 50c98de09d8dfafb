package prices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/portfoliodb/portfoliodb/internal/domain"
	testingpkg "github.com/portfoliodb/portfoliodb/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "prices")
	t.Cleanup(cleanup)
	return NewStore(db.Conn(), zerolog.Nop())
}

func TestStore_UpsertRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	day := testingpkg.Date(2024, 3, 1)

	require.NoError(t, store.UpsertQuote(ctx, testingpkg.NewQuote(1, day, 10.0, "yahoo")))
	require.NoError(t, store.UpsertQuote(ctx, testingpkg.NewQuote(1, day, 10.5, "yahoo")))

	quotes, err := store.FindQuotes(ctx, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, 10.5, quotes[0].Price)

	// Different source for the same (date, instrument) is a separate row
	require.NoError(t, store.UpsertQuote(ctx, testingpkg.NewQuote(1, day, 10.7, "justetf")))

	quotes, err = store.FindQuotes(ctx, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "yahoo", quotes[0].Source)
	assert.Equal(t, "justetf", quotes[1].Source)
}

func TestStore_UpsertNormalizesDate(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	afternoon := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	require.NoError(t, store.UpsertQuote(ctx, testingpkg.NewQuote(1, afternoon, 10.0, "yahoo")))
	require.NoError(t, store.UpsertQuote(ctx, testingpkg.NewQuote(1, testingpkg.Date(2024, 3, 1), 11.0, "yahoo")))

	quotes, err := store.FindQuotes(ctx, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, testingpkg.Date(2024, 3, 1), quotes[0].Date)
	assert.Equal(t, 11.0, quotes[0].Price)
}

func TestStore_FindQuotesFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, q := range []domain.InvestmentPrice{
		testingpkg.NewQuote(1, testingpkg.Date(2024, 1, 1), 10, "yahoo"),
		testingpkg.NewQuote(1, testingpkg.Date(2024, 1, 2), 11, "yahoo"),
		testingpkg.NewQuote(1, testingpkg.Date(2024, 1, 3), 12, "yahoo"),
		testingpkg.NewQuote(2, testingpkg.Date(2024, 1, 2), 50, "justetf"),
	} {
		require.NoError(t, store.UpsertQuote(ctx, q))
	}

	start := testingpkg.Date(2024, 1, 2)
	end := testingpkg.Date(2024, 1, 2)
	one := int64(1)

	tests := []struct {
		name         string
		investmentID *int64
		start, end   *time.Time
		expected     int
	}{
		{name: "unfiltered", expected: 4},
		{name: "by investment", investmentID: &one, expected: 3},
		{name: "start only", start: &start, expected: 3},
		{name: "end only", end: &end, expected: 3},
		{name: "single day window", start: &start, end: &end, expected: 2},
		{name: "investment and window", investmentID: &one, start: &start, end: &end, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes, err := store.FindQuotes(ctx, tt.investmentID, tt.start, tt.end)
			require.NoError(t, err)
			assert.Len(t, quotes, tt.expected)
		})
	}
}

func TestStore_CreatePrice(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	stored, err := store.CreatePrice(ctx, domain.InvestmentPrice{Date: testingpkg.Date(2024, 5, 1), InvestmentID: 3, Price: 99.5})
	require.NoError(t, err)
	assert.Equal(t, ManualSource, stored.Source)

	_, err = store.CreatePrice(ctx, domain.InvestmentPrice{InvestmentID: 3, Price: 1})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = store.CreatePrice(ctx, domain.InvestmentPrice{Date: testingpkg.Date(2024, 5, 1), Price: 1})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestStore_StorageError(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "prices_closed")
	store := NewStore(db.Conn(), zerolog.Nop())
	cleanup()

	_, err := store.FindQuotes(context.Background(), nil, nil, nil)
	assert.True(t, errors.Is(err, domain.ErrStorage))

	err = store.UpsertQuote(context.Background(), testingpkg.NewQuote(1, testingpkg.Date(2024, 1, 1), 1, "yahoo"))
	assert.True(t, errors.Is(err, domain.ErrStorage))
}
