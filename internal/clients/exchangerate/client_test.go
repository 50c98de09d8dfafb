package exchangerate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/portfoliodb/portfoliodb/internal/clientdata"
	"github.com/portfoliodb/portfoliodb/internal/domain"
	testingpkg "github.com/portfoliodb/portfoliodb/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRate_Success(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/2024-01-02", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("from"))
		assert.Equal(t, "EUR", r.URL.Query().Get("to"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"amount":1.0,"base":"USD","date":"2024-01-02","rates":{"EUR":0.9123}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil, zerolog.Nop())
	ctx := context.Background()

	rate, found, err := client.GetRate(ctx, "USD", "EUR", testingpkg.Date(2024, 1, 2))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.9123, rate)

	// Second lookup is served from memory
	_, _, err = client.GetRate(ctx, "USD", "EUR", testingpkg.Date(2024, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGetRate_SameCurrency(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", time.Second, nil, zerolog.Nop())

	rate, found, err := client.GetRate(context.Background(), "EUR", "EUR", time.Now())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1.0, rate)
}

func TestGetRate_NoRate(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{name: "not found status", status: http.StatusNotFound, payload: `{"message":"not found"}`},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, payload: `{}`},
		{name: "target missing from rates", status: http.StatusOK, payload: `{"rates":{"GBP":0.8}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			}))
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second, nil, zerolog.Nop())
			rate, found, err := client.GetRate(context.Background(), "XAU", "EUR", testingpkg.Date(2024, 1, 2))
			require.NoError(t, err)
			assert.False(t, found)
			assert.Zero(t, rate)
		})
	}
}

func TestGetRate_ParseFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil, zerolog.Nop())
	_, found, err := client.GetRate(context.Background(), "USD", "EUR", testingpkg.Date(2024, 1, 2))
	require.Error(t, err)
	assert.False(t, found)
	assert.True(t, errors.Is(err, domain.ErrCurrencyConversion))
}

func TestGetRate_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, time.Second, nil, zerolog.Nop())
	_, _, err := client.GetRate(context.Background(), "USD", "EUR", testingpkg.Date(2024, 1, 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCurrencyConversion))
}

func TestGetRate_UpstreamFailureStatus(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second, nil, zerolog.Nop())
			_, found, err := client.GetRate(context.Background(), "USD", "EUR", testingpkg.Date(2024, 1, 2))
			require.Error(t, err)
			assert.False(t, found)
			assert.True(t, errors.Is(err, domain.ErrCurrencyConversion))
		})
	}
}

func TestGetRate_RetriesAfterOutage(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "fx_outage")
	defer cleanup()
	repo := clientdata.NewRepository(db.Conn())

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"rates":{"EUR":0.9}}`))
	}))
	defer server.Close()

	ctx := context.Background()
	client := NewClient(server.URL, 5*time.Second, repo, zerolog.Nop())

	_, _, err := client.GetRate(ctx, "USD", "EUR", testingpkg.Date(2024, 1, 2))
	require.Error(t, err)

	data, err := repo.Get(ctx, clientdata.TableExchangeRates, "USD:EUR:2024-01-02")
	require.NoError(t, err)
	assert.Nil(t, data, "outage must not be cached")

	rate, found, err := client.GetRate(ctx, "USD", "EUR", testingpkg.Date(2024, 1, 2))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.9, rate)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestGetRate_MemoryExpiryFollowsTTL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rates":{"EUR":0.9}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil, zerolog.Nop())
	today := domain.Day(time.Now())

	_, found, err := client.GetRate(context.Background(), "USD", "EUR", today)
	require.NoError(t, err)
	require.True(t, found)

	_, expires, ok := client.memory.GetWithExpiration("USD:EUR:" + domain.FormatDay(today))
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(clientdata.TTLCurrentRate), expires, time.Minute)
}

func TestGetRate_PersistentCache(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "fx_cache")
	defer cleanup()
	repo := clientdata.NewRepository(db.Conn())

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"rates":{"EUR":1.17}}`))
	}))
	defer server.Close()

	ctx := context.Background()
	first := NewClient(server.URL, 5*time.Second, repo, zerolog.Nop())
	rate, found, err := first.GetRate(ctx, "GBP", "EUR", testingpkg.Date(2023, 6, 30))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1.17, rate)

	// A fresh client (empty memory cache) reads the persisted rate
	second := NewClient(server.URL, 5*time.Second, repo, zerolog.Nop())
	rate, found, err = second.GetRate(ctx, "GBP", "EUR", testingpkg.Date(2023, 6, 30))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1.17, rate)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGetRate_StaleFallback(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "fx_stale")
	defer cleanup()
	repo := clientdata.NewRepository(db.Conn())

	ctx := context.Background()
	require.NoError(t, repo.Store(ctx, clientdata.TableExchangeRates, "USD:EUR:2024-01-02",
		cachedExchangeRate{Rate: 0.9, Found: true}, -time.Hour))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, repo, zerolog.Nop())
	rate, found, err := client.GetRate(ctx, "USD", "EUR", testingpkg.Date(2024, 1, 2))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.9, rate)
}

func TestTTLFor(t *testing.T) {
	client := NewClient("", time.Second, nil, zerolog.Nop())
	client.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }

	assert.Equal(t, clientdata.TTLHistoricalRate, client.ttlFor(testingpkg.Date(2024, 6, 14), true))
	assert.Equal(t, clientdata.TTLCurrentRate, client.ttlFor(testingpkg.Date(2024, 6, 15), true))
	assert.Equal(t, clientdata.TTLMissingRate, client.ttlFor(testingpkg.Date(2024, 6, 14), false))
}
