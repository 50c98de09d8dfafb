package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/portfoliodb/portfoliodb/internal/modules/prices"
	testingpkg "github.com/portfoliodb/portfoliodb/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceRoutes(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "price_handlers")
	defer cleanup()

	handler := NewHandler(prices.NewStore(db.Conn(), zerolog.Nop()), zerolog.Nop())
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	for _, body := range []string{
		`{"date":"2024-01-01","investment_id":1,"price":10}`,
		`{"date":"2024-01-02","investment_id":1,"price":11,"source":"yahoo"}`,
		`{"date":"2024-01-02","investment_id":2,"price":50}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/investment-prices", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedCount  int
	}{
		{name: "all", query: "", expectedStatus: http.StatusOK, expectedCount: 3},
		{name: "by investment", query: "?investment_id=1", expectedStatus: http.StatusOK, expectedCount: 2},
		{name: "window", query: "?start_date=2024-01-02&end_date=2024-01-02", expectedStatus: http.StatusOK, expectedCount: 2},
		{name: "bad investment", query: "?investment_id=abc", expectedStatus: http.StatusBadRequest},
		{name: "bad date", query: "?start_date=2024/01/01", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/investment-prices"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var got []PricePayload
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Len(t, got, tt.expectedCount)
		})
	}
}

func TestHandleCreatePrice_Invalid(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "price_handlers_invalid")
	defer cleanup()

	handler := NewHandler(prices.NewStore(db.Conn(), zerolog.Nop()), zerolog.Nop())

	for _, body := range []string{`{`, `{"date":"","investment_id":1}`, `{"date":"2024-01-01"}`} {
		req := httptest.NewRequest(http.MethodPost, "/investment-prices", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.HandleCreatePrice(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestParseDateRange(t *testing.T) {
	start, end, err := ParseDateRange("", "")
	require.NoError(t, err)
	assert.Nil(t, start)
	assert.Nil(t, end)

	start, end, err = ParseDateRange("2024-01-01", "2024-12-31")
	require.NoError(t, err)
	assert.Equal(t, testingpkg.Date(2024, 1, 1), *start)
	assert.Equal(t, testingpkg.Date(2024, 12, 31), *end)
}
