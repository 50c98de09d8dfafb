package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrency_Constants(t *testing.T) {
	assert.Equal(t, Currency("EUR"), CurrencyEUR)
	assert.Equal(t, Currency("USD"), CurrencyUSD)
	assert.Equal(t, Currency("GBP"), CurrencyGBP)
	assert.Equal(t, CurrencyEUR, DefaultBaseCurrency)
}

func TestActionCodes(t *testing.T) {
	assert.Equal(t, int64(1), ActionBuy)
	assert.Equal(t, int64(2), ActionSell)
	assert.Equal(t, int64(3), ActionPayout)
}

func TestInvestment_DisplayName(t *testing.T) {
	name := "Vanguard FTSE All-World"
	empty := ""

	tests := []struct {
		name     string
		inv      Investment
		expected string
	}{
		{name: "named", inv: Investment{Name: &name}, expected: name},
		{name: "nil name", inv: Investment{}, expected: "Unknown"},
		{name: "empty name", inv: Investment{Name: &empty}, expected: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.inv.DisplayName())
		})
	}
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	a := Day(time.Date(2024, 3, 15, 23, 30, 0, 0, loc))
	b := Day(time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), a)
	assert.True(t, a == b, "normalized days must compare equal with ==")

	m := map[time.Time]int{a: 1}
	assert.Equal(t, 1, m[b])
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "2024-01-31", FormatDay(d))

	_, err = ParseDay("31/01/2024")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestErrorKinds_Wrap(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := fmt.Errorf("%w: failed to load movements: %w", ErrStorage, cause)

	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrInvalidInput))
}
