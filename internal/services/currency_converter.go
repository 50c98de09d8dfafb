// Package services provides cross-module domain services.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/rs/zerolog"
)

// RateSource looks up the historical from→to rate for a day.
// Implemented by exchangerate.Client.
type RateSource interface {
	GetRate(ctx context.Context, from, to string, date time.Time) (rate float64, found bool, err error)
}

// CurrencyConverter converts amounts between currencies using historical
// daily rates. Implements domain.CurrencyConverterInterface.
type CurrencyConverter struct {
	rates RateSource
	log   zerolog.Logger
}

// NewCurrencyConverter creates a new currency converter
func NewCurrencyConverter(rates RateSource, log zerolog.Logger) *CurrencyConverter {
	return &CurrencyConverter{
		rates: rates,
		log:   log.With().Str("service", "currency_converter").Logger(),
	}
}

// Convert returns amount expressed in to, using the rate published for date.
// Identical currencies short-circuit without touching the rate source.
// ok is false when the source has no rate for the pair/date.
func (c *CurrencyConverter) Convert(ctx context.Context, amount float64, from, to string, date time.Time) (float64, bool, error) {
	if from == to {
		return amount, true, nil
	}

	rate, found, err := c.rates.GetRate(ctx, from, to, domain.Day(date))
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s->%s: %w", domain.ErrCurrencyConversion, from, to, err)
	}
	if !found {
		c.log.Debug().
			Str("from", from).
			Str("to", to).
			Str("date", domain.FormatDay(date)).
			Msg("No rate available")
		return 0, false, nil
	}

	return amount * rate, true, nil
}
