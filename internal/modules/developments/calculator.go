// Package developments reconstructs per-investment valuation history from the
// movement ledger and stored quotes.
package developments

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/portfoliodb/portfoliodb/internal/utils"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// dayKey identifies one investment on one calendar day
type dayKey struct {
	investmentID int64
	date         time.Time
}

// quantityDelta is the net quantity change of one investment on one day
type quantityDelta struct {
	date  time.Time
	delta float64
}

// Calculator computes developments. It holds no state between calls.
type Calculator struct {
	movements domain.MovementReader
	quotes    domain.QuoteReader
	log       zerolog.Logger
}

// NewCalculator creates a new development calculator
func NewCalculator(movements domain.MovementReader, quotes domain.QuoteReader, log zerolog.Logger) *Calculator {
	return &Calculator{
		movements: movements,
		quotes:    quotes,
		log:       log.With().Str("service", "developments").Logger(),
	}
}

// CalculateDevelopments returns the valuation series for every investment,
// sorted by (investment, date). start and end bound the emitted days
// inclusively; movements outside the window still count towards the held
// quantity. Only storage failures are returned as errors.
func (c *Calculator) CalculateDevelopments(ctx context.Context, start, end *time.Time) ([]domain.Development, error) {
	defer utils.OperationTimer("calculate_developments", c.log)()

	var windowStart, windowEnd *time.Time
	if start != nil {
		d := domain.Day(*start)
		windowStart = &d
	}
	if end != nil {
		d := domain.Day(*end)
		windowEnd = &d
	}

	movements, err := c.movements.FindAllMovements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load movements: %w", err)
	}

	quotes, err := c.quotes.FindQuotes(ctx, nil, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load quotes: %w", err)
	}

	txPrices := transactionPrices(movements)
	deltas := quantityDeltas(movements)

	quotePrices := make(map[dayKey]float64, len(quotes))
	for _, q := range quotes {
		quotePrices[dayKey{investmentID: q.InvestmentID, date: domain.Day(q.Date)}] = q.Price
	}

	universe := make([]dayKey, 0, len(txPrices)+len(quotePrices))
	seen := make(map[dayKey]struct{}, cap(universe))
	for k := range txPrices {
		seen[k] = struct{}{}
		universe = append(universe, k)
	}
	for k := range quotePrices {
		if _, ok := seen[k]; !ok {
			universe = append(universe, k)
		}
	}
	sort.Slice(universe, func(i, j int) bool {
		if universe[i].investmentID != universe[j].investmentID {
			return universe[i].investmentID < universe[j].investmentID
		}
		return universe[i].date.Before(universe[j].date)
	})

	developments := make([]domain.Development, 0, len(universe))

	var (
		current   int64
		started   bool
		held      float64
		next      int
		lastPrice *float64
	)
	for _, k := range universe {
		if !started || k.investmentID != current {
			current, started = k.investmentID, true
			held, next, lastPrice = 0, 0, nil
		}

		// Quantity is accumulated before the window filter so that skipped
		// days still advance the running sum.
		history := deltas[k.investmentID]
		for next < len(history) && !history[next].date.After(k.date) {
			held += history[next].delta
			next++
		}

		if windowStart != nil && k.date.Before(*windowStart) {
			continue
		}
		if windowEnd != nil && k.date.After(*windowEnd) {
			continue
		}

		var price float64
		if p, ok := quotePrices[k]; ok {
			price = p
		} else if p, ok := txPrices[k]; ok {
			price = p
		} else if lastPrice != nil {
			price = *lastPrice
		} else {
			continue
		}

		developments = append(developments, domain.Development{
			InvestmentID: k.investmentID,
			Date:         k.date,
			Price:        price,
			Quantity:     held,
			Value:        held * price,
		})
		lastPrice = &price
	}

	c.log.Debug().
		Int("movements", len(movements)).
		Int("quotes", len(quotes)).
		Int("developments", len(developments)).
		Msg("Calculated developments")

	return developments, nil
}

// transactionPrices returns the mean |amount|/|quantity| per (investment, day)
func transactionPrices(movements []domain.Movement) map[dayKey]float64 {
	samples := make(map[dayKey][]float64)
	for _, m := range movements {
		if m.InvestmentID == nil || m.Date == nil || m.Amount == nil || m.Quantity == nil || *m.Quantity == 0 {
			continue
		}
		k := dayKey{investmentID: *m.InvestmentID, date: domain.Day(*m.Date)}
		samples[k] = append(samples[k], math.Abs(*m.Amount)/math.Abs(*m.Quantity))
	}

	prices := make(map[dayKey]float64, len(samples))
	for k, xs := range samples {
		prices[k] = stat.Mean(xs, nil)
	}
	return prices
}

// quantityDeltas returns per-investment Buy minus Sell quantity by day,
// sorted by date
func quantityDeltas(movements []domain.Movement) map[int64][]quantityDelta {
	byDay := make(map[dayKey]float64)
	for _, m := range movements {
		if m.InvestmentID == nil || m.Date == nil || m.Quantity == nil || m.ActionID == nil {
			continue
		}
		k := dayKey{investmentID: *m.InvestmentID, date: domain.Day(*m.Date)}
		switch *m.ActionID {
		case domain.ActionBuy:
			byDay[k] += *m.Quantity
		case domain.ActionSell:
			byDay[k] -= *m.Quantity
		}
	}

	deltas := make(map[int64][]quantityDelta)
	for k, d := range byDay {
		deltas[k.investmentID] = append(deltas[k.investmentID], quantityDelta{date: k.date, delta: d})
	}
	for id := range deltas {
		history := deltas[id]
		sort.Slice(history, func(i, j int) bool { return history[i].date.Before(history[j].date) })
	}
	return deltas
}
