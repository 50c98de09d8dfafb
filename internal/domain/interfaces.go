package domain

import (
	"context"
	"time"
)

// MovementReader provides read access to the movement ledger.
// Implemented by ledger.MovementRepository.
type MovementReader interface {
	// FindAllMovements returns the entire ledger. Fails with ErrStorage.
	FindAllMovements(ctx context.Context) ([]Movement, error)
}

// QuoteReader provides read access to stored quotes
type QuoteReader interface {
	// FindQuotes returns stored quotes, optionally restricted to one
	// investment and to the inclusive [start, end] day window.
	FindQuotes(ctx context.Context, investmentID *int64, start, end *time.Time) ([]InvestmentPrice, error)
}

// QuoteWriter persists quotes keyed by (date, investment, source)
type QuoteWriter interface {
	// UpsertQuote inserts the quote or updates the price of the existing
	// row with the same (date, investment, source).
	UpsertQuote(ctx context.Context, price InvestmentPrice) error
}

// QuoteStore combines quote reads and upserts
type QuoteStore interface {
	QuoteReader
	QuoteWriter
}

// InvestmentReader provides read access to instrument master records
type InvestmentReader interface {
	FindAllInvestments(ctx context.Context) ([]Investment, error)

	// FindInvestmentByID returns nil, nil when the investment does not exist
	FindInvestmentByID(ctx context.Context, id int64) (*Investment, error)
}

// SettingsReader exposes process-wide settings
type SettingsReader interface {
	// GetBaseCurrency returns the configured base currency, or
	// DefaultBaseCurrency when unset
	GetBaseCurrency(ctx context.Context) (string, error)
}

// QuoteProvider is a pluggable external source of market quotes
type QuoteProvider interface {
	// GetQuote returns the quote for ticker on date, or the latest quote when
	// date is nil. Returns nil, nil when no matching quote exists.
	GetQuote(ctx context.Context, ticker string, date *time.Time) (*QuoteData, error)

	// GetQuotes returns every quote the provider has for ticker (may be empty)
	GetQuotes(ctx context.Context, ticker string) ([]QuoteData, error)

	// Name returns the provider identifier stored as the quote source
	Name() string
}

// CurrencyConverterInterface converts amounts between currencies on a date.
// ok is false when no rate exists for that pair/date; err wraps
// ErrCurrencyConversion on hard failures.
type CurrencyConverterInterface interface {
	Convert(ctx context.Context, amount float64, from, to string, date time.Time) (value float64, ok bool, err error)
}
