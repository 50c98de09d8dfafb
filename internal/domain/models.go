// Package domain provides core domain models and types.
package domain

import "time"

// Currency represents a 3-letter ISO currency code
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"

	// DefaultBaseCurrency is used when no base currency has been configured
	DefaultBaseCurrency = CurrencyEUR
)

// Action codes referenced by Movement.ActionID
const (
	ActionBuy    int64 = 1
	ActionSell   int64 = 2
	ActionPayout int64 = 3
)

// ActionType is a named ledger action (Buy, Sell, Payout)
type ActionType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Movement is one ledger entry: a buy, sell or payout for an instrument.
// Amount is always a non-negative magnitude regardless of direction.
type Movement struct {
	ID           int64      `json:"id"`
	Date         *time.Time `json:"date"`
	ActionID     *int64     `json:"action_id"`
	InvestmentID *int64     `json:"investment_id"`
	Quantity     *float64   `json:"quantity"`
	Amount       *float64   `json:"amount"`
	Fee          *float64   `json:"fee"`
}

// Investment is the instrument master record
type Investment struct {
	ID            int64   `json:"id"`
	Name          *string `json:"name"`
	ISIN          *string `json:"isin"`
	ShortName     *string `json:"shortname"`
	TickerSymbol  *string `json:"ticker_symbol"`
	QuoteProvider *string `json:"quote_provider"`
}

// DisplayName returns the investment name, or "Unknown" when unset
func (i Investment) DisplayName() string {
	if i.Name == nil || *i.Name == "" {
		return "Unknown"
	}
	return *i.Name
}

// InvestmentPrice is one observed quote. At most one row exists per
// (Date, InvestmentID, Source).
type InvestmentPrice struct {
	Date         time.Time `json:"date"`
	InvestmentID int64     `json:"investment_id"`
	Price        float64   `json:"price"`
	Source       string    `json:"source"`
}

// Development is a computed valuation point. It is never persisted.
type Development struct {
	InvestmentID int64     `json:"investment"`
	Date         time.Time `json:"date"`
	Price        float64   `json:"price"`
	Quantity     float64   `json:"quantity"`
	Value        float64   `json:"value"`
}

// QuoteData is a raw quote returned by a provider, before currency conversion
type QuoteData struct {
	Ticker   string    `json:"ticker"`
	Date     time.Time `json:"date"`
	Price    float64   `json:"price"`
	Currency string    `json:"currency"`
	Source   string    `json:"source"`
}
