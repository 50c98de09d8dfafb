package testing

import (
	"time"

	"github.com/portfoliodb/portfoliodb/internal/domain"
)

// Ptr returns a pointer to v. Handy for the nullable model fields.
func Ptr[T any](v T) *T {
	return &v
}

// Date returns the calendar day y-m-d at 00:00 UTC
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewMovement builds a ledger entry for investmentID on date
func NewMovement(id, actionID, investmentID int64, date time.Time, quantity, amount float64) domain.Movement {
	return domain.Movement{
		ID:           id,
		Date:         Ptr(date),
		ActionID:     Ptr(actionID),
		InvestmentID: Ptr(investmentID),
		Quantity:     Ptr(quantity),
		Amount:       Ptr(amount),
		Fee:          Ptr(0.0),
	}
}

// NewQuote builds a stored quote
func NewQuote(investmentID int64, date time.Time, price float64, source string) domain.InvestmentPrice {
	return domain.InvestmentPrice{
		Date:         date,
		InvestmentID: investmentID,
		Price:        price,
		Source:       source,
	}
}

// NewInvestmentFixtures returns a set of test investments for use in tests
func NewInvestmentFixtures() []domain.Investment {
	return []domain.Investment{
		{
			ID:            1,
			Name:          Ptr("Vanguard FTSE All-World UCITS ETF"),
			ISIN:          Ptr("IE00B3RBWM25"),
			ShortName:     Ptr("VWRL"),
			TickerSymbol:  Ptr("VWRL.AS"),
			QuoteProvider: Ptr("yahoo"),
		},
		{
			ID:            2,
			Name:          Ptr("iShares Core MSCI World UCITS ETF"),
			ISIN:          Ptr("IE00B4L5Y983"),
			ShortName:     Ptr("EUNL"),
			QuoteProvider: Ptr("justetf"),
		},
		{
			ID:        3,
			Name:      Ptr("Apple Inc."),
			ISIN:      Ptr("US0378331005"),
			ShortName: Ptr("AAPL"),
		},
	}
}
