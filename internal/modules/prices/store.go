// Package prices stores the per-instrument quote series (investment_prices).
package prices

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/rs/zerolog"
)

// ManualSource is the source recorded for prices entered by hand
const ManualSource = "manual"

// Store provides access to stored quotes.
// Implements domain.QuoteStore.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a new quote store
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "quote_store").Logger(),
	}
}

// FindQuotes returns stored quotes ordered by (investment, date, id).
// investmentID, start and end are optional; the window is inclusive.
func (s *Store) FindQuotes(ctx context.Context, investmentID *int64, start, end *time.Time) ([]domain.InvestmentPrice, error) {
	var (
		where []string
		args  []interface{}
	)
	if investmentID != nil {
		where = append(where, "investment_id = ?")
		args = append(args, *investmentID)
	}
	if start != nil {
		where = append(where, "date >= ?")
		args = append(args, domain.FormatDay(domain.Day(*start)))
	}
	if end != nil {
		where = append(where, "date <= ?")
		args = append(args, domain.FormatDay(domain.Day(*end)))
	}

	query := "SELECT date, investment_id, price, source FROM investment_prices"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY investment_id, date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query quotes: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var quotes []domain.InvestmentPrice
	for rows.Next() {
		var (
			q    domain.InvestmentPrice
			date string
		)
		if err := rows.Scan(&date, &q.InvestmentID, &q.Price, &q.Source); err != nil {
			return nil, fmt.Errorf("%w: failed to scan quote: %w", domain.ErrStorage, err)
		}
		d, err := domain.ParseDay(date)
		if err != nil {
			return nil, fmt.Errorf("%w: quote for investment %d has malformed date %q", domain.ErrStorage, q.InvestmentID, date)
		}
		q.Date = d
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating quotes: %w", domain.ErrStorage, err)
	}

	return quotes, nil
}

// UpsertQuote inserts the quote or updates the price of the row with the
// same (date, investment, source)
func (s *Store) UpsertQuote(ctx context.Context, price domain.InvestmentPrice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO investment_prices (date, investment_id, price, source)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date, investment_id, source) DO UPDATE SET
			price = excluded.price
	`, domain.FormatDay(domain.Day(price.Date)), price.InvestmentID, price.Price, price.Source)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert quote for investment %d on %s: %w",
			domain.ErrStorage, price.InvestmentID, domain.FormatDay(price.Date), err)
	}
	return nil
}

// CreatePrice stores a manually entered price. An empty source is recorded
// as ManualSource; an existing row for the same key is updated.
func (s *Store) CreatePrice(ctx context.Context, price domain.InvestmentPrice) (domain.InvestmentPrice, error) {
	if price.Date.IsZero() {
		return price, fmt.Errorf("%w: price date is required", domain.ErrInvalidInput)
	}
	if price.InvestmentID <= 0 {
		return price, fmt.Errorf("%w: investment_id is required", domain.ErrInvalidInput)
	}
	if price.Source == "" {
		price.Source = ManualSource
	}
	price.Date = domain.Day(price.Date)

	if err := s.UpsertQuote(ctx, price); err != nil {
		return price, err
	}

	s.log.Debug().
		Int64("investment_id", price.InvestmentID).
		Str("date", domain.FormatDay(price.Date)).
		Str("source", price.Source).
		Msg("Price stored")
	return price, nil
}
