// Package investments provides the instrument master records (name, ISIN,
// ticker, configured quote provider).
package investments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/rs/zerolog"
)

const investmentColumns = "id, name, isin, shortname, ticker_symbol, quote_provider"

// Repository handles investment persistence.
// Implements domain.InvestmentReader for the quote fetcher.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new investment repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "investments").Logger(),
	}
}

// FindAllInvestments returns every investment ordered by id
func (r *Repository) FindAllInvestments(ctx context.Context) ([]domain.Investment, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+investmentColumns+" FROM investments ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query investments: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var result []domain.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating investments: %w", domain.ErrStorage, err)
	}
	return result, nil
}

// FindInvestmentByID returns nil, nil when the investment does not exist
func (r *Repository) FindInvestmentByID(ctx context.Context, id int64) (*domain.Investment, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+investmentColumns+" FROM investments WHERE id = ?", id)
	inv, err := scanInvestment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// CreateInvestment inserts inv and returns it with its assigned id
func (r *Repository) CreateInvestment(ctx context.Context, inv domain.Investment) (*domain.Investment, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO investments (name, isin, shortname, ticker_symbol, quote_provider)
		VALUES (?, ?, ?, ?, ?)
	`, inv.Name, inv.ISIN, inv.ShortName, inv.TickerSymbol, inv.QuoteProvider)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert investment: %w", domain.ErrStorage, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read investment id: %w", domain.ErrStorage, err)
	}
	inv.ID = id

	r.log.Info().Int64("id", id).Str("name", inv.DisplayName()).Msg("Investment created")
	return &inv, nil
}

// UpdateInvestment replaces every column of the investment with inv.ID.
// Returns ErrNotFound when no such investment exists.
func (r *Repository) UpdateInvestment(ctx context.Context, inv domain.Investment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE investments
		SET name = ?, isin = ?, shortname = ?, ticker_symbol = ?, quote_provider = ?
		WHERE id = ?
	`, inv.Name, inv.ISIN, inv.ShortName, inv.TickerSymbol, inv.QuoteProvider, inv.ID)
	if err != nil {
		return fmt.Errorf("%w: failed to update investment %d: %w", domain.ErrStorage, inv.ID, err)
	}
	return requireAffected(res, inv.ID)
}

// DeleteInvestment removes the investment with id. Movements referencing it
// keep their rows with a NULL investment.
func (r *Repository) DeleteInvestment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM investments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete investment %d: %w", domain.ErrStorage, id, err)
	}
	return requireAffected(res, id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvestment(s scanner) (domain.Investment, error) {
	var (
		inv                                      domain.Investment
		name, isin, shortName, ticker, provider sql.NullString
	)

	if err := s.Scan(&inv.ID, &name, &isin, &shortName, &ticker, &provider); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return inv, err
		}
		return inv, fmt.Errorf("%w: failed to scan investment: %w", domain.ErrStorage, err)
	}

	inv.Name = nullableString(name)
	inv.ISIN = nullableString(isin)
	inv.ShortName = nullableString(shortName)
	inv.TickerSymbol = nullableString(ticker)
	inv.QuoteProvider = nullableString(provider)
	return inv, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to read affected rows: %w", domain.ErrStorage, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: investment %d", domain.ErrNotFound, id)
	}
	return nil
}
