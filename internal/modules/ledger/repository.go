// Package ledger provides the movement ledger: buy, sell and payout entries
// per investment, stored in the movements table.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/rs/zerolog"
)

const movementColumns = "id, date, action_id, investment_id, quantity, amount, fee"

// MovementRepository handles movement persistence.
// Implements domain.MovementReader for the development calculator.
type MovementRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *sql.DB, log zerolog.Logger) *MovementRepository {
	return &MovementRepository{
		db:  db,
		log: log.With().Str("repository", "movements").Logger(),
	}
}

// FindAllMovements returns the entire ledger ordered by date then id
func (r *MovementRepository) FindAllMovements(ctx context.Context) ([]domain.Movement, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+movementColumns+" FROM movements ORDER BY date, id")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query movements: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var movements []domain.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating movements: %w", domain.ErrStorage, err)
	}

	return movements, nil
}

// FindMovementByID returns nil, nil when the movement does not exist
func (r *MovementRepository) FindMovementByID(ctx context.Context, id int64) (*domain.Movement, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+movementColumns+" FROM movements WHERE id = ?", id)
	m, err := scanMovement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMovement inserts m and returns it with its assigned id
func (r *MovementRepository) CreateMovement(ctx context.Context, m domain.Movement) (*domain.Movement, error) {
	if err := validateMovement(m); err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO movements (date, action_id, investment_id, quantity, amount, fee)
		VALUES (?, ?, ?, ?, ?, ?)
	`, nullDate(m.Date), m.ActionID, m.InvestmentID, m.Quantity, m.Amount, m.Fee)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert movement: %w", domain.ErrStorage, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read movement id: %w", domain.ErrStorage, err)
	}
	m.ID = id
	if m.Date != nil {
		d := domain.Day(*m.Date)
		m.Date = &d
	}

	r.log.Debug().Int64("id", id).Msg("Movement created")
	return &m, nil
}

// UpdateMovement replaces every column of the movement with m.ID.
// Returns ErrNotFound when no such movement exists.
func (r *MovementRepository) UpdateMovement(ctx context.Context, m domain.Movement) error {
	if err := validateMovement(m); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE movements
		SET date = ?, action_id = ?, investment_id = ?, quantity = ?, amount = ?, fee = ?
		WHERE id = ?
	`, nullDate(m.Date), m.ActionID, m.InvestmentID, m.Quantity, m.Amount, m.Fee, m.ID)
	if err != nil {
		return fmt.Errorf("%w: failed to update movement %d: %w", domain.ErrStorage, m.ID, err)
	}
	return requireAffected(res, "movement", m.ID)
}

// DeleteMovement removes the movement with id.
// Returns ErrNotFound when no such movement exists.
func (r *MovementRepository) DeleteMovement(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movements WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete movement %d: %w", domain.ErrStorage, id, err)
	}
	return requireAffected(res, "movement", id)
}

// FindAllActionTypes returns the seeded action types (Buy, Sell, Payout)
func (r *MovementRepository) FindAllActionTypes(ctx context.Context) ([]domain.ActionType, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM action_types ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query action types: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var types []domain.ActionType
	for rows.Next() {
		var at domain.ActionType
		if err := rows.Scan(&at.ID, &at.Name); err != nil {
			return nil, fmt.Errorf("%w: failed to scan action type: %w", domain.ErrStorage, err)
		}
		types = append(types, at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating action types: %w", domain.ErrStorage, err)
	}
	return types, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMovement(s scanner) (domain.Movement, error) {
	var (
		m            domain.Movement
		date         sql.NullString
		actionID     sql.NullInt64
		investmentID sql.NullInt64
		quantity     sql.NullFloat64
		amount       sql.NullFloat64
		fee          sql.NullFloat64
	)

	if err := s.Scan(&m.ID, &date, &actionID, &investmentID, &quantity, &amount, &fee); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m, err
		}
		return m, fmt.Errorf("%w: failed to scan movement: %w", domain.ErrStorage, err)
	}

	if date.Valid && date.String != "" {
		d, err := domain.ParseDay(date.String)
		if err != nil {
			return m, fmt.Errorf("%w: movement %d has malformed date %q", domain.ErrStorage, m.ID, date.String)
		}
		m.Date = &d
	}
	if actionID.Valid {
		m.ActionID = &actionID.Int64
	}
	if investmentID.Valid {
		m.InvestmentID = &investmentID.Int64
	}
	if quantity.Valid {
		m.Quantity = &quantity.Float64
	}
	if amount.Valid {
		m.Amount = &amount.Float64
	}
	if fee.Valid {
		m.Fee = &fee.Float64
	}
	return m, nil
}

func validateMovement(m domain.Movement) error {
	if m.ActionID != nil {
		switch *m.ActionID {
		case domain.ActionBuy, domain.ActionSell, domain.ActionPayout:
		default:
			return fmt.Errorf("%w: unknown action id %d", domain.ErrInvalidInput, *m.ActionID)
		}
	}
	if m.Amount != nil && *m.Amount < 0 {
		return fmt.Errorf("%w: amount must be non-negative", domain.ErrInvalidInput)
	}
	return nil
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return domain.FormatDay(domain.Day(*t))
}

func requireAffected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to read affected rows: %w", domain.ErrStorage, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", domain.ErrNotFound, what, id)
	}
	return nil
}
