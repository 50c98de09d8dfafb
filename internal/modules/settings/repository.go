// Package settings provides process-wide settings stored as key-value rows.
// Settings stored in the database take precedence over built-in defaults.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/rs/zerolog"
)

// Repository handles settings database operations.
// Implements domain.SettingsReader.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new settings repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "settings").Logger(),
	}
}

// Get retrieves a setting value by key.
// Returns nil if the setting doesn't exist (not an error).
func (r *Repository) Get(ctx context.Context, key string) (*string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get setting %s: %w", domain.ErrStorage, key, err)
	}
	return &value, nil
}

// Set inserts or updates a setting value
func (r *Repository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("%w: failed to set setting %s: %w", domain.ErrStorage, key, err)
	}
	return nil
}

// GetAll returns every known setting, with defaults filled in for unset keys
func (r *Repository) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get all settings: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	result := make(map[string]string, len(SettingDefaults))
	for k, v := range SettingDefaults {
		result[k] = v
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan setting row")
			continue
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating settings: %w", domain.ErrStorage, err)
	}

	return result, nil
}

// GetBaseCurrency returns the configured base currency, or
// domain.DefaultBaseCurrency when unset
func (r *Repository) GetBaseCurrency(ctx context.Context) (string, error) {
	value, err := r.Get(ctx, KeyBaseCurrency)
	if err != nil {
		return "", err
	}
	if value == nil || *value == "" {
		return string(domain.DefaultBaseCurrency), nil
	}
	return *value, nil
}

// SetBaseCurrency validates code as an ISO 4217 currency and stores it
func (r *Repository) SetBaseCurrency(ctx context.Context, code string) (string, error) {
	normalized, err := NormalizeCurrency(code)
	if err != nil {
		return "", err
	}
	if err := r.Set(ctx, KeyBaseCurrency, normalized); err != nil {
		return "", err
	}

	r.log.Info().Str("base_currency", normalized).Msg("Base currency updated")
	return normalized, nil
}

// NormalizeCurrency upper-cases code and checks it is a known ISO 4217 code
func NormalizeCurrency(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if len(normalized) != 3 || money.GetCurrency(normalized) == nil {
		return "", fmt.Errorf("%w: unknown currency code %q", domain.ErrInvalidInput, code)
	}
	return normalized, nil
}
