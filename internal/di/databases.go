package di

import (
	"fmt"

	"github.com/portfoliodb/portfoliodb/internal/config"
	"github.com/portfoliodb/portfoliodb/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens portfolio.db and applies migrations
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// portfolio.db - movements, investments, quotes, settings and the FX cache
	portfolioDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("portfolio"),
		Profile: database.ProfileLedger,
		Name:    "portfolio",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize portfolio database: %w", err)
	}

	if err := portfolioDB.Migrate(); err != nil {
		portfolioDB.Close()
		return nil, fmt.Errorf("failed to migrate portfolio database: %w", err)
	}
	container.PortfolioDB = portfolioDB

	log.Info().
		Str("path", portfolioDB.Path()).
		Str("profile", string(portfolioDB.Profile())).
		Msg("Database initialized")

	return container, nil
}
