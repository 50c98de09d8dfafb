package di

import (
	"fmt"

	"github.com/portfoliodb/portfoliodb/internal/clientdata"
	"github.com/portfoliodb/portfoliodb/internal/modules/investments"
	"github.com/portfoliodb/portfoliodb/internal/modules/ledger"
	"github.com/portfoliodb/portfoliodb/internal/modules/prices"
	"github.com/portfoliodb/portfoliodb/internal/modules/settings"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories over the container's databases
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.PortfolioDB == nil {
		return fmt.Errorf("container databases not initialized")
	}

	conn := container.PortfolioDB.Conn()
	container.MovementRepo = ledger.NewMovementRepository(conn, log)
	container.InvestmentRepo = investments.NewRepository(conn, log)
	container.PriceStore = prices.NewStore(conn, log)
	container.SettingsRepo = settings.NewRepository(conn, log)
	container.ClientDataRepo = clientdata.NewRepository(conn)

	log.Debug().Msg("Repositories initialized")
	return nil
}
