// Package di provides dependency injection type definitions.
package di

import (
	"github.com/portfoliodb/portfoliodb/internal/clientdata"
	"github.com/portfoliodb/portfoliodb/internal/clients/exchangerate"
	"github.com/portfoliodb/portfoliodb/internal/clients/justetf"
	"github.com/portfoliodb/portfoliodb/internal/clients/yahoo"
	"github.com/portfoliodb/portfoliodb/internal/database"
	"github.com/portfoliodb/portfoliodb/internal/modules/developments"
	"github.com/portfoliodb/portfoliodb/internal/modules/investments"
	"github.com/portfoliodb/portfoliodb/internal/modules/ledger"
	"github.com/portfoliodb/portfoliodb/internal/modules/prices"
	"github.com/portfoliodb/portfoliodb/internal/modules/quotes"
	"github.com/portfoliodb/portfoliodb/internal/modules/settings"
	"github.com/portfoliodb/portfoliodb/internal/scheduler"
	"github.com/portfoliodb/portfoliodb/internal/services"
)

// Container holds all dependencies for the application.
// It is created by Wire() and passed to the server and CLI.
type Container struct {
	// Databases
	PortfolioDB *database.DB

	// Repositories
	MovementRepo   *ledger.MovementRepository
	InvestmentRepo *investments.Repository
	PriceStore     *prices.Store
	SettingsRepo   *settings.Repository
	ClientDataRepo *clientdata.Repository

	// Clients
	ExchangeRateClient *exchangerate.Client
	YahooClient        *yahoo.Client
	JustETFClient      *justetf.Client

	// Services
	CurrencyConverter     *services.CurrencyConverter
	ProviderRegistry      *quotes.Registry
	QuoteFetcher          *quotes.Fetcher
	DevelopmentCalculator *developments.Calculator
}

// JobInstances holds the background jobs for scheduling and manual triggering
type JobInstances struct {
	QuoteSync         scheduler.Job
	ClientDataCleanup scheduler.Job
	WALCheckpoint     scheduler.Job
}

// All returns every job instance
func (j *JobInstances) All() []scheduler.Job {
	return []scheduler.Job{j.QuoteSync, j.ClientDataCleanup, j.WALCheckpoint}
}

// Close releases the container's databases
func (c *Container) Close() error {
	if c.PortfolioDB == nil {
		return nil
	}
	return c.PortfolioDB.Close()
}
