package di

import (
	"fmt"

	"github.com/portfoliodb/portfoliodb/internal/clients/exchangerate"
	"github.com/portfoliodb/portfoliodb/internal/clients/justetf"
	"github.com/portfoliodb/portfoliodb/internal/clients/yahoo"
	"github.com/portfoliodb/portfoliodb/internal/config"
	"github.com/portfoliodb/portfoliodb/internal/modules/developments"
	"github.com/portfoliodb/portfoliodb/internal/modules/quotes"
	"github.com/portfoliodb/portfoliodb/internal/services"
	"github.com/rs/zerolog"
)

// InitializeServices creates clients and services. Repositories must be
// initialized first.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.PriceStore == nil {
		return fmt.Errorf("container repositories not initialized")
	}

	p := cfg.Providers

	container.ExchangeRateClient = exchangerate.NewClient(p.FXBaseURL, p.HTTPTimeout, container.ClientDataRepo, log)
	container.CurrencyConverter = services.NewCurrencyConverter(container.ExchangeRateClient, log)

	container.YahooClient = yahoo.NewClient(p.HTTPTimeout, p.RequestsPerSecond, log)
	container.JustETFClient = justetf.NewClient(p.HTTPTimeout, p.RequestsPerSecond, log)
	container.ProviderRegistry = quotes.NewRegistry(container.YahooClient, container.JustETFClient)

	container.QuoteFetcher = quotes.NewFetcher(
		container.ProviderRegistry,
		container.InvestmentRepo,
		container.PriceStore,
		container.SettingsRepo,
		container.CurrencyConverter,
		cfg.QuoteSync.Concurrency,
		log,
	)
	container.DevelopmentCalculator = developments.NewCalculator(container.MovementRepo, container.PriceStore, log)

	log.Debug().Strs("providers", container.ProviderRegistry.IDs()).Msg("Services initialized")
	return nil
}
