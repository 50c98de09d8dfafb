package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/portfoliodb/portfoliodb/internal/config"
	"github.com/portfoliodb/portfoliodb/internal/di"
	"github.com/portfoliodb/portfoliodb/internal/domain"
	"github.com/portfoliodb/portfoliodb/internal/modules/developments/handlers"
	"github.com/portfoliodb/portfoliodb/internal/modules/quotes"
	"github.com/portfoliodb/portfoliodb/internal/utils"
	"github.com/portfoliodb/portfoliodb/pkg/logger"
)

func commands(out io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&fetchQuotesCmd{out: out},
		&developmentsCmd{out: out},
		&providersCmd{out: out},
	}
}

// withContainer loads the configuration, wires the container and runs fn.
// Logs go to stderr so stdout stays machine readable.
func withContainer(fn func(*di.Container, zerolog.Logger) error) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr})

	container, _, err := di.Wire(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	if err := fn(container, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type fetchQuotesCmd struct {
	out io.Writer
	ids string
}

func (*fetchQuotesCmd) Name() string     { return "fetch-quotes" }
func (*fetchQuotesCmd) Synopsis() string { return "fetch quotes from the configured providers" }
func (*fetchQuotesCmd) Usage() string {
	return `portfoliodb fetch-quotes [-ids 1,2,3]

  Fetches quote history for the given investments, or for every investment
  with a quote provider when -ids is omitted. Prints one result per investment.
`
}

func (c *fetchQuotesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ids, "ids", "", "comma-separated investment ids (defaults to all configured)")
}

func (c *fetchQuotesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ids, err := utils.ParseIDs(c.ids)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	return withContainer(func(container *di.Container, log zerolog.Logger) error {
		runID := uuid.NewString()
		results, err := container.QuoteFetcher.FetchQuotes(quotes.WithRunID(ctx, runID), ids)
		if results == nil && err != nil {
			return err
		}
		if err != nil {
			log.Error().Err(err).Str("run_id", runID).Msg("Some quote fetches failed")
		}

		return printJSON(c.out, struct {
			RunID   string                    `json:"run_id"`
			Results []quotes.QuoteFetchResult `json:"results"`
			quotes.Summary
		}{runID, results, quotes.Summarize(results)})
	})
}

type developmentsCmd struct {
	out   io.Writer
	start string
	end   string
}

func (*developmentsCmd) Name() string     { return "developments" }
func (*developmentsCmd) Synopsis() string { return "print the daily value of every holding" }
func (*developmentsCmd) Usage() string {
	return `portfoliodb developments [-start YYYY-MM-DD] [-end YYYY-MM-DD]

  Prints price, quantity and value per investment per day, restricted to the
  inclusive date window when given.
`
}

func (c *developmentsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "first day of the window")
	f.StringVar(&c.end, "end", "", "last day of the window")
}

func (c *developmentsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, err := parseOptionalDay(c.start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	end, err := parseOptionalDay(c.end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	return withContainer(func(container *di.Container, _ zerolog.Logger) error {
		devs, err := container.DevelopmentCalculator.CalculateDevelopments(ctx, start, end)
		if err != nil {
			return err
		}

		payload := make([]handlers.DevelopmentPayload, 0, len(devs))
		for _, d := range devs {
			payload = append(payload, handlers.DevelopmentPayload{
				Investment: d.InvestmentID,
				Date:       domain.FormatDay(d.Date),
				Price:      d.Price,
				Quantity:   d.Quantity,
				Value:      d.Value,
			})
		}
		return printJSON(c.out, payload)
	})
}

func parseOptionalDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := domain.ParseDay(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type providersCmd struct {
	out io.Writer
}

func (*providersCmd) Name() string     { return "providers" }
func (*providersCmd) Synopsis() string { return "list the registered quote providers" }
func (*providersCmd) Usage() string {
	return `portfoliodb providers

  Lists the provider ids that investments can reference.
`
}

func (*providersCmd) SetFlags(*flag.FlagSet) {}

func (c *providersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withContainer(func(container *di.Container, _ zerolog.Logger) error {
		for _, p := range container.QuoteFetcher.AvailableProviders() {
			fmt.Fprintln(c.out, p.ID)
		}
		return nil
	})
}
