package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	appbonds "bondscalc/internal/application/service/bonds"
	appcatalog "bondscalc/internal/application/service/catalog"
	"bondscalc/internal/config"
	"bondscalc/internal/domain/calculator"
	domain "bondscalc/internal/domain/entity/bonds"
	interfaces "bondscalc/internal/domain/interfaces"
	infrabonds "bondscalc/internal/infrastructure/bonds"
	"bondscalc/internal/infrastructure/moex"
	"bondscalc/internal/infrastructure/tinvest"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

type searchCmd struct {
	out    io.Writer
	logger *logrus.Logger
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search the bond catalog by name, ISIN or SECID" }
func (*searchCmd) Usage() string {
	return `bondcalc search <query>

  Searches the local catalog. The query must be at least 3 characters.
  Requires DATABASE_DSN.
`
}

func (*searchCmd) SetFlags(*flag.FlagSet) {}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search query is required.")
		return subcommands.ExitUsageError
	}
	query := strings.Join(f.Args(), " ")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	repo, err := infrabonds.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening catalog: %v\n", err)
		return subcommands.ExitFailure
	}
	defer repo.Close()

	formatter := calculator.NewFormatter(calculator.ParseLocale(cfg.Locale))
	svc := appbonds.NewService(repo, formatter, cfg.Search.Limit)
	items, err := svc.Search(ctx, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error searching bonds: %v\n", err)
		return subcommands.ExitFailure
	}
	printBonds(c.out, formatter, items)
	return subcommands.ExitSuccess
}

func printBonds(out io.Writer, formatter *calculator.Formatter, items []domain.Bond) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No bonds found.")
		return
	}
	for _, b := range items {
		fmt.Fprintf(out, "%-14s %-12s %s\n", b.SecID, b.ISIN, b.ShortName)

		maturity := "perpetual"
		if b.MatDate != nil {
			maturity = b.MatDate.Format(calculator.DisplayDateLayout)
		}
		price := calculator.Placeholder
		if b.PrevPrice != nil {
			price = formatter.Format(*b.PrevPrice)
		}
		yield := calculator.Placeholder
		if y, ok := b.CurrentYield(); ok {
			yield = formatter.Format(y) + "%"
		}
		fmt.Fprintf(out, "    maturity %s, price %s, current yield %s, par %s %s\n",
			maturity, price, yield, formatter.Format(b.FaceValue), b.CurrencySymbol())

		var flags []string
		if b.OfferDate != nil {
			flags = append(flags, "offer "+b.OfferDate.Format(calculator.DisplayDateLayout))
		}
		if b.AbovePar() {
			flags = append(flags, "price above par")
		}
		if b.HighRisk() {
			flags = append(flags, "third listing level")
		}
		if len(flags) > 0 {
			fmt.Fprintf(out, "    %s\n", strings.Join(flags, ", "))
		}
	}
}

type syncCmd struct {
	logger *logrus.Logger
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "reload the bond catalog from MOEX" }
func (*syncCmd) Usage() string {
	return `bondcalc sync

  Downloads traded bonds from MOEX ISS, applies last prices and replaces the
  local catalog. Uses T-Invest prices when INVEST_TOKEN is set.
`
}

func (*syncCmd) SetFlags(*flag.FlagSet) {}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	repo, err := infrabonds.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening catalog: %v\n", err)
		return subcommands.ExitFailure
	}
	defer repo.Close()
	if err := repo.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing schema: %v\n", err)
		return subcommands.ExitFailure
	}

	moexClient := moex.NewClient(cfg.Moex.BaseURL, cfg.Moex.Timeout, c.logger)
	prices := []interfaces.PriceSource{moexClient}
	if cfg.Invest.Enabled() {
		investPrices, err := tinvest.NewPriceSource(ctx, tinvest.Config{
			Token:         cfg.Invest.Token,
			Endpoint:      cfg.Invest.Endpoint,
			AppName:       cfg.Invest.AppName,
			SkipTLSVerify: cfg.Invest.SkipTLSVerify,
		}, c.logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to T-Invest: %v\n", err)
			return subcommands.ExitFailure
		}
		defer investPrices.Close()
		prices = append(prices, investPrices)
	}

	n, err := appcatalog.NewService(moexClient, repo, c.logger, prices...).Sync(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error syncing catalog: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Catalog updated: %d bonds.\n", n)
	return subcommands.ExitSuccess
}
