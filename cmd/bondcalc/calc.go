package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"bondscalc/internal/domain/calculator"

	"github.com/google/subcommands"
)

type calcCmd struct {
	out io.Writer

	commission float64
	tax        float64
	coupon     float64
	parValue   float64
	buyDate    string
	buyPrice   float64
	sellDate   string
	sellPrice  float64
	sellType   string
	locale     string
}

func (*calcCmd) Name() string { return "calc" }
func (*calcCmd) Synopsis() string {
	return "compute bond trade profitability, current yield, income and days"
}
func (*calcCmd) Usage() string {
	return `bondcalc calc -buy-date YYYY-MM-DD -buy-price P -sell-date YYYY-MM-DD [flags]

  Prints profitability, current yield, net income and holding days, one per
  line. Rates and prices are in percent. Values that cannot be computed are
  printed as "-".
`
}

func (c *calcCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.commission, "commission", 0.05, "broker commission per trade, %")
	f.Float64Var(&c.tax, "tax", 13, "income tax, %")
	f.Float64Var(&c.coupon, "coupon", 0, "annual coupon rate, %")
	f.Float64Var(&c.parValue, "par", 1000, "par value")
	f.StringVar(&c.buyDate, "buy-date", "", "purchase date")
	f.Float64Var(&c.buyPrice, "buy-price", 100, "purchase price, % of par")
	f.StringVar(&c.sellDate, "sell-date", "", "sale or redemption date")
	f.Float64Var(&c.sellPrice, "sell-price", 100, "sale price, % of par")
	f.StringVar(&c.sellType, "sell-type", "sell", "offer, maturity or sell")
	f.StringVar(&c.locale, "locale", "en", "BCP 47 locale for number formatting")
}

func (c *calcCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "Error: calc takes no positional arguments.")
		return subcommands.ExitUsageError
	}
	out := c.out
	if out == nil {
		out = os.Stdout
	}

	params := calculator.Params{
		Commission:   c.commission,
		Tax:          c.tax,
		Coupon:       c.coupon,
		ParValue:     c.parValue,
		BuyDate:      c.buyDate,
		BuyPrice:     c.buyPrice,
		SellDate:     c.sellDate,
		SellPrice:    c.sellPrice,
		TillMaturity: c.sellType == calculator.MaturityMode,
	}
	formatter := calculator.NewFormatter(calculator.ParseLocale(c.locale))
	result := formatter.FormatMetrics(calculator.Compute(params))

	fmt.Fprintf(out, "profitability: %s\n", result[0])
	fmt.Fprintf(out, "current yield: %s\n", result[1])
	fmt.Fprintf(out, "income:        %s\n", result[2])
	fmt.Fprintf(out, "days:          %s\n", result[3])
	return subcommands.ExitSuccess
}
