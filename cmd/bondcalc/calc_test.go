package main

import (
	"bytes"
	"context"
	"flag"
	"testing"
	"time"

	"bondscalc/internal/domain/calculator"
	domain "bondscalc/internal/domain/entity/bonds"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCalc(t *testing.T, args ...string) (subcommands.ExitStatus, string) {
	t.Helper()
	var out bytes.Buffer
	cmd := &calcCmd{out: &out}
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cmd.Execute(context.Background(), fs), out.String()
}

func TestCalcCmd(t *testing.T) {
	status, out := runCalc(t,
		"-commission", "1", "-tax", "10", "-coupon", "8", "-par", "1000",
		"-buy-date", "2023-01-01", "-buy-price", "95",
		"-sell-date", "2023-07-01", "-sell-price", "98", "-sell-type", "maturity")

	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Equal(t, "profitability: 11.35\ncurrent yield: 7.58\nincome:        54.02\ndays:          181\n", out)
}

func TestCalcCmd_MissingDates(t *testing.T) {
	status, out := runCalc(t, "-coupon", "8")
	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "profitability: -\n")
	assert.Contains(t, out, "days:          -\n")
}

func TestCalcCmd_PositionalArgs(t *testing.T) {
	status, _ := runCalc(t, "extra")
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestPrintBonds(t *testing.T) {
	mat := time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)
	offer := time.Date(2027, 1, 14, 0, 0, 0, 0, time.UTC)
	coupon, price := 12.0, 101.0
	var out bytes.Buffer

	printBonds(&out, calculator.NewFormatter(calculator.ParseLocale("en")), []domain.Bond{{
		SecID:         "RU000A107RZ0",
		ISIN:          "RU000A107RZ0",
		ShortName:     "Сегежа 3Р2",
		MatDate:       &mat,
		OfferDate:     &offer,
		CouponPercent: &coupon,
		PrevPrice:     &price,
		FaceValue:     1000,
		FaceUnit:      "SUR",
		ListLevel:     3,
	}})

	assert.Contains(t, out.String(), "maturity 10.01.2030, price 101, current yield 11.88%, par 1,000 ₽")
	assert.Contains(t, out.String(), "offer 14.01.2027, price above par, third listing level")

	out.Reset()
	printBonds(&out, calculator.NewFormatter(calculator.ParseLocale("en")), nil)
	assert.Equal(t, "No bonds found.\n", out.String())
}
