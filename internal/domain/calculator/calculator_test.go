package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleParams() Params {
	return Params{
		Commission: 1,
		Tax:        10,
		Coupon:     8,
		ParValue:   1000,
		BuyDate:    "2023-01-01",
		BuyPrice:   95,
		SellDate:   "2023-07-01",
		SellPrice:  98,
	}
}

// expected evaluates the formulas directly on fractions.
func expected(fee float64) Metrics {
	const (
		tax    = 0.10
		coupon = 0.08
		par    = 1000.0
		buy    = 0.95
		sell   = 0.98
		days   = 181.0
	)
	income := ((sell*par - buy*par) + par*coupon/365*days - (sell*par+buy*par)*fee) * (1 - tax)
	return Metrics{
		Profitability: (income * 365 / days) / (buy*par + (sell+buy)*par*fee) * 100,
		CurrentYield:  coupon / buy * 100 * (1 - tax),
		Income:        income,
		Days:          days,
	}
}

func TestCompute_Sale(t *testing.T) {
	got := Compute(sampleParams())
	want := expected(0.01)

	require.Equal(t, 181.0, got.Days)
	assert.InDelta(t, want.Income, got.Income, 1e-9)
	assert.InDelta(t, want.Profitability, got.Profitability, 1e-9)
	assert.InDelta(t, want.CurrentYield, got.CurrentYield, 1e-9)
}

func TestCompute_TillMaturityHalvesCommission(t *testing.T) {
	p := sampleParams()
	p.TillMaturity = true
	got := Compute(p)
	want := expected(0.005)

	assert.InDelta(t, want.Income, got.Income, 1e-9)
	assert.InDelta(t, want.Profitability, got.Profitability, 1e-9)

	sale := Compute(sampleParams())
	assert.Equal(t, sale.CurrentYield, got.CurrentYield)
	assert.Greater(t, got.Income, sale.Income)
	assert.Greater(t, got.Profitability, sale.Profitability)
}

func TestCompute_SameDay(t *testing.T) {
	p := sampleParams()
	p.SellDate = p.BuyDate
	got := Compute(p)

	assert.Equal(t, 0.0, got.Days)
	assert.True(t, math.IsNaN(got.Profitability))
	assert.False(t, math.IsNaN(got.Income))
}

func TestCompute_BadDatePropagatesNaN(t *testing.T) {
	p := sampleParams()
	p.SellDate = "not a date"
	got := Compute(p)

	assert.True(t, math.IsNaN(got.Days))
	assert.True(t, math.IsNaN(got.Income))
	assert.True(t, math.IsNaN(got.Profitability))
	assert.False(t, math.IsNaN(got.CurrentYield))
}

func TestCompute_ZeroBuyPrice(t *testing.T) {
	p := sampleParams()
	p.BuyPrice = 0
	got := Compute(p)
	assert.True(t, math.IsInf(got.CurrentYield, 1))
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name string
		mode string
		want [4]string
	}{
		{name: "sell", mode: "sell", want: [4]string{"9.43", "7.58", "45.33", "181"}},
		{name: "offer", mode: "offer", want: [4]string{"9.43", "7.58", "45.33", "181"}},
		{name: "maturity", mode: MaturityMode, want: [4]string{"11.35", "7.58", "54.02", "181"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(1, 10, 8, 1000, "2023-01-01", 95, "2023-07-01", 98, tt.mode)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculate_SameDayProfitabilityPlaceholder(t *testing.T) {
	got := Calculate(1, 10, 8, 1000, "2023-01-01", 95, "2023-01-01", 98, "sell")
	assert.Equal(t, Placeholder, got[0])
	assert.Equal(t, "0", got[3])
}

func TestCalculate_Idempotent(t *testing.T) {
	first := Calculate(0.05, 13, 12.5, 1000, "2024-03-15", 99.1, "2026-09-30", 100, MaturityMode)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, Calculate(0.05, 13, 12.5, 1000, "2024-03-15", 99.1, "2026-09-30", 100, MaturityMode))
	}
}

func TestEffectiveCommission(t *testing.T) {
	assert.Equal(t, 0.01, EffectiveCommission(0.01, false))
	assert.Equal(t, 0.005, EffectiveCommission(0.01, true))
}

func TestMetricsRounded(t *testing.T) {
	m := Metrics{Profitability: 9.4315, CurrentYield: 7.578947, Income: -45.335, Days: 181}
	r := m.Rounded()
	assert.Equal(t, 9.43, r.Profitability)
	assert.Equal(t, 7.58, r.CurrentYield)
	assert.Equal(t, -45.34, r.Income)
	assert.Equal(t, 181.0, r.Days)

	nan := Metrics{Profitability: math.NaN()}.Rounded()
	assert.True(t, math.IsNaN(nan.Profitability))
}
