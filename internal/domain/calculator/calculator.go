// Package calculator computes holding-period metrics of a bond trade:
// annualised profitability, current yield, net income and holding days.
//
// The formulas follow the broker spreadsheet the calculator replaced, including
// its capital basis, which mixes the buy leg with round-trip commission.
// Invalid inputs are not rejected: they propagate as NaN and render as "-".
package calculator

import "math"

// MaturityMode is the sell mode meaning the bond is held until redemption.
const MaturityMode = "maturity"

const daysInYear = 365

// Params holds calculator inputs as the user types them: rates and prices in
// percent, dates as strings.
type Params struct {
	Commission   float64 // broker fee per trade, %
	Tax          float64 // income tax, %
	Coupon       float64 // annual coupon rate, %
	ParValue     float64
	BuyDate      string
	BuyPrice     float64 // % of par
	SellDate     string
	SellPrice    float64 // % of par
	TillMaturity bool
}

// Metrics are the raw, unrounded results. Any of them may be NaN.
type Metrics struct {
	Profitability float64 // annualised, %
	CurrentYield  float64 // %, net of tax
	Income        float64 // currency units, net of tax and commission
	Days          float64
}

// Rounded returns m with money and rates rounded to two decimals.
func (m Metrics) Rounded() Metrics {
	return Metrics{
		Profitability: Round2(m.Profitability),
		CurrentYield:  Round2(m.CurrentYield),
		Income:        Round2(m.Income),
		Days:          m.Days,
	}
}

// EffectiveCommission is the commission rate (fraction) charged per leg.
// Held to maturity there is no sell trade, so the round-trip fee is halved.
func EffectiveCommission(commission float64, tillMaturity bool) float64 {
	if tillMaturity {
		return commission / 2
	}
	return commission
}

// Compute evaluates the metrics for p.
func Compute(p Params) Metrics {
	commission := p.Commission / 100
	tax := p.Tax / 100
	coupon := p.Coupon / 100
	buy := p.BuyPrice / 100
	sell := p.SellPrice / 100
	par := p.ParValue

	days := DaysBetweenStrings(p.BuyDate, p.SellDate)
	fee := EffectiveCommission(commission, p.TillMaturity)

	spread := sell*par - buy*par
	accrued := par * coupon / daysInYear * days
	commissionCost := (sell*par + buy*par) * fee
	income := (spread + accrued - commissionCost) * (1 - tax)

	profitability := math.NaN()
	if days != 0 {
		basis := buy*par + (sell+buy)*par*fee
		profitability = (income * daysInYear / days) / basis * 100
	}

	currentYield := coupon / buy * 100 * (1 - tax)

	return Metrics{
		Profitability: profitability,
		CurrentYield:  currentYield,
		Income:        income,
		Days:          days,
	}
}

// Calculate is the positional form used by the UI layer. sellMode equal to
// MaturityMode marks a position held to maturity. The result is ordered as
// profitability, current yield, income, days.
func Calculate(
	commission, tax, coupon, parValue float64,
	buyDate string,
	buyPrice float64,
	sellDate string,
	sellPrice float64,
	sellMode string,
) [4]string {
	m := Compute(Params{
		Commission:   commission,
		Tax:          tax,
		Coupon:       coupon,
		ParValue:     parValue,
		BuyDate:      buyDate,
		BuyPrice:     buyPrice,
		SellDate:     sellDate,
		SellPrice:    sellPrice,
		TillMaturity: sellMode == MaturityMode,
	})
	return defaultFormatter.FormatMetrics(m)
}
