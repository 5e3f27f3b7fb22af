package calculator

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Placeholder is rendered instead of values that are not numbers.
const Placeholder = "-"

const maxFractionDigits = 3

// Formatter renders numbers for display in a given locale.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

// ParseLocale parses a BCP 47 tag, falling back to English.
func ParseLocale(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return language.English
	}
	return tag
}

func (f *Formatter) Locale() language.Tag { return f.tag }

// Format returns v with locale grouping and up to three fraction digits.
// NaN and infinities render as Placeholder.
func (f *Formatter) Format(v float64) string {
	if !isFinite(v) {
		return Placeholder
	}
	return f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(maxFractionDigits)))
}

// FormatMetrics rounds m and renders it in the fixed order
// profitability, current yield, income, days.
func (f *Formatter) FormatMetrics(m Metrics) [4]string {
	r := m.Rounded()
	return [4]string{
		f.Format(r.Profitability),
		f.Format(r.CurrentYield),
		f.Format(r.Income),
		f.Format(r.Days),
	}
}

var defaultFormatter = NewFormatter(language.English)

// FormatNumber formats v with the default (English) locale.
func FormatNumber(v float64) string {
	return defaultFormatter.Format(v)
}

// Round2 rounds v half away from zero to two decimal places.
// Non-finite values are returned unchanged.
func Round2(v float64) float64 {
	if !isFinite(v) {
		return v
	}
	r, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return r
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
