package bonds

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by catalog lookups for an unknown SECID.
var ErrNotFound = errors.New("bond not found")

// MinListLevelHighRisk is the MOEX listing level from which a bond is
// considered high risk (third-level quotation list).
const MinListLevelHighRisk = 3

// Bond is a MOEX-listed bond as kept in the local catalog.
type Bond struct {
	UID             uuid.UUID  `json:"uid"`
	ShortName       string     `json:"shortname"`
	SecID           string     `json:"secid"`
	ISIN            string     `json:"isin"`
	MatDate         *time.Time `json:"mat_date,omitempty"`
	CouponPercent   *float64   `json:"coupon_percent,omitempty"`
	ListLevel       int32      `json:"list_level"`
	CouponValue     *float64   `json:"coupon_value,omitempty"`
	CouponDate      time.Time  `json:"coupon_date"`
	AccruedInterest float64    `json:"accrued_interest"`
	CurrencyID      string     `json:"currency_id"`
	FaceUnit        string     `json:"face_unit"`
	FaceValue       float64    `json:"face_value"`
	CouponPeriod    int32      `json:"coupon_period"`
	IssueSize       int64      `json:"issue_size"`
	OfferDate       *time.Time `json:"offer_date,omitempty"`
	PrevPrice       *float64   `json:"prev_price,omitempty"`
	RegNumber       *string    `json:"reg_number,omitempty"`
}

// StableUID derives the catalog uid of a bond from its SECID.
func StableUID(secID string) uuid.UUID {
	key := strings.ToUpper(strings.TrimSpace(secID))
	if key == "" {
		return uuid.Nil
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("bond:"+key))
}

// CurrentYield is coupon rate over last price, in percent, rounded to two
// decimals. ok is false when either value is unknown or the price is zero.
func (b Bond) CurrentYield() (value float64, ok bool) {
	if b.CouponPercent == nil || b.PrevPrice == nil || *b.PrevPrice == 0 {
		return 0, false
	}
	v, _ := decimal.NewFromFloat(*b.CouponPercent).
		Div(decimal.NewFromFloat(*b.PrevPrice)).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		Float64()
	return v, true
}

// IsPerpetual reports a bond without a maturity date.
func (b Bond) IsPerpetual() bool { return b.MatDate == nil }

// AbovePar reports a last price above 100% of face value.
func (b Bond) AbovePar() bool { return b.PrevPrice != nil && *b.PrevPrice > 100 }

func (b Bond) HighRisk() bool { return b.ListLevel >= MinListLevelHighRisk }

// CurrencySymbol returns a display symbol for the face value currency.
func (b Bond) CurrencySymbol() string {
	return CurrencySymbol(b.FaceUnit)
}

// CurrencySymbol maps a MOEX currency code to its symbol. Unknown codes are
// returned unchanged.
func CurrencySymbol(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "SUR", "RUB":
		return "₽"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	case "CNY":
		return "¥"
	default:
		return code
	}
}
