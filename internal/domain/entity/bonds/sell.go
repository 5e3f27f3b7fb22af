package bonds

import (
	"fmt"
	"time"
)

// SellType is how the position is closed.
type SellType string

const (
	SellTypeOffer    SellType = "offer"
	SellTypeMaturity SellType = "maturity"
	SellTypeSell     SellType = "sell"
)

// RedemptionPrice is the price, in percent of par, paid on maturity or offer.
const RedemptionPrice = 100.0

func (st SellType) String() string {
	return string(st)
}

func (st SellType) IsValid() bool {
	switch st {
	case SellTypeOffer, SellTypeMaturity, SellTypeSell:
		return true
	default:
		return false
	}
}

func NewSellType(s string) (SellType, error) {
	st := SellType(s)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid sell type: %s", s)
	}
	return st, nil
}

// SellOption is a selectable way of closing a position.
type SellOption struct {
	Label string   `json:"label"`
	Value SellType `json:"value"`
}

// SellTypeOptions lists the sell types available for b; the first one is the
// default. The offer option is only present when the bond has an offer date.
func SellTypeOptions(b Bond) []SellOption {
	options := []SellOption{
		{Label: "до погашения", Value: SellTypeMaturity},
		{Label: "продажа", Value: SellTypeSell},
	}
	if b.OfferDate != nil {
		options = append([]SellOption{{Label: "до оферты", Value: SellTypeOffer}}, options...)
	}
	return options
}

// DefaultSellDate is the offer date when there is one, otherwise maturity.
func DefaultSellDate(b Bond) *time.Time {
	if b.OfferDate != nil {
		return b.OfferDate
	}
	return b.MatDate
}

// SellPlan is the sell leg implied by a sell type.
type SellPlan struct {
	Type  SellType   `json:"type"`
	Date  *time.Time `json:"date,omitempty"`
	Price float64    `json:"price"`
}

// SwitchSellType returns the sell leg for st. Redemption at maturity or offer
// happens at par; a market sale defaults to the day after purchase and keeps
// the price the user entered.
func SwitchSellType(st SellType, b Bond, buyDate time.Time, sellPrice float64) (SellPlan, error) {
	switch st {
	case SellTypeMaturity:
		return SellPlan{Type: st, Date: b.MatDate, Price: RedemptionPrice}, nil
	case SellTypeOffer:
		return SellPlan{Type: st, Date: b.OfferDate, Price: RedemptionPrice}, nil
	case SellTypeSell:
		next := buyDate.AddDate(0, 0, 1)
		return SellPlan{Type: st, Date: &next, Price: sellPrice}, nil
	default:
		return SellPlan{}, fmt.Errorf("invalid sell type: %s", st)
	}
}
