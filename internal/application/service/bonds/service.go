package bonds

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"bondscalc/internal/domain/calculator"
	domain "bondscalc/internal/domain/entity/bonds"
	interfaces "bondscalc/internal/domain/interfaces"

	"golang.org/x/text/language"
)

// MinQueryLength is the shortest search query accepted, in characters.
const MinQueryLength = 3

// Calculator defaults offered for a freshly selected bond.
const (
	DefaultCommission = 0.05
	DefaultTax        = 13.0
)

var (
	ErrQueryTooShort = fmt.Errorf("query must be at least %d characters", MinQueryLength)
	ErrEmptySecID    = errors.New("secid is empty")
)

type Service struct {
	repo        interfaces.BondsRepository
	formatter   *calculator.Formatter
	searchLimit int
}

func NewService(repo interfaces.BondsRepository, formatter *calculator.Formatter, searchLimit int) *Service {
	if formatter == nil {
		formatter = calculator.NewFormatter(language.English)
	}
	if searchLimit <= 0 {
		searchLimit = 100
	}
	return &Service{repo: repo, formatter: formatter, searchLimit: searchLimit}
}

func (s *Service) Search(ctx context.Context, query string) ([]domain.Bond, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil, ErrQueryTooShort
	}
	return s.repo.Search(ctx, query, s.searchLimit)
}

func (s *Service) GetBond(ctx context.Context, secID string) (*domain.Bond, error) {
	secID = strings.TrimSpace(secID)
	if secID == "" {
		return nil, ErrEmptySecID
	}
	return s.repo.GetBySecID(ctx, secID)
}

// Prefill holds the calculator inputs suggested for a bond.
type Prefill struct {
	Bond        domain.Bond         `json:"bond"`
	Commission  float64             `json:"commission"`
	Tax         float64             `json:"tax"`
	ParValue    float64             `json:"par_value"`
	Coupon      *float64            `json:"coupon,omitempty"`
	BuyDate     time.Time           `json:"buy_date"`
	BuyPrice    *float64            `json:"buy_price,omitempty"`
	SellOptions []domain.SellOption `json:"sell_options"`
	SellType    domain.SellType     `json:"sell_type"`
	SellDate    *time.Time          `json:"sell_date,omitempty"`
	SellPrice   float64             `json:"sell_price"`
}

// Params converts the prefill into calculator inputs. Absent values become NaN.
func (p Prefill) Params() calculator.Params {
	return calculator.Params{
		Commission:   p.Commission,
		Tax:          p.Tax,
		Coupon:       valueOrNaN(p.Coupon),
		ParValue:     p.ParValue,
		BuyDate:      p.BuyDate.Format(time.DateOnly),
		BuyPrice:     valueOrNaN(p.BuyPrice),
		SellDate:     dateOrEmpty(p.SellDate),
		SellPrice:    p.SellPrice,
		TillMaturity: p.SellType == domain.SellTypeMaturity,
	}
}

// Prefill looks the bond up and fills calculator defaults: buy today at the
// previous close and sell at par on the first available sell type.
func (s *Service) Prefill(ctx context.Context, secID string, today time.Time) (*Prefill, error) {
	b, err := s.GetBond(ctx, secID)
	if err != nil {
		return nil, err
	}
	options := domain.SellTypeOptions(*b)
	return &Prefill{
		Bond:        *b,
		Commission:  DefaultCommission,
		Tax:         DefaultTax,
		ParValue:    b.FaceValue,
		Coupon:      b.CouponPercent,
		BuyDate:     truncateDay(today),
		BuyPrice:    b.PrevPrice,
		SellOptions: options,
		SellType:    options[0].Value,
		SellDate:    domain.DefaultSellDate(*b),
		SellPrice:   domain.RedemptionPrice,
	}, nil
}

// SwitchSellType returns the prefill for secID with the sell leg replaced by
// the one implied by sellType.
func (s *Service) SwitchSellType(ctx context.Context, secID string, sellType domain.SellType, buyDate time.Time, sellPrice float64) (*Prefill, error) {
	prefill, err := s.Prefill(ctx, secID, buyDate)
	if err != nil {
		return nil, err
	}
	plan, err := domain.SwitchSellType(sellType, prefill.Bond, prefill.BuyDate, sellPrice)
	if err != nil {
		return nil, err
	}
	prefill.SellType = plan.Type
	prefill.SellDate = plan.Date
	prefill.SellPrice = plan.Price
	return prefill, nil
}

// Calculation is a calculator result, rounded and formatted.
type Calculation struct {
	Metrics   calculator.Metrics
	Formatted [4]string
}

func (s *Service) Calculate(p calculator.Params) Calculation {
	m := calculator.Compute(p).Rounded()
	return Calculation{
		Metrics:   m,
		Formatted: s.formatter.FormatMetrics(m),
	}
}

func (s *Service) Formatter() *calculator.Formatter {
	return s.formatter
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
