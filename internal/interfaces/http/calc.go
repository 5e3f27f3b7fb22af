package http

import (
	"math"
	"net/http"

	appbonds "bondscalc/internal/application/service/bonds"
	"bondscalc/internal/domain/calculator"

	"github.com/gin-gonic/gin"
)

// calcRequest mirrors the calculator form. Omitted numbers are treated as
// not-a-number and surface as "-" in the result.
type calcRequest struct {
	Commission *float64 `json:"commission"`
	Tax        *float64 `json:"tax"`
	Coupon     *float64 `json:"coupon"`
	ParValue   *float64 `json:"par_value"`
	BuyDate    string   `json:"buy_date"`
	BuyPrice   *float64 `json:"buy_price"`
	SellDate   string   `json:"sell_date"`
	SellPrice  *float64 `json:"sell_price"`
	SellType   string   `json:"sell_type"`
}

func (r calcRequest) params() calculator.Params {
	return calculator.Params{
		Commission:   orNaN(r.Commission),
		Tax:          orNaN(r.Tax),
		Coupon:       orNaN(r.Coupon),
		ParValue:     orNaN(r.ParValue),
		BuyDate:      r.BuyDate,
		BuyPrice:     orNaN(r.BuyPrice),
		SellDate:     r.SellDate,
		SellPrice:    orNaN(r.SellPrice),
		TillMaturity: r.SellType == calculator.MaturityMode,
	}
}

type calcMetrics struct {
	Profitability string `json:"profitability"`
	CurrentYield  string `json:"current_yield"`
	Income        string `json:"income"`
	Days          string `json:"days"`
}

type calcRaw struct {
	Profitability *float64 `json:"profitability"`
	CurrentYield  *float64 `json:"current_yield"`
	Income        *float64 `json:"income"`
	Days          *float64 `json:"days"`
}

type calcResponse struct {
	Formatted calcMetrics `json:"formatted"`
	Raw       calcRaw     `json:"raw"`
}

func newCalcResponse(calc appbonds.Calculation) calcResponse {
	f := calc.Formatted
	m := calc.Metrics
	return calcResponse{
		Formatted: calcMetrics{
			Profitability: f[0],
			CurrentYield:  f[1],
			Income:        f[2],
			Days:          f[3],
		},
		Raw: calcRaw{
			Profitability: finite(m.Profitability),
			CurrentYield:  finite(m.CurrentYield),
			Income:        finite(m.Income),
			Days:          finite(m.Days),
		},
	}
}

// calculate evaluates bond trade metrics
// @Summary      Calculate
// @Description  Profitability, current yield, net income and holding days of a bond trade
// @Tags         calculator
// @Accept       json
// @Produce      json
// @Param        request  body      calcRequest  true  "Calculator inputs, rates and prices in percent"
// @Success      200      {object}  calcResponse
// @Failure      400      {object}  map[string]string
// @Router       /calc [post]
func (h *Handler) calculate(c *gin.Context) {
	var req calcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, newCalcResponse(h.bonds.Calculate(req.params())))
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
