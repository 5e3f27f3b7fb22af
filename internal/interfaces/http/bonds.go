package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	appbonds "bondscalc/internal/application/service/bonds"
	"bondscalc/internal/domain/calculator"
	domainbonds "bondscalc/internal/domain/entity/bonds"

	"github.com/gin-gonic/gin"
)

// bondCard is a catalog entry with the flags shown next to it in listings.
type bondCard struct {
	domainbonds.Bond
	CurrentYield   *float64 `json:"current_yield,omitempty"`
	Perpetual      bool     `json:"perpetual"`
	AbovePar       bool     `json:"above_par"`
	HighRisk       bool     `json:"high_risk"`
	CurrencySymbol string   `json:"currency_symbol"`
}

func newBondCard(b domainbonds.Bond) bondCard {
	card := bondCard{
		Bond:           b,
		Perpetual:      b.IsPerpetual(),
		AbovePar:       b.AbovePar(),
		HighRisk:       b.HighRisk(),
		CurrencySymbol: b.CurrencySymbol(),
	}
	if y, ok := b.CurrentYield(); ok {
		card.CurrentYield = &y
	}
	return card
}

type prefillResponse struct {
	Bond        bondCard                 `json:"bond"`
	Commission  float64                  `json:"commission"`
	Tax         float64                  `json:"tax"`
	ParValue    float64                  `json:"par_value"`
	Coupon      *float64                 `json:"coupon"`
	BuyDate     string                   `json:"buy_date"`
	BuyPrice    *float64                 `json:"buy_price"`
	SellOptions []domainbonds.SellOption `json:"sell_options"`
	SellType    domainbonds.SellType     `json:"sell_type"`
	SellDate    *string                  `json:"sell_date"`
	SellPrice   float64                  `json:"sell_price"`
	Result      calcResponse             `json:"result"`
}

func newPrefillResponse(p *appbonds.Prefill, calc appbonds.Calculation) prefillResponse {
	resp := prefillResponse{
		Bond:        newBondCard(p.Bond),
		Commission:  p.Commission,
		Tax:         p.Tax,
		ParValue:    p.ParValue,
		Coupon:      p.Coupon,
		BuyDate:     p.BuyDate.Format(time.DateOnly),
		BuyPrice:    p.BuyPrice,
		SellOptions: p.SellOptions,
		SellType:    p.SellType,
		SellPrice:   p.SellPrice,
		Result:      newCalcResponse(calc),
	}
	if p.SellDate != nil {
		s := p.SellDate.Format(time.DateOnly)
		resp.SellDate = &s
	}
	return resp
}

// searchBonds finds bonds by name, ISIN or SECID
// @Summary      Search bonds
// @Description  Case-insensitive search over short name and ISIN, exact match on SECID
// @Tags         bonds
// @Produce      json
// @Param        q    query     string  true  "Query, at least 3 characters"
// @Success      200  {array}   bondCard
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /bonds/search [get]
func (h *Handler) searchBonds(c *gin.Context) {
	items, err := h.bonds.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	cards := make([]bondCard, 0, len(items))
	for _, b := range items {
		cards = append(cards, newBondCard(b))
	}
	c.JSON(http.StatusOK, cards)
}

// getBond returns a bond by SECID
// @Summary      Get bond
// @Tags         bonds
// @Produce      json
// @Param        secid  path      string  true  "MOEX SECID"
// @Success      200    {object}  bondCard
// @Failure      404    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /bonds/{secid} [get]
func (h *Handler) getBond(c *gin.Context) {
	secID := strings.TrimSpace(c.Param("secid"))
	if secID == "" {
		writeError(c, http.StatusBadRequest, errMissingSecID)
		return
	}
	b, err := h.bonds.GetBond(c.Request.Context(), secID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBondCard(*b))
}

// prefillCalc returns calculator inputs for a bond and their result
// @Summary      Calculator prefill
// @Description  Default calculator inputs for the bond. Passing sell_type switches the sell leg.
// @Tags         bonds
// @Produce      json
// @Param        secid       path      string  true   "MOEX SECID"
// @Param        sell_type   query     string  false  "offer, maturity or sell"
// @Param        buy_date    query     string  false  "YYYY-MM-DD, defaults to today"
// @Param        sell_price  query     number  false  "Sell price in percent of par, kept for sell_type=sell"
// @Success      200         {object}  prefillResponse
// @Failure      400         {object}  map[string]string
// @Failure      404         {object}  map[string]string
// @Failure      500         {object}  map[string]string
// @Router       /bonds/{secid}/calc [get]
func (h *Handler) prefillCalc(c *gin.Context) {
	secID := strings.TrimSpace(c.Param("secid"))
	if secID == "" {
		writeError(c, http.StatusBadRequest, errMissingSecID)
		return
	}

	buyDate := h.now()
	if raw := c.Query("buy_date"); raw != "" {
		parsed, ok := calculator.ParseDate(raw)
		if !ok {
			writeError(c, http.StatusBadRequest, errBadBuyDate)
			return
		}
		buyDate = parsed
	}

	ctx := c.Request.Context()
	var (
		prefill *appbonds.Prefill
		err     error
	)
	if raw := c.Query("sell_type"); raw != "" {
		sellType, typeErr := domainbonds.NewSellType(raw)
		if typeErr != nil {
			writeError(c, http.StatusBadRequest, errBadSellType)
			return
		}
		sellPrice := domainbonds.RedemptionPrice
		if rawPrice := c.Query("sell_price"); rawPrice != "" {
			sellPrice, err = strconv.ParseFloat(rawPrice, 64)
			if err != nil {
				writeError(c, http.StatusBadRequest, errBadSellPrice)
				return
			}
		}
		prefill, err = h.bonds.SwitchSellType(ctx, secID, sellType, buyDate, sellPrice)
	} else {
		prefill, err = h.bonds.Prefill(ctx, secID, buyDate)
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}

	calc := h.bonds.Calculate(prefill.Params())
	c.JSON(http.StatusOK, newPrefillResponse(prefill, calc))
}
