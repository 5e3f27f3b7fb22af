package moex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bondscalc/internal/domain/entity/bonds"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://iss.moex.com"

	bondsSecuritiesPath = "/iss/engines/stock/markets/bonds/securities.json"

	// Bonds traded on this board are not available to retail investors.
	excludedBoard = "SPOB"
	noDate        = "0000-00-00"
)

var securityColumns = []string{
	"SECID", "ISIN", "SHORTNAME", "STATUS", "BOARDID", "MATDATE", "COUPONPERCENT",
	"LISTLEVEL", "COUPONVALUE", "NEXTCOUPON", "ACCRUEDINT", "CURRENCYID", "FACEUNIT",
	"FACEVALUE", "COUPONPERIOD", "ISSUESIZE", "OFFERDATE", "PREVPRICE", "REGNUMBER",
}

var marketDataColumns = []string{"BOARDID", "SECID", "LAST"}

var ErrUnexpectedStatus = errors.New("unexpected response status")

// MarketData is the last trade price of a bond, in percent of par.
type MarketData struct {
	SecID     string
	LastPrice float64
}

// Client reads the MOEX ISS REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Entry
}

func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithField("component", "moex_client"),
	}
}

// LoadBonds returns the bonds listed on MOEX, one entry per SECID.
func (c *Client) LoadBonds(ctx context.Context) ([]bonds.Bond, error) {
	params := issParams()
	params.Set("iss.only", "securities")
	params.Set("securities.columns", strings.Join(securityColumns, ","))

	body, err := c.doGet(ctx, bondsSecuritiesPath, params)
	if err != nil {
		return nil, fmt.Errorf("moex: load securities: %w", err)
	}

	var resp struct {
		Securities table `json:"securities"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("moex: decode securities: %w", err)
	}

	seen := make(map[string]struct{})
	result := make([]bonds.Bond, 0, len(resp.Securities.Data))
	skipped := 0
	for _, r := range resp.Securities.rows() {
		if r.str("BOARDID") == excludedBoard || r.str("NEXTCOUPON") == noDate {
			continue
		}
		b, err := toBond(r)
		if err != nil {
			skipped++
			c.logger.WithError(err).WithField("secid", r.str("SECID")).Debug("skip security")
			continue
		}
		if _, ok := seen[b.SecID]; ok {
			continue
		}
		seen[b.SecID] = struct{}{}
		result = append(result, b)
	}
	if skipped > 0 {
		c.logger.WithField("skipped", skipped).Warn("some securities could not be parsed")
	}
	return result, nil
}

// LoadMarketData returns last prices for bonds traded today.
func (c *Client) LoadMarketData(ctx context.Context) ([]MarketData, error) {
	params := issParams()
	params.Set("iss.only", "marketdata,dataversion")
	params.Set("marketdata.columns", strings.Join(marketDataColumns, ","))

	body, err := c.doGet(ctx, bondsSecuritiesPath, params)
	if err != nil {
		return nil, fmt.Errorf("moex: load marketdata: %w", err)
	}

	var resp struct {
		MarketData table `json:"marketdata"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("moex: decode marketdata: %w", err)
	}

	result := make([]MarketData, 0, len(resp.MarketData.Data))
	for _, r := range resp.MarketData.rows() {
		if r.str("BOARDID") == excludedBoard {
			continue
		}
		last, ok := r.float("LAST")
		if !ok {
			continue
		}
		result = append(result, MarketData{SecID: r.str("SECID"), LastPrice: last})
	}
	return result, nil
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, truncate(body, 256))
	}
	return body, nil
}

func issParams() url.Values {
	params := url.Values{}
	params.Set("iss.json", "compact")
	params.Set("iss.meta", "off")
	params.Set("iss.dp", "dot")
	return params
}

func toBond(r row) (bonds.Bond, error) {
	secID := strings.TrimSpace(r.str("SECID"))
	if secID == "" {
		return bonds.Bond{}, errors.New("empty SECID")
	}
	couponDate, err := r.date("NEXTCOUPON")
	if err != nil {
		return bonds.Bond{}, err
	}
	if couponDate == nil {
		return bonds.Bond{}, errors.New("missing NEXTCOUPON")
	}
	matDate, err := r.date("MATDATE")
	if err != nil {
		return bonds.Bond{}, err
	}
	offerDate, err := r.date("OFFERDATE")
	if err != nil {
		return bonds.Bond{}, err
	}

	b := bonds.Bond{
		UID:             bonds.StableUID(secID),
		ShortName:       r.str("SHORTNAME"),
		SecID:           secID,
		ISIN:            r.str("ISIN"),
		MatDate:         matDate,
		CouponPercent:   r.optionalFloat("COUPONPERCENT"),
		ListLevel:       int32(r.int("LISTLEVEL")),
		CouponDate:      *couponDate,
		AccruedInterest: r.floatOrZero("ACCRUEDINT"),
		CurrencyID:      r.str("CURRENCYID"),
		FaceUnit:        r.str("FACEUNIT"),
		FaceValue:       r.floatOrZero("FACEVALUE"),
		CouponPeriod:    int32(r.int("COUPONPERIOD")),
		IssueSize:       r.int("ISSUESIZE"),
		OfferDate:       offerDate,
		PrevPrice:       r.optionalFloat("PREVPRICE"),
	}
	// MOEX reports 0 when the next coupon amount is not known yet.
	if v, ok := r.float("COUPONVALUE"); ok && v != 0 {
		b.CouponValue = &v
	}
	if reg := strings.TrimSpace(r.str("REGNUMBER")); reg != "" {
		b.RegNumber = &reg
	}
	return b, nil
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}

// LastPrices returns today's last trade prices keyed by SECID. Items is
// unused: ISS returns the whole board in one response.
func (c *Client) LastPrices(ctx context.Context, _ []bonds.Bond) (map[string]float64, error) {
	data, err := c.LoadMarketData(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string]float64, len(data))
	for _, md := range data {
		if _, ok := result[md.SecID]; ok {
			continue
		}
		result[md.SecID] = md.LastPrice
	}
	return result, nil
}
