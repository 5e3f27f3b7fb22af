package tinvest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bondscalc/internal/domain/entity/bonds"

	investgo "github.com/russianinvestments/invest-api-go-sdk/investgo"
	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
	"github.com/sirupsen/logrus"
)

const (
	DefaultEndpoint = "https://invest-public-api.tinkoff.ru:443"
	DefaultAppName  = "bondscalc"

	// GetLastPrices accepts a limited number of instruments per call.
	lastPricesChunk = 1000
)

// Config holds T-Invest API connection settings.
type Config struct {
	Token         string
	Endpoint      string
	AppName       string
	SkipTLSVerify bool
}

// PriceSource reads bond last prices from the T-Invest API.
type PriceSource struct {
	client *investgo.Client
	logger *logrus.Entry
}

func NewPriceSource(ctx context.Context, cfg Config, logger *logrus.Logger) (*PriceSource, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("invest token is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	appName := cfg.AppName
	if appName == "" {
		appName = DefaultAppName
	}
	client, err := investgo.NewClient(ctx, investgo.Config{
		EndPoint:           endpoint,
		Token:              cfg.Token,
		AppName:            appName,
		InsecureSkipVerify: cfg.SkipTLSVerify,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create invest api client: %w", err)
	}
	return &PriceSource{
		client: client,
		logger: logger.WithField("component", "tinvest_prices"),
	}, nil
}

func (s *PriceSource) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Stop()
}

// LastPrices returns last prices, in percent of par, keyed by SECID. Bonds
// the broker does not list are absent from the result.
func (s *PriceSource) LastPrices(ctx context.Context, items []bonds.Bond) (map[string]float64, error) {
	if len(items) == 0 {
		return map[string]float64{}, nil
	}
	figiByISIN, err := s.figiByISIN()
	if err != nil {
		return nil, err
	}

	secIDByFigi := make(map[string]string, len(items))
	figis := make([]string, 0, len(items))
	for _, b := range items {
		figi, ok := figiByISIN[strings.ToUpper(b.ISIN)]
		if !ok {
			continue
		}
		if _, dup := secIDByFigi[figi]; dup {
			continue
		}
		secIDByFigi[figi] = b.SecID
		figis = append(figis, figi)
	}

	md := s.client.NewMarketDataServiceClient()
	result := make(map[string]float64, len(figis))
	for _, chunk := range chunks(figis, lastPricesChunk) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := md.GetLastPrices(chunk)
		if err != nil {
			return nil, fmt.Errorf("get last prices: %w", err)
		}
		for _, lp := range resp.GetLastPrices() {
			secID, ok := secIDByFigi[lp.GetFigi()]
			if !ok || lp.GetPrice() == nil {
				continue
			}
			price := quotationToFloat(lp.GetPrice())
			if price <= 0 {
				continue
			}
			result[secID] = price
		}
	}
	s.logger.WithFields(logrus.Fields{
		"requested": len(items),
		"priced":    len(result),
	}).Info("last prices loaded")
	return result, nil
}

func (s *PriceSource) figiByISIN() (map[string]string, error) {
	resp, err := s.client.NewInstrumentsServiceClient().Bonds(pb.InstrumentStatus_INSTRUMENT_STATUS_BASE)
	if err != nil {
		return nil, fmt.Errorf("get bonds: %w", err)
	}
	result := make(map[string]string, len(resp.GetInstruments()))
	for _, b := range resp.GetInstruments() {
		isin := strings.ToUpper(strings.TrimSpace(b.GetIsin()))
		figi := strings.TrimSpace(b.GetFigi())
		if isin == "" || figi == "" {
			continue
		}
		result[isin] = figi
	}
	return result, nil
}

func quotationToFloat(q *pb.Quotation) float64 {
	if q == nil {
		return 0
	}
	return q.ToFloat()
}

func chunks(items []string, size int) [][]string {
	var result [][]string
	for size < len(items) {
		items, result = items[size:], append(result, items[:size])
	}
	if len(items) > 0 {
		result = append(result, items)
	}
	return result
}
