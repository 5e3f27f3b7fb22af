package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "bondscalc/internal/domain/entity/bonds"
	interfaces "bondscalc/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

var (
	ErrNilPublisher = errors.New("publisher is nil")
	ErrEmptyCatalog = errors.New("catalog source returned no bonds")
)

// Service refreshes the local bond catalog from the exchange.
type Service struct {
	source interfaces.CatalogSource
	prices []interfaces.PriceSource
	repo   interfaces.BondsRepository
	logger *logrus.Entry
}

// NewService builds a catalog service. Price sources are applied in order, so
// later ones override earlier quotes. repo may be nil when only Publish is used.
func NewService(source interfaces.CatalogSource, repo interfaces.BondsRepository, logger *logrus.Logger, prices ...interfaces.PriceSource) *Service {
	return &Service{
		source: source,
		prices: prices,
		repo:   repo,
		logger: logger.WithField("component", "catalog"),
	}
}

// Load fetches the catalog and applies the latest known prices.
func (s *Service) Load(ctx context.Context) ([]domain.Bond, error) {
	s.logger.Info("loading bonds")
	items, err := s.source.LoadBonds(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bonds: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}
	s.logger.WithField("count", len(items)).Info("bonds loaded")

	for i, src := range s.prices {
		quotes, err := src.LastPrices(ctx, items)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.WithError(err).WithField("source", i).Warn("last prices unavailable, keeping previous close")
			continue
		}
		updated := applyPrices(items, quotes)
		s.logger.WithFields(logrus.Fields{
			"source":  i,
			"quotes":  len(quotes),
			"updated": updated,
		}).Info("prices applied")
	}
	return items, nil
}

// Sync replaces the stored catalog with a fresh one and returns its size.
func (s *Service) Sync(ctx context.Context) (int, error) {
	started := time.Now()
	items, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.repo.ReplaceAll(ctx, items); err != nil {
		return 0, fmt.Errorf("store bonds: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"count":    len(items),
		"duration": time.Since(started).String(),
	}).Info("catalog updated")
	return len(items), nil
}

// Publish sends a fresh catalog to pub, one message per bond.
func (s *Service) Publish(ctx context.Context, pub interfaces.BondPublisher) (int, error) {
	if pub == nil {
		return 0, ErrNilPublisher
	}
	items, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	for i := range items {
		if err := pub.PublishBond(ctx, &items[i]); err != nil {
			return i, fmt.Errorf("publish %s: %w", items[i].SecID, err)
		}
	}
	s.logger.WithField("count", len(items)).Info("catalog published")
	return len(items), nil
}

// Run syncs every interval until ctx is done. A failed sync is logged and
// retried on the next tick.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil && ctx.Err() == nil {
				s.logger.WithError(err).Error("catalog sync failed")
			}
		}
	}
}

func applyPrices(items []domain.Bond, quotes map[string]float64) int {
	updated := 0
	for i := range items {
		price, ok := quotes[items[i].SecID]
		if !ok || price <= 0 {
			continue
		}
		items[i].PrevPrice = &price
		updated++
	}
	return updated
}
