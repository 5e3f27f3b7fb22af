package interfaces

import (
	"context"

	"bondscalc/internal/domain/entity/bonds"
)

type BondsRepository interface {
	ReplaceAll(ctx context.Context, items []bonds.Bond) error
	UpsertBonds(ctx context.Context, items []bonds.Bond) error
	Search(ctx context.Context, query string, limit int) ([]bonds.Bond, error)
	GetBySecID(ctx context.Context, secID string) (*bonds.Bond, error)
	Close()
}

// CatalogSource loads the list of traded bonds.
type CatalogSource interface {
	LoadBonds(ctx context.Context) ([]bonds.Bond, error)
}

// PriceSource returns last prices of items, in percent of par, keyed by SECID.
// Bonds without a quote are absent from the result.
type PriceSource interface {
	LastPrices(ctx context.Context, items []bonds.Bond) (map[string]float64, error)
}

// BondPublisher hands catalog entries to another process.
type BondPublisher interface {
	PublishBond(ctx context.Context, bond *bonds.Bond) error
}
