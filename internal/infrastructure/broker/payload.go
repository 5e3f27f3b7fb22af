package broker

import domain "bondscalc/internal/domain/entity/bonds"

// BondMessage is the body published to the catalog exchange.
type BondMessage struct {
	Bond *domain.Bond `json:"bond,omitempty"`
}
