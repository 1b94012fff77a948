package state

import (
	"time"

	"github.com/prompthash/marketplace/pkg/identity"
)

// Record tracks one listable item's price, ownership and sale state. The
// descriptive fields are immutable after creation and play no role in
// settlement.
//
// Owner is the marketplace-recorded holder at time of creation or last sale.
// It is intentionally decoupled from the identity ledger's live holder: a
// token transferred peer-to-peer outside the marketplace does not update this
// field. See market.CheckOwner for reconciliation.
type Record struct {
	ID          uint64           `json:"id"`
	Owner       identity.Address `json:"owner"`
	Price       uint64           `json:"price"`
	ForSale     bool             `json:"for_sale"`
	Sold        bool             `json:"sold"`
	Title       string           `json:"title"`
	Category    string           `json:"category"`
	MediaURL    string           `json:"media_url"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// FeeConfig is the process-wide fee configuration, read on every purchase.
type FeeConfig struct {
	// Percentage in basis points. 10000 = 100%.
	Percentage uint64           `json:"percentage"`
	Recipient  identity.Address `json:"recipient"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Authority holds the administrator identity and, during a two-phase
// handoff, the nominated successor.
type Authority struct {
	Admin     identity.Address `json:"admin"`
	Pending   identity.Address `json:"pending,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}
