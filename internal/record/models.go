package record

import (
	"github.com/prompthash/marketplace/pkg/identity"
)

// NewRecord defines what we require when creating a Record.
type NewRecord struct {
	Owner       identity.Address `json:"owner"`
	Price       uint64           `json:"price"`
	Title       string           `json:"title"`
	Category    string           `json:"category"`
	MediaURL    string           `json:"media_url"`
	Description string           `json:"description"`
}

// UpdateRecord defines what information may be provided to modify an
// existing Record. The descriptive fields are immutable after creation and
// are deliberately absent.
type UpdateRecord struct {
	Owner   *identity.Address `json:"owner,omitempty"`
	Price   *uint64           `json:"price,omitempty"`
	ForSale *bool             `json:"for_sale,omitempty"`
	Sold    *bool             `json:"sold,omitempty"`
}
