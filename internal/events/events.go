package events

import (
	"context"
	"sync"
	"time"

	"github.com/prompthash/marketplace/pkg/identity"
)

// Type names a notification emitted after a successful operation.
type Type string

const (
	TypeRecordCreated        Type = "record_created"
	TypeRecordListed         Type = "record_listed"
	TypeRecordSold           Type = "record_sold"
	TypeFeePercentageUpdated Type = "fee_percentage_updated"
	TypeFeeRecipientUpdated  Type = "fee_recipient_updated"
	TypeAdminNominated       Type = "admin_nominated"
	TypeAdminAccepted        Type = "admin_accepted"
)

// Event carries the token id and the identities/amounts relevant to the
// operation that produced it. Fields not relevant to the Type are zero.
type Event struct {
	Type      Type             `json:"type"`
	ID        uint64           `json:"id,omitempty"`
	Owner     identity.Address `json:"owner,omitempty"`
	Seller    identity.Address `json:"seller,omitempty"`
	Buyer     identity.Address `json:"buyer,omitempty"`
	Recipient identity.Address `json:"recipient,omitempty"`
	Price     uint64           `json:"price,omitempty"`
	Fee       uint64           `json:"fee,omitempty"`
	Rate      uint64           `json:"rate,omitempty"` // basis points
	Timestamp time.Time        `json:"timestamp"`
}

// Handler consumes an event. Handlers run synchronously on the emitting
// goroutine and must not block.
type Handler func(ctx context.Context, e Event)

// Bus fans events out to subscribers. Events are observability output; the
// core never consumes them.
type Bus struct {
	handlers []Handler
	lock     sync.Mutex
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all subsequent events.
func (b *Bus) Subscribe(h Handler) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.handlers = append(b.handlers, h)
}

// Publish delivers the event to every subscriber.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.lock.Lock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.lock.Unlock()

	for _, h := range handlers {
		h(ctx, e)
	}
}
