package market

import (
	"context"
	"sync"
	"time"

	"github.com/prompthash/marketplace/internal/authority"
	"github.com/prompthash/marketplace/internal/events"
	"github.com/prompthash/marketplace/internal/platform/db"
	"github.com/prompthash/marketplace/internal/platform/node"
	"github.com/prompthash/marketplace/internal/platform/state"
	"github.com/prompthash/marketplace/internal/record"
	"github.com/prompthash/marketplace/pkg/identity"
	"github.com/prompthash/marketplace/pkg/nft"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Basis point denominator. 10000 = 100%.
const feeDenominator = 10000

var (
	// ErrNotFound occurs when the referenced record does not exist.
	ErrNotFound = errors.New("Record not found")

	// ErrUnauthorized occurs when the caller is not the required principal.
	ErrUnauthorized = errors.New("Unauthorized")

	// ErrAlreadySold occurs on any attempt to move a record out of its
	// terminal sold state.
	ErrAlreadySold = errors.New("Record already sold")

	// ErrNotForSale occurs when purchasing a record that is not listed.
	ErrNotForSale = errors.New("Record not for sale")

	// ErrSelfPurchase occurs when the recorded owner tries to buy their own
	// record.
	ErrSelfPurchase = errors.New("Cannot buy own record")

	// ErrInvalidFee occurs when a fee percentage exceeds 100%.
	ErrInvalidFee = errors.New("Fee percentage out of range")

	// ErrFeesNotConfigured occurs when no fee configuration has been
	// bootstrapped.
	ErrFeesNotConfigured = errors.New("Fee config not found")
)

// IdentityLedger is the narrow view of the non-fungible ledger the engine
// depends on. Satisfied by *nft.Ledger.
type IdentityLedger interface {
	Mint(ctx context.Context, to identity.Address) (uint64, error)
	OwnerOf(ctx context.Context, id uint64) (identity.Address, error)
	Approve(ctx context.Context, owner, approved identity.Address, id uint64) error
	TransferFrom(ctx context.Context, caller, from, to identity.Address, id uint64) error
}

// PaymentLedger is the narrow view of the fungible ledger the engine depends
// on. Satisfied by *funds.Ledger.
type PaymentLedger interface {
	Balance(ctx context.Context, addr identity.Address) (uint64, error)
	TransferFrom(ctx context.Context, spender, from, to identity.Address, amount uint64) error
}

// Market is the settlement engine. Every public operation runs under one
// lock, so no operation ever observes another's intermediate writes.
type Market struct {
	dbConn   *db.DB
	tokens   IdentityLedger
	payments PaymentLedger
	bus      *events.Bus

	// operator is the marketplace's own ledger identity. It is approved on
	// every minted token and spends buyer allowances during settlement.
	operator identity.Address

	lock sync.Mutex
}

func New(dbConn *db.DB, tokens IdentityLedger, payments PaymentLedger,
	bus *events.Bus, operator identity.Address) *Market {

	return &Market{
		dbConn:   dbConn,
		tokens:   tokens,
		payments: payments,
		bus:      bus,
		operator: operator,
	}
}

// Bootstrap initializes fee configuration and the administrator identity
// when not already persisted. Safe to call on every start.
func (m *Market) Bootstrap(ctx context.Context, admin, feeRecipient identity.Address,
	feeRate uint64) error {

	ctx, span := trace.StartSpan(ctx, "internal.market.Bootstrap")
	defer span.End()

	m.lock.Lock()
	defer m.lock.Unlock()

	now := time.Now().UTC()

	if err := authority.Bootstrap(ctx, m.dbConn, admin, now); err != nil {
		return errors.Wrap(err, "Failed to bootstrap authority")
	}

	if _, err := FetchFeeConfig(ctx, m.dbConn); err == nil {
		return nil
	} else if errors.Cause(err) != ErrFeesNotConfigured {
		return err
	}

	if feeRate > feeDenominator {
		return ErrInvalidFee
	}
	if feeRecipient.IsZero() {
		return errors.Wrap(identity.ErrInvalidAddress, "fee recipient")
	}

	fees := state.FeeConfig{
		Percentage: feeRate,
		Recipient:  feeRecipient,
		UpdatedAt:  now,
	}

	return saveFeeConfig(ctx, m.dbConn, &fees)
}

// Create mints a new token to the creator and stores the record for it in
// the unlisted state. Returns the new id. No payment moves.
func (m *Market) Create(ctx context.Context, creator identity.Address,
	nu *record.NewRecord) (uint64, error) {

	ctx, span := trace.StartSpan(ctx, "internal.market.Create")
	defer span.End()

	if creator.IsZero() {
		return 0, errors.Wrap(identity.ErrInvalidAddress, "creator")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	now := time.Now().UTC()

	id, err := m.tokens.Mint(ctx, creator)
	if err != nil {
		return 0, errors.Wrap(err, "Failed to mint token")
	}

	// Approve the marketplace so a later sale can move the token.
	if err := m.tokens.Approve(ctx, creator, m.operator, id); err != nil {
		return 0, errors.Wrap(err, "Failed to approve marketplace")
	}

	nu.Owner = creator
	r, err := record.AllocateAndSave(ctx, m.dbConn, nu, id, now)
	if err != nil {
		return 0, errors.Wrap(err, "Failed to save record")
	}

	node.LogVerbose(ctx, "Created record %d for %s", r.ID, creator)

	m.bus.Publish(ctx, events.Event{
		Type:      events.TypeRecordCreated,
		ID:        r.ID,
		Owner:     creator,
		Price:     r.Price,
		Timestamp: now,
	})

	return r.ID, nil
}

// ListForSale puts the record on the market at the given price. Re-listing
// an already listed record updates the price.
func (m *Market) ListForSale(ctx context.Context, seller identity.Address,
	id uint64, price uint64) error {

	ctx, span := trace.StartSpan(ctx, "internal.market.ListForSale")
	defer span.End()

	m.lock.Lock()
	defer m.lock.Unlock()

	r, err := record.Fetch(ctx, m.dbConn, id)
	if err != nil {
		if errors.Cause(err) == record.ErrNotFound {
			return ErrNotFound
		}
		return err
	}

	if !r.Owner.Equal(seller) {
		return ErrUnauthorized
	}

	if r.Sold {
		return ErrAlreadySold
	}

	now := time.Now().UTC()

	forSale := true
	if _, err := record.Update(ctx, m.dbConn, id, &record.UpdateRecord{
		ForSale: &forSale,
		Price:   &price,
	}, now); err != nil {
		return errors.Wrap(err, "Failed to save record")
	}

	node.LogVerbose(ctx, "Listed record %d at %d", id, price)

	m.bus.Publish(ctx, events.Event{
		Type:      events.TypeRecordListed,
		ID:        id,
		Seller:    seller,
		Price:     price,
		Timestamp: now,
	})

	return nil
}

// Buy settles a purchase: pays the seller minus the protocol fee, pays the
// fee recipient, moves the token to the buyer and marks the record sold.
// All of it happens or none of it does.
func (m *Market) Buy(ctx context.Context, buyer identity.Address, id uint64) error {
	ctx, span := trace.StartSpan(ctx, "internal.market.Buy")
	defer span.End()

	m.lock.Lock()
	defer m.lock.Unlock()

	// All validation happens before any external call.
	r, err := record.Fetch(ctx, m.dbConn, id)
	if err != nil {
		if errors.Cause(err) == record.ErrNotFound {
			return ErrNotFound
		}
		return err
	}

	if !r.ForSale {
		return ErrNotForSale
	}
	if r.Sold {
		return ErrAlreadySold
	}
	if r.Owner.Equal(buyer) {
		return ErrSelfPurchase
	}

	fees, err := FetchFeeConfig(ctx, m.dbConn)
	if err != nil {
		return err
	}

	seller := r.Owner
	price := r.Price
	fee := computeFee(price, fees.Percentage)
	sellerAmount := price - fee

	// Payments first, record write second, token transfer last. Payments
	// and the record write are reversible; the token transfer is not (its
	// marketplace approval is consumed by the move), so it is ordered last
	// and any earlier failure unwinds the steps before it. No reachable
	// state pairs payment with a missing ownership transfer or vice versa.
	if err := m.payments.TransferFrom(ctx, m.operator, buyer, seller,
		sellerAmount); err != nil {
		return err
	}

	if err := m.payments.TransferFrom(ctx, m.operator, buyer, fees.Recipient,
		fee); err != nil {
		m.unwindPayment(ctx, seller, buyer, sellerAmount)
		return err
	}

	now := time.Now().UTC()

	sold := true
	forSale := false
	if _, err := record.Update(ctx, m.dbConn, id, &record.UpdateRecord{
		Owner:   &buyer,
		Sold:    &sold,
		ForSale: &forSale,
	}, now); err != nil {
		m.unwindPayment(ctx, fees.Recipient, buyer, fee)
		m.unwindPayment(ctx, seller, buyer, sellerAmount)
		return errors.Wrap(err, "Failed to save record")
	}

	if err := m.tokens.TransferFrom(ctx, m.operator, seller, buyer, id); err != nil {
		if serr := record.Save(ctx, m.dbConn, r); serr != nil {
			node.LogError(ctx, "Failed to restore record %d : %s", id, serr)
		}
		m.unwindPayment(ctx, fees.Recipient, buyer, fee)
		m.unwindPayment(ctx, seller, buyer, sellerAmount)
		return err
	}

	node.Log(ctx, "Sold record %d : %s -> %s for %d (fee %d)", id, seller, buyer,
		price, fee)

	m.bus.Publish(ctx, events.Event{
		Type:      events.TypeRecordSold,
		ID:        id,
		Seller:    seller,
		Buyer:     buyer,
		Price:     price,
		Fee:       fee,
		Timestamp: now,
	})

	return nil
}

// SetFeePercentage updates the fee rate in basis points. Administrator only.
// Takes effect for all subsequent purchases.
func (m *Market) SetFeePercentage(ctx context.Context, admin identity.Address,
	rate uint64) error {

	ctx, span := trace.StartSpan(ctx, "internal.market.SetFeePercentage")
	defer span.End()

	if rate > feeDenominator {
		return ErrInvalidFee
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if err := m.requireAdmin(ctx, admin); err != nil {
		return err
	}

	fees, err := FetchFeeConfig(ctx, m.dbConn)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	fees.Percentage = rate
	fees.UpdatedAt = now

	if err := saveFeeConfig(ctx, m.dbConn, fees); err != nil {
		return err
	}

	m.bus.Publish(ctx, events.Event{
		Type:      events.TypeFeePercentageUpdated,
		Rate:      rate,
		Timestamp: now,
	})

	return nil
}

// SetFeeRecipient updates the fee recipient. Administrator only.
func (m *Market) SetFeeRecipient(ctx context.Context, admin,
	recipient identity.Address) error {

	ctx, span := trace.StartSpan(ctx, "internal.market.SetFeeRecipient")
	defer span.End()

	if recipient.IsZero() {
		return errors.Wrap(identity.ErrInvalidAddress, "recipient")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if err := m.requireAdmin(ctx, admin); err != nil {
		return err
	}

	fees, err := FetchFeeConfig(ctx, m.dbConn)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	fees.Recipient = recipient
	fees.UpdatedAt = now

	if err := saveFeeConfig(ctx, m.dbConn, fees); err != nil {
		return err
	}

	m.bus.Publish(ctx, events.Event{
		Type:      events.TypeFeeRecipientUpdated,
		Recipient: recipient,
		Timestamp: now,
	})

	return nil
}

// NominateAdmin starts the two-phase administrator handoff.
func (m *Market) NominateAdmin(ctx context.Context, current,
	successor identity.Address) error {

	ctx, span := trace.StartSpan(ctx, "internal.market.NominateAdmin")
	defer span.End()

	m.lock.Lock()
	defer m.lock.Unlock()

	now := time.Now().UTC()

	if err := authority.Nominate(ctx, m.dbConn, current, successor, now); err != nil {
		if errors.Cause(err) == authority.ErrUnauthorized {
			return ErrUnauthorized
		}
		return err
	}

	m.bus.Publish(ctx, events.Event{
		Type:      events.TypeAdminNominated,
		Owner:     successor,
		Timestamp: now,
	})

	return nil
}

// AcceptAdmin completes the handoff. Caller must be the nominated successor.
func (m *Market) AcceptAdmin(ctx context.Context, successor identity.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.market.AcceptAdmin")
	defer span.End()

	m.lock.Lock()
	defer m.lock.Unlock()

	now := time.Now().UTC()

	if err := authority.Accept(ctx, m.dbConn, successor, now); err != nil {
		if errors.Cause(err) == authority.ErrUnauthorized {
			return ErrUnauthorized
		}
		return err
	}

	m.bus.Publish(ctx, events.Event{
		Type:      events.TypeAdminAccepted,
		Owner:     successor,
		Timestamp: now,
	})

	return nil
}

// Migrate runs the one-time storage schema upgrade. Administrator only.
func (m *Market) Migrate(ctx context.Context, admin identity.Address) error {
	ctx, span := trace.StartSpan(ctx, "internal.market.Migrate")
	defer span.End()

	m.lock.Lock()
	defer m.lock.Unlock()

	if err := m.requireAdmin(ctx, admin); err != nil {
		return err
	}

	return record.Migrate(ctx, m.dbConn, time.Now().UTC())
}

// Record returns a single record.
func (m *Market) Record(ctx context.Context, id uint64) (*state.Record, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	r, err := record.Fetch(ctx, m.dbConn, id)
	if err != nil {
		if errors.Cause(err) == record.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return r, nil
}

// Records returns all records ordered by id.
func (m *Market) Records(ctx context.Context) ([]state.Record, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	return record.List(ctx, m.dbConn)
}

// NextID returns the id the next creation will be assigned.
func (m *Market) NextID(ctx context.Context) (uint64, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	return record.NextID(ctx, m.dbConn)
}

// FeeConfig returns the current fee configuration.
func (m *Market) FeeConfig(ctx context.Context) (*state.FeeConfig, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	return FetchFeeConfig(ctx, m.dbConn)
}

// OwnerReport pairs the marketplace-recorded owner with the identity
// ledger's live holder. The two diverge when a token moves outside the
// marketplace.
type OwnerReport struct {
	ID       uint64           `json:"id"`
	Recorded identity.Address `json:"recorded"`
	Holder   identity.Address `json:"holder,omitempty"`
	Burned   bool             `json:"burned,omitempty"`
	InSync   bool             `json:"in_sync"`
}

// CheckOwner is the reconciliation query for the decoupled owner fields. It
// never mutates state.
func (m *Market) CheckOwner(ctx context.Context, id uint64) (*OwnerReport, error) {
	ctx, span := trace.StartSpan(ctx, "internal.market.CheckOwner")
	defer span.End()

	m.lock.Lock()
	defer m.lock.Unlock()

	r, err := record.Fetch(ctx, m.dbConn, id)
	if err != nil {
		if errors.Cause(err) == record.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	report := OwnerReport{
		ID:       id,
		Recorded: r.Owner,
	}

	holder, err := m.tokens.OwnerOf(ctx, id)
	if err != nil {
		if errors.Cause(err) != nft.ErrNotFound {
			return nil, err
		}

		// A burned token leaves the record permanently inert.
		report.Burned = true
		return &report, nil
	}

	report.Holder = holder
	report.InSync = holder.Equal(r.Owner)

	return &report, nil
}

func (m *Market) requireAdmin(ctx context.Context, addr identity.Address) error {
	if err := authority.Require(ctx, m.dbConn, addr); err != nil {
		if errors.Cause(err) == authority.ErrUnauthorized {
			return ErrUnauthorized
		}
		return err
	}

	return nil
}

// unwindPayment reverses an earlier transfer during a failed purchase. The
// marketplace cannot do more than log if the reversal itself fails.
func (m *Market) unwindPayment(ctx context.Context, from, to identity.Address,
	amount uint64) {

	if err := m.payments.TransferFrom(ctx, from, from, to, amount); err != nil {
		node.LogError(ctx, "Failed to unwind payment of %d : %s -> %s : %s",
			amount, from, to, err)
	}
}

// computeFee returns floor(price * rate / 10000) without overflowing on
// large prices. The seller amount is always derived by subtraction so the
// two shares sum to the price exactly.
func computeFee(price, rate uint64) uint64 {
	return (price/feeDenominator)*rate + (price%feeDenominator)*rate/feeDenominator
}
