package tests

import (
	"context"
	"testing"

	"github.com/prompthash/marketplace/internal/events"
	"github.com/prompthash/marketplace/internal/platform/db"
	"github.com/prompthash/marketplace/internal/platform/node"
	"github.com/prompthash/marketplace/pkg/funds"
	"github.com/prompthash/marketplace/pkg/identity"
	"github.com/prompthash/marketplace/pkg/nft"
	"github.com/prompthash/marketplace/pkg/storage"
)

// Test carries the shared fixtures: a mock backed db, both ledgers and the
// well known identities.
type Test struct {
	Context  context.Context
	Storage  *storage.MockStorage
	MasterDB *db.DB
	Tokens   *nft.Ledger
	Payments *funds.Ledger
	Bus      *events.Bus

	Operator     identity.Address
	Admin        identity.Address
	FeeRecipient identity.Address
}

func New() *Test {
	test := Test{
		Context:      node.ContextWithLogger(context.Background(), true, "TEXT", ""),
		Bus:          events.NewBus(),
		Operator:     identity.New(),
		Admin:        identity.New(),
		FeeRecipient: identity.New(),
	}

	test.ResetDB()

	return &test
}

// ResetDB replaces storage and both ledgers with empty ones.
func (test *Test) ResetDB() {
	test.Storage = storage.NewMockStorage()
	test.MasterDB = db.NewWithStorage(test.Storage)
	test.Tokens = nft.NewLedger(test.Storage)
	test.Payments = funds.NewLedger(test.Storage)
}

// NewMasterDB returns a db over fresh mock storage for tests that don't
// need the full fixture set.
func NewMasterDB(t *testing.T) *db.DB {
	return db.NewWithStorage(storage.NewMockStorage())
}

// FundedBuyer creates an identity holding balance and an allowance of the
// same amount for the marketplace operator.
func (test *Test) FundedBuyer(ctx context.Context, t *testing.T,
	balance uint64) identity.Address {

	buyer := identity.New()

	if err := test.Payments.Credit(ctx, buyer, balance); err != nil {
		t.Fatalf("Failed to credit buyer : %s", err)
	}
	if err := test.Payments.Approve(ctx, buyer, test.Operator, balance); err != nil {
		t.Fatalf("Failed to approve operator : %s", err)
	}

	return buyer
}
