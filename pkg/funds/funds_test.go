package funds

import (
	"context"
	"math"
	"testing"

	"github.com/prompthash/marketplace/pkg/identity"
	"github.com/prompthash/marketplace/pkg/storage"

	"github.com/pkg/errors"
)

func TestCreditAndBalance(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(storage.NewMockStorage())

	addr := identity.New()

	balance, err := l.Balance(ctx, addr)
	if err != nil {
		t.Fatalf("Failed to read balance : %s", err)
	}
	if balance != 0 {
		t.Fatalf("Unknown address should hold zero, got %d", balance)
	}

	if err := l.Credit(ctx, addr, 10000); err != nil {
		t.Fatalf("Failed to credit : %s", err)
	}
	if err := l.Credit(ctx, addr, 2345); err != nil {
		t.Fatalf("Failed to credit : %s", err)
	}

	balance, err = l.Balance(ctx, addr)
	if err != nil {
		t.Fatalf("Failed to read balance : %s", err)
	}
	if balance != 12345 {
		t.Fatalf("Wrong balance : got %d, want 12345", balance)
	}
}

func TestTransferFromDirect(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(storage.NewMockStorage())

	from := identity.New()
	to := identity.New()

	if err := l.Credit(ctx, from, 100); err != nil {
		t.Fatalf("Failed to credit : %s", err)
	}

	// Holder spends their own funds without an allowance.
	if err := l.TransferFrom(ctx, from, from, to, 60); err != nil {
		t.Fatalf("Failed to transfer : %s", err)
	}

	assertBalance(t, l, from, 40)
	assertBalance(t, l, to, 60)

	if err := l.TransferFrom(ctx, from, from, to, 41); errors.Cause(err) != ErrInsufficientFunds {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	// The failed transfer moved nothing.
	assertBalance(t, l, from, 40)
	assertBalance(t, l, to, 60)
}

func TestTransferFromAllowance(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(storage.NewMockStorage())

	owner := identity.New()
	spender := identity.New()
	to := identity.New()

	if err := l.Credit(ctx, owner, 1000); err != nil {
		t.Fatalf("Failed to credit : %s", err)
	}

	if err := l.TransferFrom(ctx, spender, owner, to, 100); errors.Cause(err) != ErrInsufficientApproval {
		t.Fatalf("Expected ErrInsufficientApproval, got %v", err)
	}

	if err := l.Approve(ctx, owner, spender, 300); err != nil {
		t.Fatalf("Failed to approve : %s", err)
	}

	if err := l.TransferFrom(ctx, spender, owner, to, 100); err != nil {
		t.Fatalf("Failed to transfer : %s", err)
	}

	allowance, err := l.Allowance(ctx, owner, spender)
	if err != nil {
		t.Fatalf("Failed to read allowance : %s", err)
	}
	if allowance != 200 {
		t.Fatalf("Allowance not drawn down : got %d, want 200", allowance)
	}

	if err := l.TransferFrom(ctx, spender, owner, to, 201); errors.Cause(err) != ErrInsufficientApproval {
		t.Fatalf("Expected ErrInsufficientApproval, got %v", err)
	}

	// A rejected transfer must not touch the allowance.
	allowance, err = l.Allowance(ctx, owner, spender)
	if err != nil {
		t.Fatalf("Failed to read allowance : %s", err)
	}
	if allowance != 200 {
		t.Fatalf("Rejected transfer changed allowance : got %d, want 200", allowance)
	}

	assertBalance(t, l, owner, 900)
	assertBalance(t, l, to, 100)
}

func TestBalanceOverflow(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(storage.NewMockStorage())

	from := identity.New()
	to := identity.New()

	if err := l.Credit(ctx, to, math.MaxUint64); err != nil {
		t.Fatalf("Failed to credit : %s", err)
	}

	// A further credit would wrap the balance.
	if err := l.Credit(ctx, to, 1); errors.Cause(err) != ErrBalanceOverflow {
		t.Fatalf("Expected ErrBalanceOverflow, got %v", err)
	}
	assertBalance(t, l, to, math.MaxUint64)

	if err := l.Credit(ctx, from, 100); err != nil {
		t.Fatalf("Failed to credit : %s", err)
	}

	// A transfer into a saturated balance is rejected before anything is
	// written.
	if err := l.TransferFrom(ctx, from, from, to, 1); errors.Cause(err) != ErrBalanceOverflow {
		t.Fatalf("Expected ErrBalanceOverflow, got %v", err)
	}
	assertBalance(t, l, from, 100)
	assertBalance(t, l, to, math.MaxUint64)

	// An allowance draw must also be left untouched by the rejection.
	spender := identity.New()
	if err := l.Approve(ctx, from, spender, 50); err != nil {
		t.Fatalf("Failed to approve : %s", err)
	}
	if err := l.TransferFrom(ctx, spender, from, to, 50); errors.Cause(err) != ErrBalanceOverflow {
		t.Fatalf("Expected ErrBalanceOverflow, got %v", err)
	}
	allowance, err := l.Allowance(ctx, from, spender)
	if err != nil {
		t.Fatalf("Failed to read allowance : %s", err)
	}
	if allowance != 50 {
		t.Fatalf("Rejected transfer changed allowance : got %d, want 50", allowance)
	}

	// A self transfer never changes the balance so saturation is fine.
	if err := l.TransferFrom(ctx, to, to, to, 10); err != nil {
		t.Fatalf("Failed to self transfer : %s", err)
	}
	assertBalance(t, l, to, math.MaxUint64)
}

func TestSelfTransfer(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(storage.NewMockStorage())

	addr := identity.New()

	if err := l.Credit(ctx, addr, 500); err != nil {
		t.Fatalf("Failed to credit : %s", err)
	}

	if err := l.TransferFrom(ctx, addr, addr, addr, 500); err != nil {
		t.Fatalf("Failed to self transfer : %s", err)
	}

	assertBalance(t, l, addr, 500)
}

func assertBalance(t *testing.T, l *Ledger, addr identity.Address, want uint64) {
	t.Helper()

	balance, err := l.Balance(context.Background(), addr)
	if err != nil {
		t.Fatalf("Failed to read balance : %s", err)
	}
	if balance != want {
		t.Fatalf("Wrong balance for %s : got %d, want %d", addr, balance, want)
	}
}
