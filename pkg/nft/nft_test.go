package nft

import (
	"context"
	"testing"

	"github.com/prompthash/marketplace/pkg/identity"
	"github.com/prompthash/marketplace/pkg/storage"

	"github.com/pkg/errors"
)

func TestMintSequence(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(storage.NewMockStorage())

	owner := identity.New()

	for want := uint64(0); want < 5; want++ {
		id, err := l.Mint(ctx, owner)
		if err != nil {
			t.Fatalf("Failed to mint : %s", err)
		}
		if id != want {
			t.Fatalf("Wrong token id : got %d, want %d", id, want)
		}
	}

	next, err := l.NextID(ctx)
	if err != nil {
		t.Fatalf("Failed to read next id : %s", err)
	}
	if next != 5 {
		t.Fatalf("Wrong next id : got %d, want 5", next)
	}
}

func TestOwnerOf(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(storage.NewMockStorage())

	owner := identity.New()

	id, err := l.Mint(ctx, owner)
	if err != nil {
		t.Fatalf("Failed to mint : %s", err)
	}

	holder, err := l.OwnerOf(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get owner : %s", err)
	}
	if !holder.Equal(owner) {
		t.Fatalf("Wrong owner : got %s, want %s", holder, owner)
	}

	if _, err := l.OwnerOf(ctx, 99); errors.Cause(err) != ErrNotFound {
		t.Fatalf("Expected ErrNotFound for unminted id, got %v", err)
	}
}

func TestTransferAuthorization(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(storage.NewMockStorage())

	owner := identity.New()
	operator := identity.New()
	receiver := identity.New()
	stranger := identity.New()

	id, err := l.Mint(ctx, owner)
	if err != nil {
		t.Fatalf("Failed to mint : %s", err)
	}

	// A stranger can't move the token.
	if err := l.TransferFrom(ctx, stranger, owner, receiver, id); errors.Cause(err) != ErrUnauthorized {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}

	// Approval is owner only.
	if err := l.Approve(ctx, stranger, operator, id); errors.Cause(err) != ErrUnauthorized {
		t.Fatalf("Expected ErrUnauthorized for stranger approve, got %v", err)
	}
	if err := l.Approve(ctx, owner, operator, id); err != nil {
		t.Fatalf("Failed to approve : %s", err)
	}

	// From must hold the token.
	if err := l.TransferFrom(ctx, operator, receiver, stranger, id); errors.Cause(err) != ErrWrongOwner {
		t.Fatalf("Expected ErrWrongOwner, got %v", err)
	}

	if err := l.TransferFrom(ctx, operator, owner, receiver, id); err != nil {
		t.Fatalf("Failed to transfer : %s", err)
	}

	holder, err := l.OwnerOf(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get owner : %s", err)
	}
	if !holder.Equal(receiver) {
		t.Fatalf("Wrong owner after transfer : got %s, want %s", holder, receiver)
	}

	// Approval does not survive the transfer.
	if err := l.TransferFrom(ctx, operator, receiver, stranger, id); errors.Cause(err) != ErrUnauthorized {
		t.Fatalf("Expected ErrUnauthorized after approval cleared, got %v", err)
	}
}

func TestBurn(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(storage.NewMockStorage())

	owner := identity.New()

	id, err := l.Mint(ctx, owner)
	if err != nil {
		t.Fatalf("Failed to mint : %s", err)
	}

	if err := l.Burn(ctx, identity.New(), id); errors.Cause(err) != ErrUnauthorized {
		t.Fatalf("Expected ErrUnauthorized for stranger burn, got %v", err)
	}

	if err := l.Burn(ctx, owner, id); err != nil {
		t.Fatalf("Failed to burn : %s", err)
	}

	if _, err := l.OwnerOf(ctx, id); errors.Cause(err) != ErrNotFound {
		t.Fatalf("Expected ErrNotFound after burn, got %v", err)
	}

	// The id is never reused.
	next, err := l.Mint(ctx, owner)
	if err != nil {
		t.Fatalf("Failed to mint : %s", err)
	}
	if next != id+1 {
		t.Fatalf("Burned id reused : got %d, want %d", next, id+1)
	}
}
