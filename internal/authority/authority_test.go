package authority

import (
	"context"
	"testing"
	"time"

	"github.com/prompthash/marketplace/internal/platform/db"
	"github.com/prompthash/marketplace/pkg/identity"
	"github.com/prompthash/marketplace/pkg/storage"

	"github.com/pkg/errors"
)

func newTestDB() *db.DB {
	return db.NewWithStorage(storage.NewMockStorage())
}

func TestBootstrapOnce(t *testing.T) {
	ctx := context.Background()
	dbConn := newTestDB()
	now := time.Now().UTC()

	admin := identity.New()
	other := identity.New()

	if _, err := Admin(ctx, dbConn); errors.Cause(err) != ErrNotFound {
		t.Fatalf("Expected ErrNotFound before bootstrap, got %v", err)
	}

	if err := Bootstrap(ctx, dbConn, admin, now); err != nil {
		t.Fatalf("Failed to bootstrap : %s", err)
	}

	// A second bootstrap must not replace the admin.
	if err := Bootstrap(ctx, dbConn, other, now); err != nil {
		t.Fatalf("Failed on repeat bootstrap : %s", err)
	}

	current, err := Admin(ctx, dbConn)
	if err != nil {
		t.Fatalf("Failed to read admin : %s", err)
	}
	if !current.Equal(admin) {
		t.Fatalf("Wrong admin : got %s, want %s", current, admin)
	}
}

func TestRequire(t *testing.T) {
	ctx := context.Background()
	dbConn := newTestDB()
	now := time.Now().UTC()

	admin := identity.New()

	if err := Bootstrap(ctx, dbConn, admin, now); err != nil {
		t.Fatalf("Failed to bootstrap : %s", err)
	}

	if err := Require(ctx, dbConn, admin); err != nil {
		t.Fatalf("Admin rejected : %s", err)
	}

	if err := Require(ctx, dbConn, identity.New()); errors.Cause(err) != ErrUnauthorized {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestTwoPhaseHandoff(t *testing.T) {
	ctx := context.Background()
	dbConn := newTestDB()
	now := time.Now().UTC()

	admin := identity.New()
	successor := identity.New()
	stranger := identity.New()

	if err := Bootstrap(ctx, dbConn, admin, now); err != nil {
		t.Fatalf("Failed to bootstrap : %s", err)
	}

	// Only the current admin can nominate.
	if err := Nominate(ctx, dbConn, stranger, successor, now); errors.Cause(err) != ErrUnauthorized {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}

	// Accept before any nomination fails.
	if err := Accept(ctx, dbConn, successor, now); errors.Cause(err) != ErrUnauthorized {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}

	if err := Nominate(ctx, dbConn, admin, successor, now); err != nil {
		t.Fatalf("Failed to nominate : %s", err)
	}

	// The nomination alone changes nothing.
	current, err := Admin(ctx, dbConn)
	if err != nil {
		t.Fatalf("Failed to read admin : %s", err)
	}
	if !current.Equal(admin) {
		t.Fatalf("Nomination changed admin : got %s", current)
	}

	// Only the nominated successor can accept.
	if err := Accept(ctx, dbConn, stranger, now); errors.Cause(err) != ErrUnauthorized {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}

	if err := Accept(ctx, dbConn, successor, now); err != nil {
		t.Fatalf("Failed to accept : %s", err)
	}

	current, err = Admin(ctx, dbConn)
	if err != nil {
		t.Fatalf("Failed to read admin : %s", err)
	}
	if !current.Equal(successor) {
		t.Fatalf("Wrong admin after handoff : got %s, want %s", current, successor)
	}

	// The pending slot is cleared; a second accept fails.
	if err := Accept(ctx, dbConn, successor, now); errors.Cause(err) != ErrUnauthorized {
		t.Fatalf("Expected ErrUnauthorized on repeat accept, got %v", err)
	}
}
