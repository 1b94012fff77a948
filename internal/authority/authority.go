package authority

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prompthash/marketplace/internal/platform/db"
	"github.com/prompthash/marketplace/internal/platform/state"
	"github.com/prompthash/marketplace/pkg/identity"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

var (
	// ErrNotFound occurs when no authority state has been bootstrapped.
	ErrNotFound = errors.New("Authority not found")

	// ErrUnauthorized occurs when the caller is not the required principal.
	ErrUnauthorized = errors.New("Unauthorized")
)

const storageKey = "authority/state"

// Bootstrap writes the initial administrator if none is persisted yet. A
// second bootstrap is a no-op; the admin can only change through the
// two-phase handoff.
func Bootstrap(ctx context.Context, dbConn *db.DB, admin identity.Address,
	now time.Time) error {

	ctx, span := trace.StartSpan(ctx, "internal.authority.Bootstrap")
	defer span.End()

	if admin.IsZero() {
		return errors.Wrap(identity.ErrInvalidAddress, "admin")
	}

	if _, err := Fetch(ctx, dbConn); err == nil {
		return nil
	} else if errors.Cause(err) != ErrNotFound {
		return err
	}

	a := state.Authority{
		Admin:     admin,
		UpdatedAt: now,
	}

	return save(ctx, dbConn, &a)
}

// Admin returns the current administrator identity.
func Admin(ctx context.Context, dbConn *db.DB) (identity.Address, error) {
	a, err := Fetch(ctx, dbConn)
	if err != nil {
		return "", err
	}

	return a.Admin, nil
}

// Require fails with ErrUnauthorized unless addr is the current
// administrator.
func Require(ctx context.Context, dbConn *db.DB, addr identity.Address) error {
	a, err := Fetch(ctx, dbConn)
	if err != nil {
		return err
	}

	if !a.Admin.Equal(addr) {
		return ErrUnauthorized
	}

	return nil
}

// Nominate starts the two-phase handoff: the current admin names a
// successor. Nothing changes until the successor accepts, and a later
// nomination overwrites an earlier one.
func Nominate(ctx context.Context, dbConn *db.DB, current, successor identity.Address,
	now time.Time) error {

	ctx, span := trace.StartSpan(ctx, "internal.authority.Nominate")
	defer span.End()

	if successor.IsZero() {
		return errors.Wrap(identity.ErrInvalidAddress, "successor")
	}

	a, err := Fetch(ctx, dbConn)
	if err != nil {
		return err
	}

	if !a.Admin.Equal(current) {
		return ErrUnauthorized
	}

	a.Pending = successor
	a.UpdatedAt = now

	return save(ctx, dbConn, a)
}

// Accept completes the handoff. The caller must be the nominated successor.
func Accept(ctx context.Context, dbConn *db.DB, successor identity.Address,
	now time.Time) error {

	ctx, span := trace.StartSpan(ctx, "internal.authority.Accept")
	defer span.End()

	a, err := Fetch(ctx, dbConn)
	if err != nil {
		return err
	}

	if a.Pending.IsZero() || !a.Pending.Equal(successor) {
		return ErrUnauthorized
	}

	a.Admin = successor
	a.Pending = ""
	a.UpdatedAt = now

	return save(ctx, dbConn, a)
}

// Fetch the authority state from storage.
func Fetch(ctx context.Context, dbConn *db.DB) (*state.Authority, error) {
	b, err := dbConn.Fetch(ctx, storageKey)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, ErrNotFound
		}

		return nil, errors.Wrap(err, "Failed to fetch authority")
	}

	a := state.Authority{}
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal authority")
	}

	return &a, nil
}

func save(ctx context.Context, dbConn *db.DB, a *state.Authority) error {
	data, err := json.Marshal(a)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal authority")
	}

	return dbConn.Put(ctx, storageKey, data)
}
