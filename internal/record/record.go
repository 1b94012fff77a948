package record

import (
	"context"
	"time"

	"github.com/prompthash/marketplace/internal/platform/db"
	"github.com/prompthash/marketplace/internal/platform/state"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// CurrentVersion is the storage schema version written by Migrate.
const CurrentVersion = 1

var (
	// ErrNotFound abstracts the standard not found error.
	ErrNotFound = errors.New("Record not found")

	// ErrCounterMismatch occurs when the allocation counter is ahead of the
	// identity ledger's mint sequence. This indicates storage corruption and
	// is fatal for the operation.
	ErrCounterMismatch = errors.New("Record counter out of sync with token id")

	// ErrUpToDate occurs when a migration is requested against a store that
	// is already at the current version.
	ErrUpToDate = errors.New("Storage already at current version")
)

// Retrieve gets the specified record from the database.
func Retrieve(ctx context.Context, dbConn *db.DB, id uint64) (*state.Record, error) {
	ctx, span := trace.StartSpan(ctx, "internal.record.Retrieve")
	defer span.End()

	return Fetch(ctx, dbConn, id)
}

// AllocateAndSave stores the full record under the id just minted on the
// identity ledger and advances the allocation counter past it.
//
// The counter may lag tokenID when an earlier allocation minted its token but
// failed before this counter write. Records only ever exist at ids below the
// counter, so the gap holds no records and the counter safely catches up; the
// skipped ids stay unused forever. A counter AHEAD of the mint sequence has
// no such explanation and fails the call without writing.
//
// The counter advances before the record write so a failed write can never
// lead to an id being assigned twice.
func AllocateAndSave(ctx context.Context, dbConn *db.DB, nu *NewRecord,
	tokenID uint64, now time.Time) (*state.Record, error) {

	ctx, span := trace.StartSpan(ctx, "internal.record.AllocateAndSave")
	defer span.End()

	counter, err := Counter(ctx, dbConn)
	if err != nil {
		return nil, err
	}

	if counter > tokenID {
		return nil, errors.Wrapf(ErrCounterMismatch, "counter %d token %d",
			counter, tokenID)
	}

	if err := saveCounter(ctx, dbConn, tokenID+1); err != nil {
		return nil, errors.Wrap(err, "Failed to advance record counter")
	}

	r := state.Record{
		ID:          tokenID,
		Owner:       nu.Owner,
		Price:       nu.Price,
		ForSale:     false,
		Sold:        false,
		Title:       nu.Title,
		Category:    nu.Category,
		MediaURL:    nu.MediaURL,
		Description: nu.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := Save(ctx, dbConn, &r); err != nil {
		return nil, err
	}

	return &r, nil
}

// Update applies the supplied changes as one full read-modify-write of the
// record. The caller is responsible for business rule validation; the store
// only persists.
func Update(ctx context.Context, dbConn *db.DB, id uint64, upd *UpdateRecord,
	now time.Time) (*state.Record, error) {

	ctx, span := trace.StartSpan(ctx, "internal.record.Update")
	defer span.End()

	r, err := Fetch(ctx, dbConn, id)
	if err != nil {
		return nil, err
	}

	if upd.Owner != nil {
		r.Owner = *upd.Owner
	}
	if upd.Price != nil {
		r.Price = *upd.Price
	}
	if upd.ForSale != nil {
		r.ForSale = *upd.ForSale
	}
	if upd.Sold != nil {
		r.Sold = *upd.Sold
	}

	r.UpdatedAt = now

	if err := Save(ctx, dbConn, r); err != nil {
		return nil, err
	}

	return r, nil
}

// List returns all records ordered by id. Ids with no stored record are
// skipped; a burn on the identity ledger does not remove a record, but the
// range is tolerated sparse anyway.
func List(ctx context.Context, dbConn *db.DB) ([]state.Record, error) {
	ctx, span := trace.StartSpan(ctx, "internal.record.List")
	defer span.End()

	counter, err := Counter(ctx, dbConn)
	if err != nil {
		return nil, err
	}

	results := make([]state.Record, 0, counter)
	for id := uint64(0); id < counter; id++ {
		r, err := Fetch(ctx, dbConn, id)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				continue
			}
			return nil, err
		}

		results = append(results, *r)
	}

	return results, nil
}

// NextID returns the id the next creation will be assigned.
func NextID(ctx context.Context, dbConn *db.DB) (uint64, error) {
	return Counter(ctx, dbConn)
}

// Migrate rewrites every record through the current codec and stamps the
// storage version. Fails with ErrUpToDate when there is nothing to do.
func Migrate(ctx context.Context, dbConn *db.DB, now time.Time) error {
	ctx, span := trace.StartSpan(ctx, "internal.record.Migrate")
	defer span.End()

	version, err := Version(ctx, dbConn)
	if err != nil {
		return err
	}

	if version >= CurrentVersion {
		return ErrUpToDate
	}

	counter, err := Counter(ctx, dbConn)
	if err != nil {
		return err
	}

	for id := uint64(0); id < counter; id++ {
		r, err := Fetch(ctx, dbConn, id)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				continue
			}
			return err
		}

		if err := Save(ctx, dbConn, r); err != nil {
			return errors.Wrapf(err, "Failed to rewrite record %d", id)
		}
	}

	return saveVersion(ctx, dbConn, CurrentVersion)
}
