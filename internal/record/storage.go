package record

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/prompthash/marketplace/internal/platform/db"
	"github.com/prompthash/marketplace/internal/platform/state"

	"github.com/pkg/errors"
)

const (
	storageKey = "records"

	counterKey = storageKey + "/counter"
	versionKey = storageKey + "/version"
)

// Save puts a single record in storage. The full structure is written every
// time; partial field updates are not supported by the store.
func Save(ctx context.Context, dbConn *db.DB, r *state.Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal record")
	}

	return dbConn.Put(ctx, buildStoragePath(r.ID), data)
}

// Fetch a single record from storage.
func Fetch(ctx context.Context, dbConn *db.DB, id uint64) (*state.Record, error) {
	b, err := dbConn.Fetch(ctx, buildStoragePath(id))
	if err != nil {
		if err == db.ErrNotFound {
			return nil, ErrNotFound
		}

		return nil, errors.Wrap(err, "Failed to fetch record")
	}

	r := state.Record{}
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal record")
	}

	return &r, nil
}

// Counter returns the id the next allocation will assign. Zero when nothing
// has been allocated yet.
func Counter(ctx context.Context, dbConn *db.DB) (uint64, error) {
	b, err := dbConn.Fetch(ctx, counterKey)
	if err != nil {
		if err == db.ErrNotFound {
			return 0, nil
		}

		return 0, errors.Wrap(err, "Failed to fetch record counter")
	}

	value, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "Corrupt record counter")
	}

	return value, nil
}

func saveCounter(ctx context.Context, dbConn *db.DB, value uint64) error {
	return dbConn.Put(ctx, counterKey, []byte(strconv.FormatUint(value, 10)))
}

// Version returns the persisted storage schema version. Zero when the store
// has never been migrated.
func Version(ctx context.Context, dbConn *db.DB) (uint32, error) {
	b, err := dbConn.Fetch(ctx, versionKey)
	if err != nil {
		if err == db.ErrNotFound {
			return 0, nil
		}

		return 0, errors.Wrap(err, "Failed to fetch storage version")
	}

	value, err := strconv.ParseUint(string(b), 10, 32)
	if err != nil {
		return 0, errors.Wrap(err, "Corrupt storage version")
	}

	return uint32(value), nil
}

func saveVersion(ctx context.Context, dbConn *db.DB, value uint32) error {
	return dbConn.Put(ctx, versionKey, []byte(strconv.FormatUint(uint64(value), 10)))
}

// Returns the storage path for a given id.
func buildStoragePath(id uint64) string {
	return fmt.Sprintf("%s/tokens/%d", storageKey, id)
}
