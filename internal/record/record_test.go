package record

import (
	"context"
	"testing"
	"time"

	"github.com/prompthash/marketplace/internal/platform/db"
	"github.com/prompthash/marketplace/internal/platform/state"
	"github.com/prompthash/marketplace/pkg/identity"
	"github.com/prompthash/marketplace/pkg/storage"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func newTestDB() *db.DB {
	return db.NewWithStorage(storage.NewMockStorage())
}

func TestSequentialAllocation(t *testing.T) {
	ctx := context.Background()
	dbConn := newTestDB()
	now := time.Now().UTC()

	owner := identity.New()

	for want := uint64(0); want < 4; want++ {
		nu := NewRecord{
			Owner: owner,
			Price: 1000,
			Title: "prompt",
		}

		r, err := AllocateAndSave(ctx, dbConn, &nu, want, now)
		if err != nil {
			t.Fatalf("Failed to allocate : %s", err)
		}
		if r.ID != want {
			t.Fatalf("Wrong id : got %d, want %d", r.ID, want)
		}
		if r.ForSale || r.Sold {
			t.Fatalf("New record must be unlisted and unsold : %+v", r)
		}
	}

	next, err := NextID(ctx, dbConn)
	if err != nil {
		t.Fatalf("Failed to read next id : %s", err)
	}
	if next != 4 {
		t.Fatalf("Wrong next id : got %d, want 4", next)
	}
}

func TestCounterCatchUp(t *testing.T) {
	ctx := context.Background()
	dbConn := newTestDB()
	now := time.Now().UTC()

	nu := NewRecord{Owner: identity.New(), Price: 1}

	// A lagging counter means an earlier allocation failed after its mint.
	// The store catches up, skipping the gap ids forever.
	r, err := AllocateAndSave(ctx, dbConn, &nu, 3, now)
	if err != nil {
		t.Fatalf("Failed to allocate : %s", err)
	}
	if r.ID != 3 {
		t.Fatalf("Wrong id : got %d, want 3", r.ID)
	}

	next, err := NextID(ctx, dbConn)
	if err != nil {
		t.Fatalf("Failed to read next id : %s", err)
	}
	if next != 4 {
		t.Fatalf("Counter did not catch up : got %d, want 4", next)
	}

	// The gap holds no records.
	results, err := List(ctx, dbConn)
	if err != nil {
		t.Fatalf("Failed to list : %s", err)
	}
	if len(results) != 1 || results[0].ID != 3 {
		t.Fatalf("Wrong listing : %+v", results)
	}
}

func TestCounterAhead(t *testing.T) {
	ctx := context.Background()
	dbConn := newTestDB()
	now := time.Now().UTC()

	nu := NewRecord{Owner: identity.New(), Price: 1}
	if _, err := AllocateAndSave(ctx, dbConn, &nu, 0, now); err != nil {
		t.Fatalf("Failed to allocate : %s", err)
	}

	// A counter ahead of the mint sequence would hand out an id twice.
	if _, err := AllocateAndSave(ctx, dbConn, &nu, 0, now); errors.Cause(err) != ErrCounterMismatch {
		t.Fatalf("Expected ErrCounterMismatch, got %v", err)
	}

	next, err := NextID(ctx, dbConn)
	if err != nil {
		t.Fatalf("Failed to read next id : %s", err)
	}
	if next != 1 {
		t.Fatalf("Counter changed on failure : got %d, want 1", next)
	}
}

func TestFetchAbsent(t *testing.T) {
	ctx := context.Background()
	dbConn := newTestDB()

	if _, err := Fetch(ctx, dbConn, 0); errors.Cause(err) != ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateReadModifyWrite(t *testing.T) {
	ctx := context.Background()
	dbConn := newTestDB()
	now := time.Now().UTC()

	owner := identity.New()
	nu := NewRecord{
		Owner:       owner,
		Price:       500,
		Title:       "prompt",
		Category:    "art",
		MediaURL:    "https://example.com/0.png",
		Description: "a prompt",
	}

	created, err := AllocateAndSave(ctx, dbConn, &nu, 0, now)
	if err != nil {
		t.Fatalf("Failed to allocate : %s", err)
	}

	later := now.Add(time.Minute)
	forSale := true
	price := uint64(900)

	updated, err := Update(ctx, dbConn, 0, &UpdateRecord{
		ForSale: &forSale,
		Price:   &price,
	}, later)
	if err != nil {
		t.Fatalf("Failed to update : %s", err)
	}

	fetched, err := Fetch(ctx, dbConn, 0)
	if err != nil {
		t.Fatalf("Failed to fetch : %s", err)
	}

	if diff := cmp.Diff(updated, fetched); diff != "" {
		t.Fatalf("Update and fetch disagree :\n%s", diff)
	}

	if !fetched.ForSale || fetched.Price != 900 {
		t.Fatalf("Update not applied : %+v", fetched)
	}

	// Untouched fields survive the full rewrite.
	if fetched.Title != created.Title || fetched.Description != created.Description {
		t.Fatalf("Descriptive fields changed : %+v", fetched)
	}
	if !fetched.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("CreatedAt changed : %v != %v", fetched.CreatedAt, created.CreatedAt)
	}
}

func TestListSkipsAbsent(t *testing.T) {
	ctx := context.Background()
	dbConn := newTestDB()
	now := time.Now().UTC()

	owner := identity.New()

	for id := uint64(0); id < 3; id++ {
		nu := NewRecord{Owner: owner, Price: 100 * (id + 1)}
		if _, err := AllocateAndSave(ctx, dbConn, &nu, id, now); err != nil {
			t.Fatalf("Failed to allocate : %s", err)
		}
	}

	// Simulate a sparse range.
	if err := dbConn.Remove(ctx, "records/tokens/1"); err != nil {
		t.Fatalf("Failed to remove record : %s", err)
	}

	results, err := List(ctx, dbConn)
	if err != nil {
		t.Fatalf("Failed to list : %s", err)
	}

	if len(results) != 2 {
		t.Fatalf("Wrong result count : got %d, want 2", len(results))
	}
	if results[0].ID != 0 || results[1].ID != 2 {
		t.Fatalf("Wrong ids : got %d, %d", results[0].ID, results[1].ID)
	}
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	dbConn := newTestDB()
	now := time.Now().UTC()

	nu := NewRecord{Owner: identity.New(), Price: 100}
	if _, err := AllocateAndSave(ctx, dbConn, &nu, 0, now); err != nil {
		t.Fatalf("Failed to allocate : %s", err)
	}

	if err := Migrate(ctx, dbConn, now); err != nil {
		t.Fatalf("Failed to migrate : %s", err)
	}

	version, err := Version(ctx, dbConn)
	if err != nil {
		t.Fatalf("Failed to read version : %s", err)
	}
	if version != CurrentVersion {
		t.Fatalf("Wrong version : got %d, want %d", version, CurrentVersion)
	}

	if err := Migrate(ctx, dbConn, now); errors.Cause(err) != ErrUpToDate {
		t.Fatalf("Expected ErrUpToDate, got %v", err)
	}
}

func TestSaveFullOverwrite(t *testing.T) {
	ctx := context.Background()
	dbConn := newTestDB()
	now := time.Now().UTC()

	r := state.Record{
		ID:    0,
		Owner: identity.New(),
		Price: 100,
		Title: "original",
	}

	if err := Save(ctx, dbConn, &r); err != nil {
		t.Fatalf("Failed to save : %s", err)
	}

	r.Title = "overwritten"
	r.UpdatedAt = now
	if err := Save(ctx, dbConn, &r); err != nil {
		t.Fatalf("Failed to overwrite : %s", err)
	}

	fetched, err := Fetch(ctx, dbConn, 0)
	if err != nil {
		t.Fatalf("Failed to fetch : %s", err)
	}
	if fetched.Title != "overwritten" {
		t.Fatalf("Overwrite not applied : %+v", fetched)
	}
}
