package storage

import (
	"context"
	"reflect"
	"testing"
)

func TestMockReadWriteRemove(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()

	if _, err := store.Read(ctx, "a/b"); err != ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	if err := store.Write(ctx, "a/b", []byte("payload"), nil); err != nil {
		t.Fatalf("Failed to write : %s", err)
	}

	b, err := store.Read(ctx, "a/b")
	if err != nil {
		t.Fatalf("Failed to read : %s", err)
	}
	if string(b) != "payload" {
		t.Fatalf("Wrong payload : got %q", b)
	}

	if err := store.Remove(ctx, "a/b"); err != nil {
		t.Fatalf("Failed to remove : %s", err)
	}
	if err := store.Remove(ctx, "a/b"); err != ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestMockList(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()

	keys := []string{"records/tokens/0", "records/tokens/1", "other/x"}
	for _, key := range keys {
		if err := store.Write(ctx, key, []byte(key), nil); err != nil {
			t.Fatalf("Failed to write %s : %s", key, err)
		}
	}

	got, err := store.List(ctx, "records/tokens")
	if err != nil {
		t.Fatalf("Failed to list : %s", err)
	}

	want := []string{"records/tokens/0", "records/tokens/1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Wrong keys : got %v, want %v", got, want)
	}
}

func TestFilesystemRoundTrip(t *testing.T) {
	ctx := context.Background()

	config := NewConfig("", "", "", "standalone", t.TempDir())
	store := NewFilesystemStorage(config)

	if _, err := store.Read(ctx, "records/tokens/0"); err != ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	if err := store.Write(ctx, "records/tokens/0", []byte("r0"), nil); err != nil {
		t.Fatalf("Failed to write : %s", err)
	}
	if err := store.Write(ctx, "records/tokens/1", []byte("r1"), nil); err != nil {
		t.Fatalf("Failed to write : %s", err)
	}

	b, err := store.Read(ctx, "records/tokens/0")
	if err != nil {
		t.Fatalf("Failed to read : %s", err)
	}
	if string(b) != "r0" {
		t.Fatalf("Wrong payload : got %q", b)
	}

	keys, err := store.List(ctx, "records/tokens")
	if err != nil {
		t.Fatalf("Failed to list : %s", err)
	}
	if len(keys) != 2 {
		t.Fatalf("Wrong key count : got %d, want 2", len(keys))
	}

	objects, err := store.Search(ctx, map[string]string{"path": "records/tokens"})
	if err != nil {
		t.Fatalf("Failed to search : %s", err)
	}
	if len(objects) != 2 {
		t.Fatalf("Wrong object count : got %d, want 2", len(objects))
	}

	if err := store.Clear(ctx, map[string]string{"path": "records/tokens"}); err != nil {
		t.Fatalf("Failed to clear : %s", err)
	}
	if _, err := store.Read(ctx, "records/tokens/0"); err != ErrNotFound {
		t.Fatalf("Expected ErrNotFound after clear, got %v", err)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()

	config := NewConfig("", "", "", "sqlite", t.TempDir())
	store, err := NewSQLiteStorage(config)
	if err != nil {
		t.Fatalf("Failed to open sqlite storage : %s", err)
	}
	defer store.Close()

	if _, err := store.Read(ctx, "records/tokens/0"); err != ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	if err := store.Write(ctx, "records/tokens/0", []byte("r0"), nil); err != nil {
		t.Fatalf("Failed to write : %s", err)
	}

	// Overwrite is an upsert.
	if err := store.Write(ctx, "records/tokens/0", []byte("r0v2"), nil); err != nil {
		t.Fatalf("Failed to overwrite : %s", err)
	}

	b, err := store.Read(ctx, "records/tokens/0")
	if err != nil {
		t.Fatalf("Failed to read : %s", err)
	}
	if string(b) != "r0v2" {
		t.Fatalf("Wrong payload : got %q", b)
	}

	keys, err := store.List(ctx, "records/tokens")
	if err != nil {
		t.Fatalf("Failed to list : %s", err)
	}
	if !reflect.DeepEqual(keys, []string{"records/tokens/0"}) {
		t.Fatalf("Wrong keys : got %v", keys)
	}

	if err := store.Remove(ctx, "records/tokens/0"); err != nil {
		t.Fatalf("Failed to remove : %s", err)
	}
	if err := store.Remove(ctx, "records/tokens/0"); err != ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
