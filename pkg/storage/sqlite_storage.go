package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStorage implements the Storage interface backed by a single sqlite
// database file under the configured root. Keys map to rows in one
// key/value table.
type SQLiteStorage struct {
	Config Config
	db     *sql.DB
}

// NewSQLiteStorage opens (creating if needed) the database file
// <root>/market.db and prepares the key/value table.
func NewSQLiteStorage(config Config) (*SQLiteStorage, error) {
	if len(config.Root) > 0 {
		if err := os.MkdirAll(filepath.FromSlash(config.Root), 0755); err != nil {
			return nil, err
		}
	}

	path := filepath.Join(filepath.FromSlash(config.Root), "market.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("Failed to open sqlite db at %v : %v", path, err)
	}

	// Serialize access. The driver is safe for concurrent use, but a single
	// writer avoids SQLITE_BUSY on overlapping writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS objects (key TEXT PRIMARY KEY, value BLOB NOT NULL)`,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("Failed to create objects table : %v", err)
	}

	return &SQLiteStorage{
		Config: config,
		db:     db,
	}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Write upserts the data at key.
func (s *SQLiteStorage) Write(ctx context.Context,
	key string,
	body []byte,
	options *Options) error {

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO objects (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, body)
	if err != nil {
		return fmt.Errorf("Failed to write to %v : %v", key, err)
	}

	return nil
}

// Read returns the data at key.
func (s *SQLiteStorage) Read(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM objects WHERE key = ?`, key).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Failed to read from %v : %v", key, err)
	}

	return body, nil
}

// Remove deletes the data at key.
func (s *SQLiteStorage) Remove(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM objects WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("Failed to delete object at %v : %v", key, err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	return nil
}

// Search returns all objects under the queried path.
func (s *SQLiteStorage) Search(ctx context.Context,
	query map[string]string) ([][]byte, error) {

	path := query["path"]

	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM objects WHERE key LIKE ? ORDER BY key`,
		prefixPattern(path))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	objects := [][]byte{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		objects = append(objects, body)
	}

	return objects, rows.Err()
}

// List returns the keys under the given path.
func (s *SQLiteStorage) List(ctx context.Context, path string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM objects WHERE key LIKE ? ORDER BY key`,
		prefixPattern(path))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// Clear removes all objects under the queried path.
func (s *SQLiteStorage) Clear(ctx context.Context, query map[string]string) error {
	path := query["path"]

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM objects WHERE key LIKE ?`, prefixPattern(path))
	return err
}

func prefixPattern(path string) string {
	if len(path) == 0 {
		return "%"
	}

	return strings.TrimSuffix(path, "/") + "/%"
}
