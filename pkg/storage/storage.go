package storage

import (
	"context"
	"errors"
	"os"
)

// ErrNotFound is returned when a key does not exist in storage.
var ErrNotFound = errors.New("Not found")

// Storage is implemented by "bucket" style stores, where a key maps to an
// opaque byte payload under a specific root.
type Storage interface {
	ReadWriter
	Remove(ctx context.Context, key string) error
	Search(ctx context.Context, query map[string]string) ([][]byte, error)
	List(ctx context.Context, path string) ([]string, error)
	Clear(ctx context.Context, query map[string]string) error
}

// ReadWriter is the minimal contract needed by most consumers.
type ReadWriter interface {
	Reader
	Writer
}

type Reader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

type Writer interface {
	Write(ctx context.Context, key string, body []byte, options *Options) error
}

// Options alter the behavior of a write.
type Options struct {
	// TTL in seconds, if supported by the backend.
	TTL int64

	Mode    os.FileMode
	DirMode os.FileMode
}

// NewOptions returns Options with sane defaults.
func NewOptions() Options {
	return Options{
		Mode:    0644,
		DirMode: 0755,
	}
}
