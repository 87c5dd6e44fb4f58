// Package store defines the durable key/value surface the cache persists
// snapshots into.
//
// A Store holds one opaque blob per persistence key. The cache treats the
// backend as a size-constrained byte sink: reads and removes are plain,
// writes may fail with ErrQuotaExceeded when the backend is full. Anything
// that satisfies the three-method contract can back the cache (an in-memory
// map, a file on disk, an object store).
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Read when no blob exists for the key.
	ErrNotFound = errors.New("store: key not found")

	// ErrQuotaExceeded is returned by Write when storing the blob would
	// exceed the backend's byte quota.
	ErrQuotaExceeded = errors.New("store: quota exceeded")
)

// Store is the persistence surface consumed by the cache.
// Implementations must be safe for concurrent use.
type Store interface {
	// Read returns the blob stored under key, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write stores the blob under key, replacing any previous value.
	// Returns an error satisfying errors.Is(err, ErrQuotaExceeded) when the
	// backend's byte quota would be exceeded.
	Write(ctx context.Context, key string, data []byte) error

	// Remove deletes the blob stored under key. Removing a missing key is
	// not an error.
	Remove(ctx context.Context, key string) error
}

// QuotaError reports a rejected write together with the sizes involved.
//
// It unwraps to ErrQuotaExceeded so callers can match with errors.Is.
type QuotaError struct {
	Key   string
	Size  int64 // bytes the write needed
	Limit int64 // configured quota
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("store: quota exceeded writing %q: need %d bytes, limit %d", e.Key, e.Size, e.Limit)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }
