package tagstash

import (
	"errors"
	"fmt"
)

var (
	// ErrDestroyed is returned when a mutating operation is attempted on a
	// destroyed cache.
	ErrDestroyed = errors.New("cache is destroyed")

	// ErrPersistenceDisabled is returned by Flush when the cache was built
	// without a persistence store.
	ErrPersistenceDisabled = errors.New("persistence is not enabled")

	// ErrBadPattern is returned by InvalidateByPattern for patterns that do
	// not compile. This is the one caller-input error the cache propagates;
	// storage failures are recovered internally.
	ErrBadPattern = errors.New("invalid invalidation pattern")
)

// EncodeError indicates a value that the configured codec cannot serialize.
//
// The underlying codec error can be accessed via errors.Unwrap.
type EncodeError struct {
	Key   string
	cause error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode value for key %q: %v", e.Key, e.cause)
}

func (e *EncodeError) Unwrap() error { return e.cause }
