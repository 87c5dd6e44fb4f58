package tagstash

import "time"

// Priority scales an entry's effective TTL: high-priority entries survive
// longer under the same configured lifetime.
type Priority int

const (
	// PriorityMedium is the default: TTL is used as configured.
	PriorityMedium Priority = iota

	// PriorityLow halves the effective TTL.
	PriorityLow

	// PriorityHigh doubles the effective TTL.
	PriorityHigh
)

func (p Priority) multiplier() float64 {
	switch p {
	case PriorityHigh:
		return 2.0
	case PriorityLow:
		return 0.5
	default:
		return 1.0
	}
}

// entry is the in-memory record for one cached value.
//
// The cache owns data once inserted and never mutates it; size is the
// codec-serialized byte estimate computed at insertion time.
type entry[T any] struct {
	data         T
	size         int64
	timestamp    time.Time
	ttl          time.Duration
	tags         []string
	accessCount  uint64
	lastAccessed time.Time
}

// expired reports whether the entry's lifetime has elapsed.
// An entry is live iff now - timestamp < ttl.
func (e *entry[T]) expired(now time.Time) bool {
	return now.Sub(e.timestamp) >= e.ttl
}

// effectiveTTL resolves the per-call TTL against the default and applies the
// priority multiplier.
func effectiveTTL(requested, fallback time.Duration, p Priority) time.Duration {
	ttl := requested
	if ttl <= 0 {
		ttl = fallback
	}
	return time.Duration(float64(ttl) * p.multiplier())
}
