package tagstash

import "math"

// Stats is a point-in-time view of cache health.
type Stats struct {
	// Size is the current number of live entries.
	Size int

	// MaxSize is the configured entry bound.
	MaxSize int

	// Hits and Misses count lookups since construction (or the last Clear).
	// A lookup of an expired entry counts as a miss.
	Hits   uint64
	Misses uint64

	// TotalRequests is Hits + Misses.
	TotalRequests uint64

	// HitRatePct is the running hit rate, rounded to the nearest percent.
	// Zero when no lookups have happened yet.
	HitRatePct int

	// ExpiredCount is the cumulative number of entries removed because their
	// TTL elapsed, whether discovered lazily on lookup or by the sweep.
	ExpiredCount uint64

	// Evictions is the cumulative number of LRU evictions, including the
	// bulk evictions performed during storage-quota recovery.
	Evictions uint64

	// TotalBytesEstimate is the sum of the serialized sizes of live entries,
	// computed at insertion time. An estimate: payloads are not re-encoded
	// when read back.
	TotalBytesEstimate int64
}

// Stats returns current cache statistics.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	pct := 0
	if total > 0 {
		pct = int(math.Round(100 * float64(c.hits) / float64(total)))
	}

	return Stats{
		Size:               len(c.entries),
		MaxSize:            c.opts.maxSize,
		Hits:               c.hits,
		Misses:             c.misses,
		TotalRequests:      total,
		HitRatePct:         pct,
		ExpiredCount:       c.expiredCount,
		Evictions:          c.evictions,
		TotalBytesEstimate: c.bytesEstimate,
	}
}
