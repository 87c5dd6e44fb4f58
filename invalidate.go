package tagstash

import (
	"context"
	"fmt"
	"regexp"
)

// InvalidateByTags removes every entry whose tag set intersects tags and
// returns the number removed. The victim list is computed first and deleted
// second, so the table is never mutated while being matched against.
func (c *Cache[T]) InvalidateByTags(tags ...string) int {
	c.mu.Lock()
	victims := c.tags.matching(tags)
	for _, key := range victims {
		c.removeLocked(key, removeDeleted)
	}
	persist := len(victims) > 0 && c.opts.store != nil && !c.destroyed
	c.mu.Unlock()

	c.opts.metrics.RecordInvalidate(len(victims))
	if persist {
		c.schedulePersist()
	}
	return len(victims)
}

// InvalidateByPattern removes every entry whose key matches the regular
// expression pattern and returns the number removed. A pattern that does not
// compile returns an error wrapping ErrBadPattern; this is caller input the
// cache will not paper over.
func (c *Cache[T]) InvalidateByPattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrBadPattern, pattern, err)
	}

	c.mu.Lock()
	var victims []string
	for key := range c.entries {
		if re.MatchString(key) {
			victims = append(victims, key)
		}
	}
	for _, key := range victims {
		c.removeLocked(key, removeDeleted)
	}
	persist := len(victims) > 0 && c.opts.store != nil && !c.destroyed
	c.mu.Unlock()

	c.opts.metrics.RecordInvalidate(len(victims))
	if persist {
		c.schedulePersist()
	}
	return len(victims), nil
}

// Clear removes all entries, resets the hit/miss counters and the recency
// counter, and removes the persisted blob. Idempotent; the cache remains
// usable afterwards. On a destroyed cache Clear is a no-op, so the final
// snapshot written by Destroy stays intact.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.entries = make(map[string]*entry[T])
	c.recency.reset()
	c.tags.reset()
	c.hits = 0
	c.misses = 0
	c.bytesEstimate = 0
	removeBlob := c.opts.store != nil
	c.mu.Unlock()

	if !removeBlob {
		return
	}

	// Take the snapshot slot so an in-flight snapshot cannot rewrite the
	// blob after it is removed.
	ctx := context.Background()
	if err := c.rc.AcquireBackground(ctx); err != nil {
		return
	}
	defer c.rc.ReleaseBackground()

	if err := c.opts.store.Remove(ctx, c.opts.persistKey); err != nil {
		c.opts.logger.WarnContext(ctx, "failed to remove persisted snapshot on clear",
			"error", err,
		)
	}
}
