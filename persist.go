package tagstash

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tagstash/tagstash/snapshot"
	"github.com/tagstash/tagstash/store"
)

// quotaEvictFraction is the share of entries (oldest by recency) dropped
// when the store rejects a snapshot for quota before the one retry.
const quotaEvictFraction = 0.3

// schedulePersist requests a debounced snapshot. Non-blocking: a kick that
// is already pending covers this one.
func (c *Cache[T]) schedulePersist() {
	if c.persistKick == nil {
		return
	}
	select {
	case c.persistKick <- struct{}{}:
	default:
	}
}

// persistLoop owns the two persistence timers: the debounce timer, restarted
// on every kick so bursts of writes coalesce into one snapshot, and the
// periodic ticker that bounds staleness when the kicks never go quiet.
func (c *Cache[T]) persistLoop() {
	defer c.wg.Done()

	periodic := c.opts.clock.NewTicker(c.opts.flushInterval)
	defer periodic.Stop()

	var (
		debounce  clockwork.Timer
		debounceC <-chan time.Time
	)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.persistKick:
			if debounce == nil {
				debounce = c.opts.clock.NewTimer(c.opts.debounceInterval)
				debounceC = debounce.Chan()
			} else {
				debounce.Reset(c.opts.debounceInterval)
			}
		case <-debounceC:
			c.trySnapshot()
		case <-periodic.Chan():
			c.trySnapshot()
		}
	}
}

// trySnapshot runs a snapshot unless one is already in flight.
func (c *Cache[T]) trySnapshot() {
	if !c.rc.TryAcquireBackground() {
		return
	}
	defer c.rc.ReleaseBackground()

	// Errors are logged inside; a persistence failure never surfaces to the
	// operation that triggered it.
	_ = c.snapshot(c.ctx)
}

// Flush forces a synchronous snapshot, waiting for any in-flight snapshot
// to finish first. Unlike the background pipeline it reports the outcome.
func (c *Cache[T]) Flush(ctx context.Context) error {
	if c.opts.store == nil {
		return ErrPersistenceDisabled
	}

	c.mu.Lock()
	destroyed := c.destroyed
	c.mu.Unlock()
	if destroyed {
		return ErrDestroyed
	}

	if err := c.rc.AcquireBackground(ctx); err != nil {
		return err
	}
	defer c.rc.ReleaseBackground()

	return c.snapshot(ctx)
}

// snapshot serializes the live entries and writes them to the store. On a
// quota rejection it evicts the oldest entries and retries exactly once; a
// second failure is logged and left for the next scheduled snapshot.
// Callers hold the background slot.
func (c *Cache[T]) snapshot(ctx context.Context) error {
	start := time.Now()

	entries := c.collectEntries()
	blob, err := snapshot.Encode(c.opts.codec, c.opts.compression, entries)
	if err != nil {
		c.opts.logger.LogSnapshot(ctx, len(entries), 0, err)
		c.opts.metrics.RecordSnapshot(0, time.Since(start), err)
		return err
	}

	err = c.opts.store.Write(ctx, c.opts.persistKey, blob)
	if errors.Is(err, store.ErrQuotaExceeded) {
		evicted := c.evictOldestFraction(quotaEvictFraction)
		entries = c.collectEntries()
		blob, err = snapshot.Encode(c.opts.codec, c.opts.compression, entries)
		if err == nil {
			err = c.opts.store.Write(ctx, c.opts.persistKey, blob)
		}
		c.opts.logger.LogQuotaRecovery(ctx, evicted, err)
	}

	c.opts.logger.LogSnapshot(ctx, len(entries), len(blob), err)
	c.opts.metrics.RecordSnapshot(len(blob), time.Since(start), err)
	return err
}

// collectEntries serializes the live entries most recently used first, so
// that when the byte budget runs out it is the coldest entries that are
// silently dropped. A partial snapshot beats no snapshot.
//
// The budget counts each entry as the codec encodes it for the blob body,
// plus the array separators and brackets, so the serialized entry array
// never exceeds MaxStorageBytes.
func (c *Cache[T]) collectEntries() []snapshot.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.clock.Now()
	keys := c.recency.keysByRecency()

	out := make([]snapshot.Entry, 0, len(keys))
	total := int64(2) // enclosing array brackets
	for i := len(keys) - 1; i >= 0; i-- {
		key := keys[i]
		e, ok := c.entries[key]
		if !ok || e.expired(now) {
			continue
		}

		data, err := c.opts.codec.Marshal(e.data)
		if err != nil {
			// Values are validated against the codec on Set; a failure here
			// means the value mutated underneath us. Skip it.
			continue
		}

		se := snapshot.Entry{
			Key:          key,
			Data:         data,
			Tags:         e.tags,
			Timestamp:    e.timestamp.UnixNano(),
			TTL:          int64(e.ttl),
			AccessCount:  e.accessCount,
			LastAccessed: e.lastAccessed.UnixNano(),
		}

		if c.opts.maxStorageBytes > 0 {
			encoded, err := c.opts.codec.Marshal(se)
			if err != nil {
				continue
			}
			cost := int64(len(encoded)) + 1 // entry separator
			if total+cost > c.opts.maxStorageBytes {
				break
			}
			total += cost
		}

		out = append(out, se)
	}
	return out
}

// evictOldestFraction removes ceil(frac * size) entries, oldest by recency,
// and returns the count.
func (c *Cache[T]) evictOldestFraction(frac float64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := int(math.Ceil(float64(c.recency.len()) * frac))
	victims := c.recency.oldest(n)
	for _, key := range victims {
		c.removeLocked(key, removeEvicted)
	}
	return len(victims)
}

// loadSnapshot restores the persisted blob on construction. Entries whose
// TTL has elapsed while persisted are discarded, a blob that fails to decode
// is removed so the next start is clean, and every failure mode leaves the
// cache empty but constructed.
func (c *Cache[T]) loadSnapshot(ctx context.Context) {
	blob, err := c.opts.store.Read(ctx, c.opts.persistKey)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		c.opts.logger.LogLoad(ctx, 0, 0, err)
		return
	}

	persisted, err := snapshot.Decode(blob)
	if err != nil {
		c.opts.logger.LogLoad(ctx, 0, 0, err)
		if rmErr := c.opts.store.Remove(ctx, c.opts.persistKey); rmErr != nil {
			c.opts.logger.WarnContext(ctx, "failed to remove corrupt snapshot",
				"error", rmErr,
			)
		}
		return
	}

	now := c.opts.clock.Now()
	restored := make([]string, 0, len(persisted))
	discarded := 0

	c.mu.Lock()
	for _, pe := range persisted {
		// Blobs are written most recently used first; when the configured
		// bound shrank since the snapshot, keep the hottest entries.
		if len(c.entries) >= c.opts.maxSize {
			discarded++
			continue
		}

		ts := time.Unix(0, pe.Timestamp)
		ttl := time.Duration(pe.TTL)
		if now.Sub(ts) >= ttl {
			discarded++
			continue
		}

		var value T
		if err := c.opts.codec.Unmarshal(pe.Data, &value); err != nil {
			discarded++
			continue
		}

		e := &entry[T]{
			data:         value,
			size:         int64(len(pe.Data)),
			timestamp:    ts,
			ttl:          ttl,
			tags:         pe.Tags,
			accessCount:  pe.AccessCount,
			lastAccessed: time.Unix(0, pe.LastAccessed),
		}
		c.entries[pe.Key] = e
		c.tags.add(pe.Key, pe.Tags)
		c.bytesEstimate += e.size
		restored = append(restored, pe.Key)
	}
	// Touch in reverse so the blob's most recently used entry ends up most
	// recently used here too.
	for i := len(restored) - 1; i >= 0; i-- {
		c.recency.touch(restored[i])
	}
	c.mu.Unlock()

	c.opts.logger.LogLoad(ctx, len(restored), discarded, nil)
}
