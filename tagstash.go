package tagstash

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tagstash/tagstash/internal/resource"
)

// Cache is a bounded, TTL-governed, tag-addressable key/value cache with
// write-behind persistence.
//
// One mutex guards the entry table, the recency index and the tag index, so
// every key in the table has exactly one recency record and the background
// loops serialize with caller operations. Values are validated against the
// configured codec on Set, which makes persistence failures impossible to
// introduce through a single bad value later.
type Cache[T any] struct {
	opts options

	mu            sync.Mutex
	entries       map[string]*entry[T]
	recency       *recencyIndex
	tags          *tagIndex
	hits          uint64
	misses        uint64
	expiredCount  uint64
	evictions     uint64
	bytesEstimate int64
	destroyed     bool

	rc *resource.Controller

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// persistKick wakes the persistence loop after a mutating operation.
	// Buffered with capacity one; a pending kick absorbs further kicks.
	persistKick chan struct{}
}

// New constructs a cache and starts its maintenance loops. ctx is used for
// the initial snapshot load only; the cache's own lifetime ends with Destroy.
func New[T any](ctx context.Context, optFns ...Option) (*Cache[T], error) {
	o := applyOptions(optFns)

	if o.maxSize <= 0 {
		return nil, fmt.Errorf("tagstash: max size must be positive, got %d", o.maxSize)
	}
	if o.defaultTTL <= 0 {
		return nil, fmt.Errorf("tagstash: default TTL must be positive, got %v", o.defaultTTL)
	}
	if o.cleanupInterval <= 0 {
		return nil, fmt.Errorf("tagstash: cleanup interval must be positive, got %v", o.cleanupInterval)
	}
	if o.store != nil && o.persistKey == "" {
		return nil, fmt.Errorf("tagstash: persistence requires a non-empty key")
	}
	if o.store != nil {
		o.logger = o.logger.WithPersistenceKey(o.persistKey)
	}

	c := &Cache[T]{
		opts:    o,
		entries: make(map[string]*entry[T]),
		recency: newRecencyIndex(),
		tags:    newTagIndex(),
		rc:      resource.NewController(o.sampler, o.resampleInterval),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	if o.store != nil {
		c.loadSnapshot(ctx)
		c.persistKick = make(chan struct{}, 1)
		c.wg.Add(1)
		go c.persistLoop()
	}

	c.wg.Add(1)
	go c.sweepLoop()

	return c, nil
}

// Get returns the value stored under key.
//
// A hit bumps the entry's access statistics and its recency. An expired
// entry behaves exactly like a missing one and is removed as a side effect;
// both paths count as a miss.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return zero, false
	}

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		c.opts.metrics.RecordGet(false)
		return zero, false
	}

	now := c.opts.clock.Now()
	if e.expired(now) {
		c.removeLocked(key, removeExpired)
		c.misses++
		c.opts.metrics.RecordGet(false)
		return zero, false
	}

	e.accessCount++
	e.lastAccessed = now
	c.recency.touch(key)
	c.hits++
	c.opts.metrics.RecordGet(true)
	return e.data, true
}

// Has reports whether key holds a live value. It is not a peek: it has the
// same statistics and recency side effects as Get.
func (c *Cache[T]) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set stores value under key, replacing any previous entry (timestamp and
// access statistics reset). When the table is full, the least recently used
// entry is evicted first, so Set itself never fails for capacity.
//
// The only error paths are a destroyed cache and a value the configured
// codec cannot serialize.
func (c *Cache[T]) Set(key string, value T, optFns ...SetOption) error {
	start := time.Now()
	so := applySetOptions(optFns)

	data, err := c.opts.codec.Marshal(value)
	if err != nil {
		encErr := &EncodeError{Key: key, cause: err}
		c.opts.metrics.RecordSet(time.Since(start), encErr)
		return encErr
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		c.opts.metrics.RecordSet(time.Since(start), ErrDestroyed)
		return ErrDestroyed
	}

	now := c.opts.clock.Now()

	if old, ok := c.entries[key]; ok {
		c.tags.remove(key, old.tags)
		c.bytesEstimate -= old.size
	} else if len(c.entries) >= c.opts.maxSize {
		c.evictOneLocked()
	}

	e := &entry[T]{
		data:         value,
		size:         int64(len(data)),
		timestamp:    now,
		ttl:          effectiveTTL(so.ttl, c.opts.defaultTTL, so.priority),
		tags:         append([]string(nil), so.tags...),
		lastAccessed: now,
	}
	c.entries[key] = e
	c.recency.touch(key)
	c.tags.add(key, e.tags)
	c.bytesEstimate += e.size

	persist := so.persist && c.opts.store != nil
	c.mu.Unlock()

	if persist {
		c.schedulePersist()
	}
	c.opts.metrics.RecordSet(time.Since(start), nil)
	return nil
}

// Delete removes key from the cache regardless of its liveness.
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	removed := c.removeLocked(key, removeDeleted)
	persist := removed && c.opts.store != nil && !c.destroyed
	c.mu.Unlock()

	if removed {
		c.opts.metrics.RecordDelete()
	}
	if persist {
		c.schedulePersist()
	}
}

// Destroy stops the maintenance loops, flushes one final snapshot when
// persistence is enabled, and drops all in-memory state. Subsequent calls
// are no-ops returning nil; Get on a destroyed cache misses silently and
// Set returns ErrDestroyed.
func (c *Cache[T]) Destroy() error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return nil
	}
	c.destroyed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	var err error
	if c.opts.store != nil {
		ctx := context.Background()
		if err = c.rc.AcquireBackground(ctx); err == nil {
			err = c.snapshot(ctx)
			c.rc.ReleaseBackground()
		}
	}

	c.mu.Lock()
	c.entries = make(map[string]*entry[T])
	c.recency.reset()
	c.tags.reset()
	c.bytesEstimate = 0
	c.mu.Unlock()

	return err
}

type removeReason int

const (
	removeDeleted removeReason = iota
	removeExpired
	removeEvicted
)

// removeLocked drops key from the table and both indexes, attributing the
// removal to the given reason for statistics. Callers hold c.mu.
func (c *Cache[T]) removeLocked(key string, reason removeReason) bool {
	e, ok := c.entries[key]
	if !ok {
		return false
	}

	delete(c.entries, key)
	c.recency.remove(key)
	c.tags.remove(key, e.tags)
	c.bytesEstimate -= e.size

	switch reason {
	case removeExpired:
		c.expiredCount++
	case removeEvicted:
		c.evictions++
	}
	return true
}

// evictOneLocked removes the least recently used entry. Callers hold c.mu.
func (c *Cache[T]) evictOneLocked() {
	key, ok := c.recency.victim()
	if !ok {
		return
	}
	c.removeLocked(key, removeEvicted)
	c.opts.logger.LogEvict(c.ctx, key)
}
