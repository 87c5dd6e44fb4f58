// Package tagstash provides an embedded, tag-addressable key/value cache
// with TTL expiry, LRU eviction and budgeted write-behind persistence.
//
// Features:
//
//   - Generic payloads: one Cache[T] instance per payload type
//   - Per-entry TTL with priority scaling (high-priority entries live longer)
//   - Strict entry-count bound: eviction runs before insertion, never after
//   - Tag-based bulk invalidation backed by a Roaring Bitmap inverted index
//   - Pattern-based invalidation over keys (Go regular expressions)
//   - Adaptive expiry sweeping that tightens under heap pressure
//   - Debounced, byte-budgeted snapshots into a pluggable durable store
//     (in-memory, local file, S3, MinIO), with quota and corruption recovery
//
// # Quick Start
//
//	ctx := context.Background()
//	cache, err := tagstash.New[Bookmark](ctx,
//	    tagstash.WithMaxSize(1000),
//	    tagstash.WithDefaultTTL(5*time.Minute),
//	)
//	if err != nil {
//	    panic(err)
//	}
//	defer cache.Destroy()
//
//	cache.Set("links:recent", recent,
//	    tagstash.WithTags("links", "user"),
//	    tagstash.WithPriority(tagstash.PriorityHigh),
//	)
//	if v, ok := cache.Get("links:recent"); ok {
//	    use(v)
//	}
//
//	// Sign-out: drop everything, including the persisted snapshot.
//	cache.Clear()
//
// # Persistence
//
// With persistence enabled, mutations schedule a debounced snapshot into the
// configured store, and a periodic flush bounds staleness under continuous
// write pressure. Snapshots are best-effort: a full or failing store never
// fails the cache operation that triggered the write.
//
//	st, _ := store.NewLocalWithQuota("/var/cache/bookmarks", 5<<20)
//	cache, err := tagstash.New[Bookmark](ctx,
//	    tagstash.WithPersistence(st, "session-42"),
//	    tagstash.WithMaxStorageBytes(4<<20),
//	)
//
// On construction the cache loads the previous snapshot, silently discarding
// entries whose TTL has elapsed and discarding the whole blob if it fails to
// decode.
package tagstash
