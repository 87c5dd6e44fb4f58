package tagstash

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tagstash/tagstash/codec"
	"github.com/tagstash/tagstash/internal/resource"
	"github.com/tagstash/tagstash/snapshot"
	"github.com/tagstash/tagstash/store"
)

const (
	// DefaultMaxSize bounds the entry table when WithMaxSize is not given.
	DefaultMaxSize = 1000

	// DefaultTTL is the entry lifetime when neither the cache nor the call
	// specifies one.
	DefaultTTL = 5 * time.Minute

	// DefaultCleanupInterval is the starting expiry-sweep period. The
	// adaptive scheduler may tighten it under heap pressure.
	DefaultCleanupInterval = 60 * time.Second

	// DefaultDebounceInterval is the quiet period coalescing bursts of
	// writes into one snapshot.
	DefaultDebounceInterval = time.Second

	// DefaultFlushInterval bounds snapshot staleness under continuous write
	// pressure that keeps resetting the debounce timer.
	DefaultFlushInterval = 30 * time.Second

	// DefaultResampleInterval bounds how often heap pressure is measured.
	DefaultResampleInterval = 60 * time.Second
)

type options struct {
	maxSize          int
	defaultTTL       time.Duration
	cleanupInterval  time.Duration
	debounceInterval time.Duration
	flushInterval    time.Duration
	resampleInterval time.Duration

	store           store.Store
	persistKey      string
	maxStorageBytes int64
	codec           codec.Codec
	compression     snapshot.Compression

	logger  *Logger
	metrics MetricsCollector
	clock   clockwork.Clock
	sampler resource.Sampler
}

// Option configures cache construction.
type Option func(*options)

// WithMaxSize bounds the number of live entries. When an insert would exceed
// the bound, the least recently used entry is evicted first.
func WithMaxSize(n int) Option {
	return func(o *options) {
		o.maxSize = n
	}
}

// WithDefaultTTL sets the entry lifetime used when Set is called without
// WithTTL.
func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) {
		o.defaultTTL = d
	}
}

// WithCleanupInterval sets the starting period of the expiry sweep. Under
// heap pressure the sweeper tightens this at runtime.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) {
		o.cleanupInterval = d
	}
}

// WithPersistence enables write-behind snapshots into st under the given
// persistence key. The key names the one blob this cache owns; two caches
// sharing a store must use distinct keys.
func WithPersistence(st store.Store, key string) Option {
	return func(o *options) {
		o.store = st
		o.persistKey = key
	}
}

// WithMaxStorageBytes caps the cumulative serialized size of entries in a
// snapshot. When the budget would be exceeded the remaining (least recently
// used) entries are silently dropped from the snapshot — a partial snapshot
// beats no snapshot. 0 means unbounded.
func WithMaxStorageBytes(n int64) Option {
	return func(o *options) {
		o.maxStorageBytes = n
	}
}

// WithDebounceInterval overrides the snapshot debounce quiet period.
func WithDebounceInterval(d time.Duration) Option {
	return func(o *options) {
		o.debounceInterval = d
	}
}

// WithFlushInterval overrides the unconditional periodic snapshot period.
func WithFlushInterval(d time.Duration) Option {
	return func(o *options) {
		o.flushInterval = d
	}
}

// WithCodec configures the codec used for payload and snapshot encoding.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression selects the snapshot body compression. Existing blobs are
// self-describing, so changing this only affects newly written snapshots.
func WithCompression(comp snapshot.Compression) Option {
	return func(o *options) {
		o.compression = comp
	}
}

// WithLogger configures structured logging for maintenance and persistence.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithClock injects the clock used for entry timestamps and all timers.
// Tests use a fake clock to simulate time.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithPressureSampler overrides the heap-pressure source consulted by the
// adaptive cleanup scheduler. The default samples used heap against the
// runtime's soft memory limit.
func WithPressureSampler(s resource.Sampler) Option {
	return func(o *options) {
		o.sampler = s
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		maxSize:          DefaultMaxSize,
		defaultTTL:       DefaultTTL,
		cleanupInterval:  DefaultCleanupInterval,
		debounceInterval: DefaultDebounceInterval,
		flushInterval:    DefaultFlushInterval,
		resampleInterval: DefaultResampleInterval,
		codec:            codec.Default,
		compression:      snapshot.Zstd,
		logger:           NoopLogger(),
		metrics:          NoopMetricsCollector{},
		clock:            clockwork.NewRealClock(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// SetOption configures a single Set call.
type SetOption func(*setOptions)

type setOptions struct {
	ttl      time.Duration
	tags     []string
	priority Priority
	persist  bool
}

// WithTTL overrides the cache's default TTL for this entry.
func WithTTL(d time.Duration) SetOption {
	return func(o *setOptions) {
		o.ttl = d
	}
}

// WithTags labels the entry for bulk invalidation via InvalidateByTags.
func WithTags(tags ...string) SetOption {
	return func(o *setOptions) {
		o.tags = tags
	}
}

// WithPriority scales the entry's effective TTL (high doubles, low halves).
func WithPriority(p Priority) SetOption {
	return func(o *setOptions) {
		o.priority = p
	}
}

// WithoutPersistence excludes this write from snapshot scheduling. The entry
// itself is still included in snapshots triggered by other writes.
func WithoutPersistence() SetOption {
	return func(o *setOptions) {
		o.persist = false
	}
}

func applySetOptions(optFns []SetOption) setOptions {
	o := setOptions{
		priority: PriorityMedium,
		persist:  true,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
