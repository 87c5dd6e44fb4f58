package tagstash

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with cache-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPersistenceKey adds the persistence key field to the logger.
func (l *Logger) WithPersistenceKey(key string) *Logger {
	return &Logger{
		Logger: l.Logger.With("persistence_key", key),
	}
}

// LogSnapshot logs a snapshot attempt.
func (l *Logger) LogSnapshot(ctx context.Context, entries, bytes int, err error) {
	if err != nil {
		l.WarnContext(ctx, "snapshot failed",
			"entries", entries,
			"bytes", bytes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "snapshot saved",
			"entries", entries,
			"bytes", bytes,
		)
	}
}

// LogLoad logs a snapshot load on construction.
func (l *Logger) LogLoad(ctx context.Context, restored, discarded int, err error) {
	if err != nil {
		l.WarnContext(ctx, "snapshot load failed, starting empty",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot loaded",
			"restored", restored,
			"discarded", discarded,
		)
	}
}

// LogSweep logs an expiry sweep that removed entries.
func (l *Logger) LogSweep(ctx context.Context, removed int, interval string) {
	l.DebugContext(ctx, "expiry sweep completed",
		"removed", removed,
		"next_interval", interval,
	)
}

// LogQuotaRecovery logs the evict-and-retry path after a full store.
func (l *Logger) LogQuotaRecovery(ctx context.Context, evicted int, retryErr error) {
	if retryErr != nil {
		l.WarnContext(ctx, "snapshot retry failed after quota eviction",
			"evicted", evicted,
			"error", retryErr,
		)
	} else {
		l.InfoContext(ctx, "snapshot recovered after quota eviction",
			"evicted", evicted,
		)
	}
}

// LogEvict logs an LRU eviction.
func (l *Logger) LogEvict(ctx context.Context, key string) {
	l.DebugContext(ctx, "entry evicted",
		"key", key,
	)
}
