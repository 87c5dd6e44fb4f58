package tagstash

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagstash/tagstash/store"
)

func TestInvalidateByTags(t *testing.T) {
	c, _ := newTestCache(t)

	require.NoError(t, c.Set("a", "1", WithTags("x")))
	require.NoError(t, c.Set("b", "2", WithTags("y")))
	require.NoError(t, c.Set("c", "3", WithTags("x", "y")))
	require.NoError(t, c.Set("d", "4"))

	// Intersection semantics: any shared tag marks the entry.
	removed := c.InvalidateByTags("x")
	assert.Equal(t, 2, removed)

	assert.False(t, c.Has("a"))
	assert.False(t, c.Has("c"))
	assert.True(t, c.Has("b"))
	assert.True(t, c.Has("d"))
}

func TestInvalidateByTagsNoMatch(t *testing.T) {
	c, _ := newTestCache(t)

	require.NoError(t, c.Set("a", "1", WithTags("x")))

	assert.Equal(t, 0, c.InvalidateByTags("unknown"))
	assert.Equal(t, 0, c.InvalidateByTags())
	assert.Equal(t, 1, c.Stats().Size)
}

func TestInvalidateByPattern(t *testing.T) {
	c, _ := newTestCache(t)

	require.NoError(t, c.Set("user:1", "a"))
	require.NoError(t, c.Set("user:2", "b"))
	require.NoError(t, c.Set("session:1", "c"))

	removed, err := c.InvalidateByPattern(`^user:`)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.False(t, c.Has("user:1"))
	assert.False(t, c.Has("user:2"))
	assert.True(t, c.Has("session:1"))
}

func TestInvalidateByPatternBadPattern(t *testing.T) {
	c, _ := newTestCache(t)

	require.NoError(t, c.Set("k", "v"))

	removed, err := c.InvalidateByPattern(`[unterminated`)
	require.ErrorIs(t, err, ErrBadPattern)
	assert.Equal(t, 0, removed)
	assert.True(t, c.Has("k"), "a bad pattern must not remove anything")
}

func TestClearIsIdempotent(t *testing.T) {
	mem := store.NewMemory()
	c, _ := newTestCache(t, WithPersistence(mem, "state"))

	require.NoError(t, c.Set("k", "v", WithTags("t")))
	require.NoError(t, c.Flush(context.Background()))
	require.Equal(t, 1, mem.Len())

	c.Clear()
	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(0), stats.Misses)
	assert.Equal(t, 0, mem.Len(), "clear removes the persisted blob")

	c.Clear()
	assert.Equal(t, 0, c.Stats().Size)
	assert.Equal(t, 0, mem.Len())

	// The cache remains usable after a clear.
	require.NoError(t, c.Set("k", "v"))
	assert.True(t, c.Has("k"))
}

func TestClearAfterDestroyKeepsFinalSnapshot(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	clk := clockwork.NewFakeClock()

	c, err := New[string](ctx, WithClock(clk), WithPersistence(mem, "state"))
	require.NoError(t, err)

	require.NoError(t, c.Set("k", "v"))
	require.NoError(t, c.Destroy())
	require.Equal(t, 1, mem.Len(), "destroy writes a final snapshot")

	c.Clear()
	assert.Equal(t, 1, mem.Len(), "a late clear must not delete the final snapshot")
}
