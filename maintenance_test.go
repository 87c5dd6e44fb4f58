package tagstash

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalForPressure(t *testing.T) {
	base := 60 * time.Second

	tests := []struct {
		name     string
		pressure float64
		ok       bool
		base     time.Duration
		want     time.Duration
	}{
		{"unavailable keeps base", 0.99, false, base, base},
		{"low pressure keeps base", 0.5, true, base, base},
		{"medium tightens to 30s", 0.7, true, base, 30 * time.Second},
		{"high tightens to 15s", 0.9, true, base, 15 * time.Second},
		{"boundary 0.6 keeps base", 0.6, true, base, base},
		{"boundary 0.8 is medium", 0.8, true, base, 30 * time.Second},
		{"never relaxes a tight base", 0.9, true, 5 * time.Second, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, intervalForPressure(tt.pressure, tt.ok, tt.base))
		})
	}
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	c, err := New[string](context.Background(),
		WithDefaultTTL(20*time.Millisecond),
		WithCleanupInterval(10*time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Destroy() })

	require.NoError(t, c.Set("short", "v"))
	require.NoError(t, c.Set("long", "v", WithTTL(time.Hour)))

	// The sweep removes the expired entry without any lookup touching it.
	require.Eventually(t, func() bool {
		return c.Stats().ExpiredCount == 1
	}, 2*time.Second, 5*time.Millisecond)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, uint64(0), stats.Misses, "sweep removal must not count as a miss")
	assert.True(t, c.Has("long"))
}

func TestSweepSkipsLiveEntries(t *testing.T) {
	c, err := New[string](context.Background(),
		WithDefaultTTL(time.Hour),
		WithCleanupInterval(10*time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Destroy() })

	require.NoError(t, c.Set("a", "1"))
	require.NoError(t, c.Set("b", "2"))

	time.Sleep(50 * time.Millisecond)

	stats := c.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, uint64(0), stats.ExpiredCount)
}
