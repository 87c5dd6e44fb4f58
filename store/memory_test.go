package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Read(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Write(ctx, "k", []byte("v1")))
	got, err := m.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	// Overwrite replaces.
	require.NoError(t, m.Write(ctx, "k", []byte("v2")))
	got, err = m.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, m.Remove(ctx, "k"))
	_, err = m.Read(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing again is fine.
	require.NoError(t, m.Remove(ctx, "k"))
}

func TestMemoryReadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Write(ctx, "k", []byte("abc")))

	got, err := m.Read(ctx, "k")
	require.NoError(t, err)
	got[0] = 'X'

	again, err := m.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryQuota(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryWithQuota(10)

	require.NoError(t, m.Write(ctx, "a", make([]byte, 6)))

	// A second blob pushing the total over 10 bytes is rejected.
	err := m.Write(ctx, "b", make([]byte, 6))
	require.ErrorIs(t, err, ErrQuotaExceeded)

	var qe *QuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, int64(10), qe.Limit)
	assert.Equal(t, "b", qe.Key)

	// Replacing an existing blob only counts the new size.
	require.NoError(t, m.Write(ctx, "a", make([]byte, 10)))

	// The rejected write must not have stored anything.
	_, err = m.Read(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}
