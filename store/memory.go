package store

import (
	"context"
	"sync"
)

// Memory is an in-memory Store implementation.
//
// It enforces an optional byte quota over the sum of stored blobs, which
// makes it useful both as the default backend and as a stand-in for
// quota-constrained backends in tests. Thread-safe.
type Memory struct {
	mu    sync.RWMutex
	quota int64 // 0 means unlimited
	blobs map[string][]byte
}

// NewMemory creates an in-memory store without a byte quota.
func NewMemory() *Memory {
	return NewMemoryWithQuota(0)
}

// NewMemoryWithQuota creates an in-memory store that rejects writes once the
// cumulative size of stored blobs would exceed quota bytes. quota <= 0 means
// unlimited.
func NewMemoryWithQuota(quota int64) *Memory {
	return &Memory{
		quota: quota,
		blobs: make(map[string][]byte),
	}
}

// Read returns a copy of the blob stored under key.
func (m *Memory) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}

	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

// Write stores a copy of data under key, replacing any previous blob.
func (m *Memory) Write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		total := int64(len(data))
		for k, v := range m.blobs {
			if k == key {
				continue // replaced, not counted
			}
			total += int64(len(v))
		}
		if total > m.quota {
			return &QuotaError{Key: key, Size: total, Limit: m.quota}
		}
	}

	copied := make([]byte, len(data))
	copy(copied, data)
	m.blobs[key] = copied
	return nil
}

// Remove deletes the blob stored under key.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, key)
	return nil
}

// Len returns the number of stored blobs.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
