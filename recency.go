package tagstash

import "sort"

// recencyIndex approximates LRU ordering with a monotonic touch counter.
//
// Every successful get/set touch records the next counter value for the key.
// Victim selection is an O(n) scan for the minimum counter; at the entry
// counts this cache is bounded to, the scan is cheaper to get right than a
// linked-list LRU and there is no pointer bookkeeping to corrupt.
//
// The index and the entry table are updated together under the cache mutex:
// every table key has exactly one index record and vice versa.
type recencyIndex struct {
	counter uint64
	order   map[string]uint64
}

func newRecencyIndex() *recencyIndex {
	return &recencyIndex{order: make(map[string]uint64)}
}

// touch records an access, making key the most recently used.
func (r *recencyIndex) touch(key string) {
	r.counter++
	r.order[key] = r.counter
}

func (r *recencyIndex) remove(key string) {
	delete(r.order, key)
}

// reset drops all records and restarts the counter from zero.
func (r *recencyIndex) reset() {
	r.counter = 0
	r.order = make(map[string]uint64)
}

func (r *recencyIndex) len() int {
	return len(r.order)
}

// victim returns the least recently used key.
// Ties resolve to the first key encountered in map iteration order; callers
// must not depend on tie-break order.
func (r *recencyIndex) victim() (string, bool) {
	var (
		victim string
		min    uint64
		found  bool
	)
	for key, n := range r.order {
		if !found || n < min {
			victim, min, found = key, n, true
		}
	}
	return victim, found
}

// oldest returns up to n keys ordered least recently used first.
func (r *recencyIndex) oldest(n int) []string {
	keys := r.keysByRecency()
	if n < len(keys) {
		keys = keys[:n]
	}
	return keys
}

// keysByRecency returns all keys ordered least recently used first.
func (r *recencyIndex) keysByRecency() []string {
	keys := make([]string, 0, len(r.order))
	for key := range r.order {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return r.order[keys[i]] < r.order[keys[j]]
	})
	return keys
}
