package cache

import (
	"sync"
	"time"
)

// MemCache is a minimal TTL map[string] -> V cache.
type MemCache[V any] struct {
	mu   sync.RWMutex
	now  func() time.Time
	data map[string]memItem[V]
}

// memItem stores a value and its expiry time.
type memItem[V any] struct {
	val   V
	expAt time.Time
}

// NewMemCache constructs an in-memory TTL cache.
func NewMemCache[V any]() *MemCache[V] {
	return &MemCache[V]{now: time.Now, data: make(map[string]memItem[V])}
}

// Get retrieves a cached value if not expired.
// Values are returned as stored; callers must not mutate shared slices or maps.
func (m *MemCache[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	item, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	if m.now().After(item.expAt) {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		var zero V
		return zero, false
	}
	return item.val, true
}

// Set stores a value with TTL. A non-positive TTL is ignored.
func (m *MemCache[V]) Set(key string, v V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = memItem[V]{val: v, expAt: m.now().Add(ttl)}
}

// Delete removes key from the cache.
func (m *MemCache[V]) Delete(key string) {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (m *MemCache[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
