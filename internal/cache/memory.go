package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache provides an in-process SeenCache for tests and for running
// without Redis.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]time.Time),
	}
}

func (m *MemoryCache) Close() error {
	return nil
}

func (m *MemoryCache) IsSeen(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	expiry, exists := m.data[key]
	if !exists {
		return false, nil
	}
	if !expiry.IsZero() && time.Now().After(expiry) {
		return false, nil
	}
	return true, nil
}

func (m *MemoryCache) MarkSeen(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expiry time.Time
	if ttl > 0 {
		expiry = time.Now().Add(ttl)
	}
	m.data[key] = expiry
	return nil
}

func (m *MemoryCache) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]time.Time)
	return nil
}
