package repository

import (
	"context"
	"sync"
)

// DefaultMemoryCacheEntries bounds the in-process cache when no size is given.
const DefaultMemoryCacheEntries = 10000

// MemoryCache is an in-process CacheRepository holding at most maxEntries
// labels. Once full, the oldest entry is evicted first.
type MemoryCache struct {
	mu         sync.RWMutex
	data       map[string]string
	order      []string
	maxEntries int
}

func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryCacheEntries
	}
	return &MemoryCache{
		data:       make(map[string]string),
		maxEntries: maxEntries,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.data[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return val, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.data[key]; !exists {
		for len(m.order) >= m.maxEntries {
			delete(m.data, m.order[0])
			m.order = m.order[1:]
		}
		m.order = append(m.order, key)
	}

	m.data[key] = value
	return nil
}

// Len reports the number of cached entries.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
