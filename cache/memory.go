package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	deadline time.Time
}

// MemoryStore is an in-process Store. It backs the always-present local
// tier of a Fallback and works as the sole store in single-process
// deployments. Expired items are evicted lazily on read.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem)}
}

// Get retrieves envelope bytes. Missing or expired keys map to ErrMiss.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}
	if !item.deadline.IsZero() && time.Now().After(item.deadline) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return nil, ErrMiss
	}
	return item.data, nil
}

// Set stores envelope bytes. A non-positive expiry keeps the item until
// overwritten.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, expiry time.Duration) error {
	item := memoryItem{data: value}
	if expiry > 0 {
		item.deadline = time.Now().Add(expiry)
	}
	s.mu.Lock()
	s.items[key] = item
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored items, counting expired ones not yet
// evicted.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
