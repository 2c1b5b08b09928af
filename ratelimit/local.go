package ratelimit

import (
	"context"
	"sync"
	"time"
)

const bucketSize = time.Minute

// MemoryStore is the degraded-path Store: per-process counters bucketed
// by minute, summed over the buckets covering the trailing window. Its
// reset estimate is coarser than the shared store's but the interface
// contract is identical. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]map[int64]int64
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]map[int64]int64)}
}

// Record implements Store. It never returns an error.
func (s *MemoryStore) Record(_ context.Context, key string, now time.Time, window, _ time.Duration) (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok {
		b = make(map[int64]int64)
		s.buckets[key] = b
	}

	bucket := now.UnixNano() / int64(bucketSize)
	b[bucket]++

	// Buckets overlapping the trailing window count in full.
	cutoff := now.Add(-window).UnixNano() / int64(bucketSize)

	var count int64
	oldest := bucket
	for m, n := range b {
		if m < cutoff {
			delete(b, m)
			continue
		}
		count += n
		if m < oldest {
			oldest = m
		}
	}

	return Sample{
		Count:  count,
		Oldest: time.Unix(0, oldest*int64(bucketSize)),
	}, nil
}

// Reset discards all counters. Intended for tests.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets = make(map[string]map[int64]int64)
}
