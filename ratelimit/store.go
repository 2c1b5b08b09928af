package ratelimit

import (
	"context"
	"time"

	"github.com/CodyM0RGAN/berrys-resilience/redis"
)

// Sample is the outcome of recording one request against a window.
type Sample struct {
	// Count is the number of requests in the trailing window, including
	// the one just recorded.
	Count int64
	// Oldest is the timestamp of the oldest request still in the window.
	Oldest time.Time
}

// Store records request timestamps per key and counts the trailing
// window as one atomic unit. Implementations: RedisStore (shared across
// processes) and MemoryStore (per-process fallback).
type Store interface {
	Record(ctx context.Context, key string, now time.Time, window, expiry time.Duration) (Sample, error)
}

// RedisStore counts windows in the shared Redis store. Atomicity of
// append+prune+count+expire is delegated to the store's pipeline.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Store backed by the given Redis client. Keys
// are namespaced under prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Record implements Store.
func (s *RedisStore) Record(ctx context.Context, key string, now time.Time, window, expiry time.Duration) (Sample, error) {
	ws, err := s.client.SlidingWindowCount(ctx, s.prefix+":"+key, now, window, expiry)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Count: ws.Count, Oldest: ws.Oldest}, nil
}
