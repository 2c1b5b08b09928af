package cache

import (
	"context"
	"errors"
	"time"

	"github.com/CodyM0RGAN/berrys-resilience/redis"
)

// ErrMiss is returned by Store.Get when the key does not exist.
var ErrMiss = errors.New("cache: miss")

// Store is the byte-level storage contract. Implementations hold opaque
// envelope bytes; freshness is the Fallback's concern, so the store
// expiry only bounds retention.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiry time.Duration) error
}

// RedisStore implements Store on the shared Redis client.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get retrieves envelope bytes. Missing keys map to ErrMiss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return data, nil
}

// Set stores envelope bytes with the given retention.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, expiry time.Duration) error {
	return s.client.Set(ctx, key, value, expiry)
}
