package cache

import "time"

// Entry is the stored envelope around a cached value. Timestamp and TTL
// travel with the value so freshness can be decided on read without
// consulting the store's own expiry.
type Entry[T any] struct {
	Value     T             `json:"value"`
	Timestamp time.Time     `json:"timestamp"`
	TTL       time.Duration `json:"ttl"`
}

// Fresh reports whether the entry is within its TTL at the given time.
// It never mutates or deletes anything; a stale entry only changes
// which strategy branch is taken.
func (e Entry[T]) Fresh(now time.Time) bool {
	return now.Sub(e.Timestamp) < e.TTL
}

// Age returns how long ago the entry was written.
func (e Entry[T]) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}
