// Package redis provides the shared external store used by the rate
// limiter and cache fallback: a go-redis client wrapper with key-value
// get/set-with-ttl operations and an atomic sliding-window primitive
// (append timestamp + prune + count + set-expiry as one pipeline).
package redis
