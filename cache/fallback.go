package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/CodyM0RGAN/berrys-resilience/logger"
)

// Strategy selects how a Fallback balances cached data against fetches.
type Strategy string

const (
	// CacheFirst returns a fresh cached value without fetching;
	// anything else fetches and stores.
	CacheFirst Strategy = "cache_first"
	// ServiceFirst always fetches and falls back to any cached value,
	// fresh or stale, when the fetch fails.
	ServiceFirst Strategy = "service_first"
	// StaleWhileRevalidate returns any cached value immediately and
	// refreshes it in the background.
	StaleWhileRevalidate Strategy = "stale_while_revalidate"
)

// Config holds Fallback settings.
type Config struct {
	// Prefix namespaces this client's keys in a shared store.
	Prefix string `mapstructure:"prefix"`
	// TTL is the default freshness window for entries.
	TTL time.Duration `mapstructure:"ttl"`
	// Grace extends store retention past the TTL so stale entries stay
	// readable for fallback and revalidation.
	Grace time.Duration `mapstructure:"grace"`
	// Strategy is the default consistency strategy.
	Strategy Strategy `mapstructure:"strategy"`
	// MaxRevalidations bounds concurrent background refreshes.
	MaxRevalidations int64 `mapstructure:"max_revalidations"`
	// RevalidateTimeout bounds a single background refresh.
	RevalidateTimeout time.Duration `mapstructure:"revalidate_timeout"`
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Prefix == "" {
		c.Prefix = "cache"
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.Grace <= 0 {
		c.Grace = time.Hour
	}
	if c.Strategy == "" {
		c.Strategy = CacheFirst
	}
	if c.MaxRevalidations <= 0 {
		c.MaxRevalidations = 4
	}
	if c.RevalidateTimeout <= 0 {
		c.RevalidateTimeout = 30 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Strategy {
	case CacheFirst, ServiceFirst, StaleWhileRevalidate:
		return nil
	default:
		return errors.New("cache: unknown strategy " + string(c.Strategy))
	}
}

// Option overrides per-call behavior of GetOrFetch.
type Option func(*callOptions)

type callOptions struct {
	ttl      time.Duration
	strategy Strategy
}

// WithTTL overrides the default TTL for this call.
func WithTTL(ttl time.Duration) Option {
	return func(o *callOptions) { o.ttl = ttl }
}

// WithStrategy overrides the default strategy for this call.
func WithStrategy(s Strategy) Option {
	return func(o *callOptions) { o.strategy = s }
}

// Fallback is a get-or-fetch cache for values of type T. One instance
// is constructed per client and shared across calls.
type Fallback[T any] struct {
	cfg    Config
	remote Store
	local  *MemoryStore
	log    *logger.Logger
	sem    *semaphore.Weighted

	// revalidating tracks in-flight background refreshes so tests can
	// wait for them.
	revalidating sync.WaitGroup

	now func() time.Time
}

// New creates a Fallback. remote may be nil for local-only caching.
func New[T any](cfg Config, remote Store, log *logger.Logger) *Fallback[T] {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Fallback[T]{
		cfg:    cfg,
		remote: remote,
		local:  NewMemoryStore(),
		log:    log.WithComponent("cache"),
		sem:    semaphore.NewWeighted(cfg.MaxRevalidations),
		now:    time.Now,
	}
}

// GetOrFetch returns the value for key, consulting the cache and the
// fetch function according to the strategy. The bool reports whether
// the value was served from cache.
func (f *Fallback[T]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (T, error), opts ...Option) (T, bool, error) {
	call := callOptions{ttl: f.cfg.TTL, strategy: f.cfg.Strategy}
	for _, opt := range opts {
		opt(&call)
	}

	entry, ok := f.lookup(ctx, key)

	switch call.strategy {
	case ServiceFirst:
		value, err := fetch(ctx)
		if err == nil {
			f.store(ctx, key, value, call.ttl)
			return value, false, nil
		}
		if ok {
			f.log.WithContext(ctx).WithError(err).Warn("fetch failed, serving cached value", logger.Fields(
				logger.FieldKey, key,
				"age", entry.Age(f.now()).String(),
			))
			return entry.Value, true, nil
		}
		var zero T
		return zero, false, err

	case StaleWhileRevalidate:
		if ok {
			f.revalidate(ctx, key, fetch, call.ttl)
			return entry.Value, true, nil
		}
		value, err := fetch(ctx)
		if err != nil {
			var zero T
			return zero, false, err
		}
		f.store(ctx, key, value, call.ttl)
		return value, false, nil

	default: // CacheFirst
		if ok && entry.Fresh(f.now()) {
			return entry.Value, true, nil
		}
		value, err := fetch(ctx)
		if err != nil {
			var zero T
			return zero, false, err
		}
		f.store(ctx, key, value, call.ttl)
		return value, false, nil
	}
}

// Get reads the cached value for key regardless of freshness.
func (f *Fallback[T]) Get(ctx context.Context, key string) (T, bool) {
	entry, ok := f.lookup(ctx, key)
	if !ok {
		var zero T
		return zero, false
	}
	return entry.Value, true
}

// Set stores value under key. A non-positive ttl uses the default.
func (f *Fallback[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = f.cfg.TTL
	}
	f.store(ctx, key, value, ttl)
}

// revalidate launches a detached background fetch+store for key. The
// refresh pool is bounded; when it is full the refresh is skipped and
// a later call picks it up. Overlapping refreshes for one key are not
// deduplicated, writes are idempotent last-write-wins.
func (f *Fallback[T]) revalidate(ctx context.Context, key string, fetch func(ctx context.Context) (T, error), ttl time.Duration) {
	if !f.sem.TryAcquire(1) {
		f.log.WithContext(ctx).Debug("revalidation pool full, skipping refresh", logger.Fields(
			logger.FieldKey, key,
		))
		return
	}

	// Detach from the caller's cancellation but keep its values, so
	// the correlation id survives into the background refresh.
	bg := context.WithoutCancel(ctx)

	f.revalidating.Add(1)
	go func() {
		defer f.revalidating.Done()
		defer f.sem.Release(1)

		rctx, cancel := context.WithTimeout(bg, f.cfg.RevalidateTimeout)
		defer cancel()

		value, err := fetch(rctx)
		if err != nil {
			f.log.WithContext(rctx).WithError(err).Warn("background revalidation failed", logger.Fields(
				logger.FieldKey, key,
			))
			return
		}
		f.store(rctx, key, value, ttl)
	}()
}

func (f *Fallback[T]) fullKey(key string) string {
	return f.cfg.Prefix + ":" + key
}

// lookup reads the envelope for key, preferring the shared store and
// falling back to local on miss or error.
func (f *Fallback[T]) lookup(ctx context.Context, key string) (Entry[T], bool) {
	full := f.fullKey(key)

	if f.remote != nil {
		data, err := f.remote.Get(ctx, full)
		if err == nil {
			if entry, ok := f.decode(ctx, key, data); ok {
				return entry, true
			}
		} else if !errors.Is(err, ErrMiss) {
			f.log.WithContext(ctx).WithError(err).Warn("shared store read failed, trying local", logger.Fields(
				logger.FieldKey, key,
			))
		}
	}

	data, err := f.local.Get(ctx, full)
	if err != nil {
		return Entry[T]{}, false
	}
	return f.decode(ctx, key, data)
}

// store writes the envelope to the local store and, when configured,
// to the shared store. Retention runs past the TTL by the grace period
// so stale reads remain possible.
func (f *Fallback[T]) store(ctx context.Context, key string, value T, ttl time.Duration) {
	entry := Entry[T]{Value: value, Timestamp: f.now(), TTL: ttl}
	data, err := json.Marshal(entry)
	if err != nil {
		f.log.WithContext(ctx).WithError(err).Error("failed to encode cache entry", logger.Fields(
			logger.FieldKey, key,
		))
		return
	}

	full := f.fullKey(key)
	expiry := ttl + f.cfg.Grace

	_ = f.local.Set(ctx, full, data, expiry)

	if f.remote != nil {
		if err := f.remote.Set(ctx, full, data, expiry); err != nil {
			f.log.WithContext(ctx).WithError(err).Warn("shared store write failed, kept local copy", logger.Fields(
				logger.FieldKey, key,
			))
		}
	}
}

func (f *Fallback[T]) decode(ctx context.Context, key string, data []byte) (Entry[T], bool) {
	var entry Entry[T]
	if err := json.Unmarshal(data, &entry); err != nil {
		f.log.WithContext(ctx).WithError(err).Warn("discarding undecodable cache entry", logger.Fields(
			logger.FieldKey, key,
		))
		return Entry[T]{}, false
	}
	return entry, true
}
