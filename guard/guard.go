package guard

import (
	"context"

	"github.com/google/uuid"

	"github.com/CodyM0RGAN/berrys-resilience/cache"
	"github.com/CodyM0RGAN/berrys-resilience/logger"
	"github.com/CodyM0RGAN/berrys-resilience/ratelimit"
	"github.com/CodyM0RGAN/berrys-resilience/resilience"
)

// Config holds per-dependency guard settings.
type Config struct {
	// Tier names the rate-limit tier applied at ingress.
	Tier string `mapstructure:"tier"`
	// Retry configures the retry policy. Nil skips retries.
	Retry *resilience.Policy `mapstructure:"retry"`
	// Breaker configures the circuit breaker. Nil skips the breaker.
	Breaker *resilience.BreakerConfig `mapstructure:"breaker"`
}

// IsEmpty reports whether no policies are configured.
func (c Config) IsEmpty() bool {
	return c.Tier == "" && c.Retry == nil && c.Breaker == nil
}

// Dependencies bundles the shared collaborators a Guard draws on.
// Nil fields disable the corresponding layer.
type Dependencies[T any] struct {
	Registry *resilience.Registry
	Retrier  *resilience.Retrier
	Limiter  *ratelimit.Limiter
	Cache    *cache.Fallback[T]
	Log      *logger.Logger
}

// Guard wraps calls to one named dependency. Construct once and share
// across callers; the breaker instance comes from the registry, so all
// guards for a dependency observe the same breaker state.
type Guard[T any] struct {
	dependency string
	cfg        Config
	breaker    *resilience.CircuitBreaker
	retrier    *resilience.Retrier
	limiter    *ratelimit.Limiter
	cache      *cache.Fallback[T]
	log        *logger.Logger
}

// New creates a Guard for the named dependency.
func New[T any](dependency string, cfg Config, deps Dependencies[T]) *Guard[T] {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	g := &Guard[T]{
		dependency: dependency,
		cfg:        cfg,
		retrier:    deps.Retrier,
		limiter:    deps.Limiter,
		cache:      deps.Cache,
		log:        log.WithComponent("guard"),
	}
	if cfg.Breaker != nil && deps.Registry != nil {
		g.breaker = deps.Registry.GetOrCreate(dependency, *cfg.Breaker)
	}
	if cfg.Retry != nil && g.retrier == nil {
		g.retrier = resilience.NewRetrier(log, nil)
	}
	return g
}

// Do runs op through the configured layers. key identifies the caller
// for rate limiting and the value for caching; an empty key uses the
// dependency name. CacheOpts apply when a cache layer is configured.
func (g *Guard[T]) Do(ctx context.Context, key string, op func(ctx context.Context) (T, error), cacheOpts ...cache.Option) (T, error) {
	ctx = ensureCorrelationID(ctx)
	if key == "" {
		key = g.dependency
	}

	if g.limiter != nil && g.cfg.Tier != "" {
		if res := g.limiter.Check(ctx, key, g.cfg.Tier); !res.Allowed {
			var zero T
			return zero, &ratelimit.Error{Key: key, Result: res}
		}
	}

	protected := func(ctx context.Context) (T, error) {
		return g.execute(ctx, op)
	}

	if g.cache != nil {
		value, _, err := g.cache.GetOrFetch(ctx, key, protected, cacheOpts...)
		return value, err
	}
	return protected(ctx)
}

// Direct runs op through the breaker and retrier only, bypassing the
// rate limiter and cache. Useful for writes, where serving cached data
// or counting against a read budget would be wrong.
func (g *Guard[T]) Direct(ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	ctx = ensureCorrelationID(ctx)
	return g.execute(ctx, op)
}

// Breaker exposes the underlying breaker, nil when not configured.
func (g *Guard[T]) Breaker() *resilience.CircuitBreaker {
	return g.breaker
}

// execute applies breaker around retry around op.
func (g *Guard[T]) execute(ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	call := func() (T, error) { return op(ctx) }

	if g.cfg.Retry != nil && g.retrier != nil {
		policy := *g.cfg.Retry
		inner := call
		call = func() (T, error) {
			return resilience.Retry(ctx, g.retrier, policy, g.dependency, inner)
		}
	}

	if g.breaker != nil {
		inner := call
		call = func() (T, error) {
			return resilience.ExecuteBreaker(g.breaker, inner)
		}
	}

	return call()
}

// ensureCorrelationID assigns a fresh id when the context carries none.
func ensureCorrelationID(ctx context.Context) context.Context {
	if _, ok := logger.CorrelationID(ctx); ok {
		return ctx
	}
	return logger.WithCorrelationID(ctx, uuid.NewString())
}
