package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/CodyM0RGAN/berrys-resilience/alert"
	"github.com/CodyM0RGAN/berrys-resilience/logger"
)

// Result describes one admission decision.
type Result struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Limit is the tier's request budget per window (0 = unlimited).
	Limit int
	// Remaining is the budget left in the current window.
	Remaining int
	// ResetAfter is the time until the window frees a slot: the oldest
	// in-window entry's expiry when the limit is hit, the full window
	// otherwise.
	ResetAfter time.Duration
	// Window is the tier's window length.
	Window time.Duration
	// Degraded reports whether the decision came from the local
	// fallback counters instead of the shared store.
	Degraded bool
}

// Error is the typed signal for a denied request. Boundary code maps it
// to a transport-appropriate response.
type Error struct {
	Key    string
	Result Result
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %d per %s", e.Key, e.Result.Limit, e.Result.Window)
}

// Config configures a Limiter.
type Config struct {
	// Tiers maps tier names to presets. Empty falls back to
	// DefaultTiers. A "default" tier must be present; unknown tier
	// names resolve to it.
	Tiers map[string]Tier `mapstructure:"tiers"`
	// ExpiryBuffer pads the window when refreshing a key's store expiry
	// to bound storage growth.
	ExpiryBuffer time.Duration `mapstructure:"expiry_buffer"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if len(c.Tiers) == 0 {
		c.Tiers = DefaultTiers()
	}
	if _, ok := c.Tiers[TierDefault]; !ok {
		c.Tiers[TierDefault] = DefaultTiers()[TierDefault]
	}
	if c.ExpiryBuffer <= 0 {
		c.ExpiryBuffer = 10 * time.Second
	}
}

// Limiter answers admission checks against named tiers. One instance is
// constructed per client and reused across calls. A store failure never
// reaches the caller: the check transparently degrades to the local
// counters with a logged warning.
type Limiter struct {
	cfg   Config
	store Store // shared store; nil means local-only deployment
	local *MemoryStore
	log   *logger.Logger
	sink  alert.Sink

	now func() time.Time
}

// New creates a Limiter. store may be nil for single-process
// deployments; a nil sink is replaced with a no-op.
func New(cfg Config, store Store, log *logger.Logger, sink alert.Sink) *Limiter {
	cfg.ApplyDefaults()
	if sink == nil {
		sink = alert.Nop{}
	}
	return &Limiter{
		cfg:   cfg,
		store: store,
		local: NewMemoryStore(),
		log:   log.WithComponent("ratelimit"),
		sink:  sink,
		now:   time.Now,
	}
}

// Check records a request for key and decides whether it is admitted
// under the named tier. Unrecognized tier names fall back to "default".
func (l *Limiter) Check(ctx context.Context, key, tier string) Result {
	t, ok := l.cfg.Tiers[tier]
	if !ok {
		t = l.cfg.Tiers[TierDefault]
	}

	if t.Unlimited() {
		return Result{Allowed: true, Window: t.Window}
	}

	now := l.now()
	expiry := t.Window + l.cfg.ExpiryBuffer

	sample, degraded := l.record(ctx, key, now, t.Window, expiry)

	allowed := sample.Count <= int64(t.Requests)
	remaining := t.Requests - int(sample.Count)
	if remaining < 0 {
		remaining = 0
	}

	resetAfter := t.Window
	if !allowed {
		resetAfter = sample.Oldest.Add(t.Window).Sub(now)
		if resetAfter < 0 {
			resetAfter = 0
		}
	}

	res := Result{
		Allowed:    allowed,
		Limit:      t.Requests,
		Remaining:  remaining,
		ResetAfter: resetAfter,
		Window:     t.Window,
		Degraded:   degraded,
	}

	if !allowed {
		l.log.WithContext(ctx).Info("request denied", logger.Fields(
			logger.FieldKey, key,
			logger.FieldTier, tier,
			"count", sample.Count,
			"limit", t.Requests,
		))
		l.sink.Record(ctx, alert.Event{
			Name:       alert.EventRateLimitExceeded,
			Dependency: key,
			Fields: map[string]interface{}{
				logger.FieldTier: tier,
				"limit":          t.Requests,
			},
		})
	}

	return res
}

// record tries the shared store first and falls back to the local
// counters on absence or error. The bool reports degraded mode.
func (l *Limiter) record(ctx context.Context, key string, now time.Time, window, expiry time.Duration) (Sample, bool) {
	if l.store != nil {
		sample, err := l.store.Record(ctx, key, now, window, expiry)
		if err == nil {
			return sample, false
		}
		l.log.WithContext(ctx).WithError(err).Warn("shared store unavailable, using local counters", logger.Fields(
			logger.FieldKey, key,
		))
		l.sink.Record(ctx, alert.Event{
			Name:       alert.EventStoreDegraded,
			Dependency: key,
			Fields:     map[string]interface{}{"component": "ratelimit"},
		})
	}

	sample, _ := l.local.Record(ctx, key, now, window, expiry)
	return sample, true
}
