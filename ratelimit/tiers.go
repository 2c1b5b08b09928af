package ratelimit

import "time"

// Tier is a named rate-limit preset: how many requests are allowed per
// trailing window. Requests <= 0 means unlimited.
type Tier struct {
	Requests int           `mapstructure:"requests" validate:"min=0"`
	Window   time.Duration `mapstructure:"window" validate:"min=0"`
}

// Unlimited reports whether the tier admits everything.
func (t Tier) Unlimited() bool { return t.Requests <= 0 }

// Well-known tier names.
const (
	TierLow       = "low"
	TierDefault   = "default"
	TierHigh      = "high"
	TierCritical  = "critical"
	TierUnlimited = "unlimited"
)

// DefaultTiers returns the standard tier presets. Callers may override
// or extend the map before constructing a Limiter.
func DefaultTiers() map[string]Tier {
	return map[string]Tier{
		TierLow:       {Requests: 10, Window: time.Minute},
		TierDefault:   {Requests: 60, Window: time.Minute},
		TierHigh:      {Requests: 300, Window: time.Minute},
		TierCritical:  {Requests: 1000, Window: time.Minute},
		TierUnlimited: {Requests: 0, Window: time.Minute},
	}
}
