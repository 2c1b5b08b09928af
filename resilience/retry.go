package resilience

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/CodyM0RGAN/berrys-resilience/alert"
	"github.com/CodyM0RGAN/berrys-resilience/errors"
	"github.com/CodyM0RGAN/berrys-resilience/logger"
)

// Policy is a per-call retry policy. Construct it fresh for each call;
// it carries no state between calls.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `mapstructure:"max_retries" validate:"min=0"`
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration `mapstructure:"base_delay" validate:"min=0"`
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration `mapstructure:"max_delay" validate:"min=0"`
	// JitterFactor perturbs each delay by a uniform factor in
	// [-JitterFactor, +JitterFactor].
	JitterFactor float64 `mapstructure:"jitter_factor" validate:"min=0,max=1"`
	// RetryOn restricts retries to these error kinds. Empty means
	// retry every error.
	RetryOn []errors.Kind `mapstructure:"retry_on"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (p *Policy) ApplyDefaults() {
	if p.MaxRetries <= 0 {
		p.MaxRetries = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 100 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 10 * time.Second
	}
}

// Retryable reports whether err qualifies for another attempt under the
// policy. With a non-empty RetryOn set, unclassified errors do not
// qualify.
func (p Policy) Retryable(err error) bool {
	if len(p.RetryOn) == 0 {
		return true
	}
	kind, ok := errors.KindOf(err)
	if !ok {
		return false
	}
	for _, k := range p.RetryOn {
		if k == kind {
			return true
		}
	}
	return false
}

// ExhaustedError reports that the retry budget was spent. It wraps the
// final underlying error.
type ExhaustedError struct {
	// Name is the dependency the operation targeted.
	Name string
	// Attempts is the total number of attempts made.
	Attempts int
	// Err is the last error observed.
	Err error
}

// Error returns the string representation of the error.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted for %s after %d attempts: %v", e.Name, e.Attempts, e.Err)
}

// Unwrap returns the last underlying error.
func (e *ExhaustedError) Unwrap() error { return e.Err }

// Retrier executes operations under a retry policy with structured
// logging. One instance is shared by many calls.
type Retrier struct {
	log  *logger.Logger
	sink alert.Sink
}

// NewRetrier creates a Retrier logging through log. A nil sink is
// replaced with a no-op.
func NewRetrier(log *logger.Logger, sink alert.Sink) *Retrier {
	if sink == nil {
		sink = alert.Nop{}
	}
	return &Retrier{log: log.WithComponent("retry"), sink: sink}
}

// Retry runs fn up to policy.MaxRetries+1 times, suspending the calling
// goroutine between attempts. The inter-attempt wait honors ctx: a
// cancellation during backoff returns ctx.Err() unchanged. Failure after
// the final attempt, or a non-retryable error, returns *ExhaustedError
// wrapping the last error.
func Retry[T any](ctx context.Context, r *Retrier, policy Policy, name string, fn func() (T, error)) (T, error) {
	return run(ctx, r, policy, name, fn, func(d time.Duration) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	})
}

// RetrySleep is the blocking variant of Retry: identical decision logic,
// but waits with time.Sleep and cannot be cancelled.
func RetrySleep[T any](r *Retrier, policy Policy, name string, fn func() (T, error)) (T, error) {
	return run(context.Background(), r, policy, name, fn, func(d time.Duration) error {
		time.Sleep(d)
		return nil
	})
}

func run[T any](ctx context.Context, r *Retrier, policy Policy, name string, fn func() (T, error), wait func(time.Duration) error) (T, error) {
	var zero T

	// Unlike ApplyDefaults, a zero MaxRetries is honored here: it means
	// a single attempt with no retries.
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 100 * time.Millisecond
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 10 * time.Second
	}

	log := r.log.WithContext(ctx)
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= policy.MaxRetries+1; attempt++ {
		result, err := fn()
		attempts = attempt
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == policy.MaxRetries+1 || !policy.Retryable(err) {
			break
		}

		delay := backoffDelay(policy, attempt)
		log.Info("retrying operation", logger.Fields(
			logger.FieldDependency, name,
			logger.FieldAttempt, attempt,
			logger.FieldDelay, delay.Milliseconds(),
			logger.FieldError, err.Error(),
		))

		if werr := wait(delay); werr != nil {
			return zero, werr
		}
	}

	exhausted := &ExhaustedError{Name: name, Attempts: attempts, Err: lastErr}
	log.Error("retries exhausted", logger.Fields(
		logger.FieldDependency, name,
		logger.FieldAttempt, attempts,
		logger.FieldError, lastErr.Error(),
	))
	r.sink.Record(ctx, alert.Event{
		Name:       alert.EventRetriesExhausted,
		Dependency: name,
		Fields:     map[string]interface{}{"attempts": attempts},
	})
	return zero, exhausted
}

// backoffDelay computes the delay before retry attempt k (1-indexed):
// min(base*2^(k-1), max) perturbed by the jitter factor.
func backoffDelay(policy Policy, attempt int) time.Duration {
	delay := float64(policy.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}

	if policy.JitterFactor > 0 {
		delay *= 1 + (rand.Float64()*2-1)*policy.JitterFactor
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
