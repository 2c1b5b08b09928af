package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CodyM0RGAN/berrys-resilience/alert"
	"github.com/CodyM0RGAN/berrys-resilience/logger"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows requests to pass through; failures are counted.
	StateClosed State = iota
	// StateOpen rejects requests without invoking the operation.
	StateOpen
	// StateHalfOpen allows probe requests to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// OpenError is surfaced instead of invoking the operation while the
// breaker is open.
type OpenError struct {
	// Name is the dependency guarded by the breaker.
	Name string
}

// Error returns the string representation of the error.
func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for %s", e.Name)
}

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the consecutive failure count that opens the
	// circuit.
	FailureThreshold int `mapstructure:"failure_threshold" validate:"min=1"`
	// RecoveryTimeout is how long the circuit stays open before a probe
	// is allowed.
	RecoveryTimeout time.Duration `mapstructure:"recovery_timeout" validate:"min=0"`
	// ResetTimeout is the quiet period after which a success in the
	// closed state clears the failure count.
	ResetTimeout time.Duration `mapstructure:"reset_timeout" validate:"min=0"`
	// OnStateChange is called after every state transition.
	OnStateChange func(name string, from, to State)
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *BreakerConfig) ApplyDefaults() {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = 30 * time.Second
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 60 * time.Second
	}
}

// CircuitBreaker is a per-dependency state machine that fails fast when
// the dependency is unhealthy. One instance is shared by all concurrent
// callers of that dependency; obtain it from a Registry.
//
// Half-open intentionally admits any number of concurrent probes. This
// keeps Allow free of probe bookkeeping at the cost of extra recovery
// traffic.
type CircuitBreaker struct {
	name string
	cfg  BreakerConfig
	log  *logger.Logger
	sink alert.Sink

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	lastSuccess time.Time
	lastChange  time.Time
}

// NewCircuitBreaker creates a breaker for the named dependency.
func NewCircuitBreaker(name string, cfg BreakerConfig, log *logger.Logger, sink alert.Sink) *CircuitBreaker {
	cfg.ApplyDefaults()
	if sink == nil {
		sink = alert.Nop{}
	}
	return &CircuitBreaker{
		name:  name,
		cfg:   cfg,
		log:   log.WithComponent("circuitbreaker"),
		sink:  sink,
		state: StateClosed,
	}
}

// Name returns the dependency name the breaker guards.
func (cb *CircuitBreaker) Name() string { return cb.name }

// Execute runs fn through the breaker. While the breaker rejects
// requests it returns *OpenError without invoking fn; otherwise fn's own
// error is returned unchanged after the outcome is recorded.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return &OpenError{Name: cb.name}
	}

	err := fn()
	if err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}

// ExecuteBreaker runs a result-returning fn through the breaker.
func ExecuteBreaker[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	var result T
	var fnErr error
	err := cb.Execute(func() error {
		result, fnErr = fn()
		return fnErr
	})
	if err != nil && fnErr == nil {
		var zero T
		return zero, err
	}
	return result, fnErr
}

// Allow reports whether a request may proceed. In the open state it
// becomes true once the recovery timeout has elapsed, transitioning the
// breaker to half-open as a side effect. It never changes the failure
// count.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(cb.lastChange) > cb.cfg.RecoveryTimeout {
			cb.transition(StateHalfOpen)
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess records a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.lastSuccess = now

	switch cb.state {
	case StateHalfOpen:
		cb.transition(StateClosed)
	case StateClosed:
		// Quiet period bookkeeping only, not a state change.
		if cb.failures > 0 && now.Sub(cb.lastFailure) >= cb.cfg.ResetTimeout {
			cb.failures = 0
		}
	}
}

// RecordFailure records a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	switch cb.state {
	case StateHalfOpen:
		cb.transition(StateOpen)
	case StateClosed:
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.transition(StateOpen)
		}
	}
}

// State returns the current state without side effects.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// transition moves the breaker to a new state. Callers hold cb.mu.
func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.lastChange = time.Now()

	// Failure count resets exactly on entry to closed.
	if to == StateClosed {
		cb.failures = 0
	}

	cb.log.Warn("state change", logger.Fields(
		logger.FieldDependency, cb.name,
		"from", from.String(),
		"to", to.String(),
	))
	cb.sink.Record(context.Background(), alert.Event{
		Name:       alert.EventBreakerStateChange,
		Dependency: cb.name,
		Fields:     map[string]interface{}{"from": from.String(), "to": to.String()},
	})

	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.name, from, to)
	}
}
