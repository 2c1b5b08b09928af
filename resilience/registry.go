package resilience

import (
	"sync"

	"github.com/CodyM0RGAN/berrys-resilience/alert"
	"github.com/CodyM0RGAN/berrys-resilience/logger"
)

// Registry maps dependency names to shared circuit breakers, created
// lazily on first reference. Every client calling the same dependency
// observes the same breaker state. Construct one at application startup
// and inject it into clients.
type Registry struct {
	log  *logger.Logger
	sink alert.Sink

	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
}

// NewRegistry creates an empty breaker registry.
func NewRegistry(log *logger.Logger, sink alert.Sink) *Registry {
	return &Registry{
		log:      log,
		sink:     sink,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// GetOrCreate returns the breaker for name, creating it with cfg on
// first reference. Later calls for the same name return the original
// instance and ignore cfg.
func (r *Registry) GetOrCreate(name string, cfg BreakerConfig) *CircuitBreaker {
	r.mu.RLock()
	cb, exists := r.breakers[name]
	r.mu.RUnlock()

	if exists {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check: another goroutine may have created it.
	if cb, exists = r.breakers[name]; exists {
		return cb
	}

	cb = NewCircuitBreaker(name, cfg, r.log, r.sink)
	r.breakers[name] = cb
	return cb
}

// Stats returns the current state of every registered breaker.
func (r *Registry) Stats() map[string]State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]State, len(r.breakers))
	for name, cb := range r.breakers {
		stats[name] = cb.State()
	}
	return stats
}

// Reset discards all breakers. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakers = make(map[string]*CircuitBreaker)
}
