package alert

import (
	"context"

	"github.com/CodyM0RGAN/berrys-resilience/logger"
)

// Well-known event names.
const (
	EventBreakerStateChange = "breaker.state_change"
	EventRateLimitExceeded  = "ratelimit.exceeded"
	EventStoreDegraded      = "store.degraded"
	EventRetriesExhausted   = "retry.exhausted"
)

// Event is one resilience occurrence worth surfacing to operators.
type Event struct {
	// Name identifies the event class (see the Event* constants).
	Name string
	// Dependency is the remote dependency or rate-limit key involved.
	Dependency string
	// Fields carries event-specific context.
	Fields map[string]interface{}
}

// Sink receives resilience events. Implementations must be safe for
// concurrent use and must not block the caller.
type Sink interface {
	Record(ctx context.Context, ev Event)
}

// Nop is a Sink that discards all events.
type Nop struct{}

// Record implements Sink.
func (Nop) Record(context.Context, Event) {}

// LogSink writes events to the structured logger at WARN level.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a Sink backed by the given logger.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.WithComponent("alert")}
}

// Record implements Sink.
func (s *LogSink) Record(ctx context.Context, ev Event) {
	fields := map[string]interface{}{
		"event":                ev.Name,
		logger.FieldDependency: ev.Dependency,
	}
	for k, v := range ev.Fields {
		fields[k] = v
	}
	s.log.WithContext(ctx).Warn("resilience event", fields)
}
