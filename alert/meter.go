package alert

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterSink counts resilience events on an OpenTelemetry meter. The host
// process owns provider setup; the sink only draws instruments from the
// globally registered provider.
type MeterSink struct {
	events metric.Int64Counter
}

// NewMeterSink creates a Sink recording to the named meter.
func NewMeterSink(meterName string) (*MeterSink, error) {
	meter := otel.Meter(meterName)

	events, err := meter.Int64Counter("resilience.events",
		metric.WithDescription("Resilience events by class and dependency"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.events counter: %w", err)
	}

	return &MeterSink{events: events}, nil
}

// Record implements Sink.
func (s *MeterSink) Record(ctx context.Context, ev Event) {
	s.events.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("event", ev.Name),
			attribute.String("dependency", ev.Dependency),
		),
	)
}
