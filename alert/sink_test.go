package alert

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/CodyM0RGAN/berrys-resilience/logger"
)

func TestLogSink_RecordsEventFields(t *testing.T) {
	var buf strings.Builder
	log := logger.FromZerolog(zerolog.New(&buf))

	sink := NewLogSink(log)
	sink.Record(context.Background(), Event{
		Name:       EventBreakerStateChange,
		Dependency: "billing-service",
		Fields:     map[string]interface{}{"from": "closed", "to": "open"},
	})

	out := buf.String()
	for _, want := range []string{EventBreakerStateChange, "billing-service", `"from":"closed"`, `"to":"open"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %s", want, out)
		}
	}
}

func TestNopSink(t *testing.T) {
	var s Sink = Nop{}
	// Must not panic with a zero event.
	s.Record(context.Background(), Event{})
}
