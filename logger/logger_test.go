package logger

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// newBufferLogger returns a JSON logger writing into the returned builder.
func newBufferLogger() (*Logger, *strings.Builder) {
	var buf strings.Builder
	zl := zerolog.New(&buf)
	return &Logger{logger: zl}, &buf
}

func TestLogger_JSONFields(t *testing.T) {
	log, buf := newBufferLogger()

	log.Info("retrying", Fields(FieldAttempt, 2, FieldDelay, 400))

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(buf.String()), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["message"] != "retrying" {
		t.Errorf("expected message 'retrying', got %v", entry["message"])
	}
	if entry[FieldAttempt] != float64(2) {
		t.Errorf("expected attempt=2, got %v", entry[FieldAttempt])
	}
}

func TestLogger_WithComponent(t *testing.T) {
	log, buf := newBufferLogger()

	log.WithComponent("circuitbreaker").Warn("state change")

	if !strings.Contains(buf.String(), `"component":"circuitbreaker"`) {
		t.Errorf("expected component field, got %s", buf.String())
	}
}

func TestLogger_WithContextCorrelationID(t *testing.T) {
	log, buf := newBufferLogger()

	ctx := WithCorrelationID(context.Background(), "req-42")
	log.WithContext(ctx).Info("checked")

	if !strings.Contains(buf.String(), `"correlation_id":"req-42"`) {
		t.Errorf("expected correlation_id field, got %s", buf.String())
	}
}

func TestLogger_WithContextNoCorrelationID(t *testing.T) {
	log, buf := newBufferLogger()

	log.WithContext(context.Background()).Info("checked")

	if strings.Contains(buf.String(), "correlation_id") {
		t.Errorf("expected no correlation_id field, got %s", buf.String())
	}
}

func TestFields_OddArguments(t *testing.T) {
	m := Fields("a", 1, "dangling")
	if len(m) != 1 || m["a"] != 1 {
		t.Errorf("expected only the complete pair, got %v", m)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	cfg.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}
}
