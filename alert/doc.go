// Package alert notifies operators of resilience events: circuit state
// transitions, rate-limit exhaustion, degraded-mode fallbacks. The Sink
// interface needs only a record call; implementations log the event or
// count it on an OpenTelemetry meter.
package alert
