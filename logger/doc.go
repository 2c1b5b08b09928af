// Package logger wraps zerolog with the structured fields the resilience
// guards emit: component, dependency, correlation id, retry attempt,
// breaker state, rate-limit tier.
package logger
