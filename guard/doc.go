// Package guard composes the resilience primitives into a single
// call wrapper. A Guard runs an operation through the rate limiter,
// the cache, the circuit breaker, and the retrier in that order:
//
//	cache.GetOrFetch(key, breaker.Execute(retry(operation)))
//
// with the rate-limit check applied at ingress, before anything else.
// Every layer is optional; a Guard with none configured is a plain
// passthrough. Calls without a correlation id get one assigned so the
// whole chain logs under a single id.
package guard
