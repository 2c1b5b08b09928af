// Package resilience provides the in-process guards for calls to peer
// services: retry with exponential backoff and jitter, and a
// per-dependency circuit breaker with a shared registry.
//
// The guards compose; a typical client wraps one remote call as:
//
//	breaker := registry.GetOrCreate("billing-service", cbCfg)
//	result, err := resilience.ExecuteBreaker(breaker, func() (Invoice, error) {
//	    return resilience.Retry(ctx, retrier, "billing-service", fetchInvoice)
//	})
//
// Both guards are purely in-process: no shared store, no cross-instance
// coordination.
package resilience
