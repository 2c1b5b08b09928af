// Package ratelimit provides a sliding-window admission check applied at
// call ingress. Window state lives in the shared external store so every
// process instance counts against the same budget; when the store is
// unavailable the limiter transparently degrades to per-process
// minute-bucket counters and keeps answering.
package ratelimit
