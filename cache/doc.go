// Package cache provides a get-or-fetch layer that serves cached data
// under configurable consistency strategies.
//
// Values are wrapped in a timestamped envelope so freshness is decided
// by the envelope, not by store eviction. Entries are retained past
// their TTL for a grace period, which keeps stale reads possible for
// the SERVICE_FIRST and STALE_WHILE_REVALIDATE strategies.
//
// A Fallback always writes to a local in-memory store and, when
// configured, to a shared store as well. Reads prefer the shared store
// and fall back to local on miss or error, so caching keeps working in
// a single-process deployment or during a store outage.
package cache
