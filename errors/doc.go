// Package errors defines the closed set of error kinds shared by the
// resilience guards. Every remote-call failure is classified into one
// Kind so retry filtering is exhaustive and statically checkable.
package errors
