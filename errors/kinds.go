package errors

// Kind is a machine-readable classification of a remote-call failure.
type Kind string

// Transient kinds (retryable by default)
const (
	// KindTimeout indicates the call exceeded its deadline.
	KindTimeout Kind = "TIMEOUT"
	// KindConnection indicates the peer could not be reached.
	KindConnection Kind = "CONNECTION"
	// KindUnavailable indicates the peer reported itself unhealthy.
	KindUnavailable Kind = "UNAVAILABLE"
	// KindRateLimited indicates the peer throttled the call.
	KindRateLimited Kind = "RATE_LIMITED"
)

// Permanent kinds
const (
	// KindNotFound indicates the requested resource does not exist.
	KindNotFound Kind = "NOT_FOUND"
	// KindConflict indicates a conflict with the resource's current state.
	KindConflict Kind = "CONFLICT"
	// KindValidation indicates the request was rejected as malformed.
	KindValidation Kind = "VALIDATION"
	// KindInternal indicates an unexpected failure on either side.
	KindInternal Kind = "INTERNAL"
)

var retryableKinds = map[Kind]bool{
	KindTimeout:     true,
	KindConnection:  true,
	KindUnavailable: true,
	KindRateLimited: true,
	KindNotFound:    false,
	KindConflict:    false,
	KindValidation:  false,
	KindInternal:    false,
}

// IsRetryableKind reports whether a kind indicates a transient failure.
func IsRetryableKind(k Kind) bool {
	return retryableKinds[k]
}

// RetryableKinds returns the kinds considered transient, for use as a
// retry policy's RetryOn set.
func RetryableKinds() []Kind {
	kinds := make([]Kind, 0, len(retryableKinds))
	for k, retryable := range retryableKinds {
		if retryable {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
