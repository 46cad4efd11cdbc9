package core

import "errors"

var (
	// Authentication errors. Handlers collapse these into a uniform
	// "invalid credentials" response so callers cannot probe which
	// individual check failed.
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidChallenge = errors.New("invalid challenge")
	ErrChallengeExpired = errors.New("challenge has expired")
	ErrInvalidAddress   = errors.New("invalid wallet address")

	// Session token errors.
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalidated = errors.New("token has been invalidated")
	ErrInvalidToken     = errors.New("invalid token")

	// Input validation errors.
	ErrCourseNotFound   = errors.New("course not found")
	ErrLessonOutOfRange = errors.New("lesson index out of range")
	ErrCourseInactive   = errors.New("course is not active")

	// Precondition errors: terminal and user-actionable, never retried.
	ErrCourseIncomplete   = errors.New("course completion is not full")
	ErrAlreadyFinalized   = errors.New("course already finalized")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrNotEnrolled        = errors.New("not enrolled in course")

	// Configuration errors: the operation (or the process) must stop.
	ErrTrackNotConfigured = errors.New("track collection not configured")
	ErrModeNotSupported   = errors.New("operation not supported by active backend")

	// Infrastructure errors.
	ErrChainUnavailable = errors.New("chain rpc unavailable")   // transient, retryable
	ErrChainRejected    = errors.New("transaction rejected")    // terminal
	ErrTxUnconfirmed    = errors.New("transaction unconfirmed") // submitted, confirmation timed out
	ErrStoreUnavailable = errors.New("store unavailable")       // transient, retryable
)

// IsTransient reports whether an error is safe to retry. Idempotent
// operations make retries harmless, so callers can act on this directly.
func IsTransient(err error) bool {
	return errors.Is(err, ErrChainUnavailable) || errors.Is(err, ErrStoreUnavailable)
}
