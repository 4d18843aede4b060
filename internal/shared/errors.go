package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint violation.
	ErrAlreadyExists = errors.New("already exists")
)

// UserSafeMessage maps internal errors to messages safe to surface to API
// clients without leaking driver or SQL detail.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found"
	case errors.Is(err, ErrAlreadyExists):
		return "A record with the same identifier already exists"
	case errors.Is(err, ErrIdempotencyConflict):
		return "This document was already posted"
	default:
		return "The operation could not be completed"
	}
}
