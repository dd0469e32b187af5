package services

import "errors"

// Error taxonomy for the moderation workflow. Handlers map these onto HTTP
// statuses; nothing is swallowed. On any of them, no report mutation, side
// effect or audit entry has been committed.
var (
	ErrReportNotFound = errors.New("report not found")
	ErrUserNotFound   = errors.New("user not found")

	// ErrUnauthorized means the actor lacks the moderation capability.
	ErrUnauthorized = errors.New("not authorized to moderate")

	// ErrInvalidAction means the action is not permitted from the report's
	// current status, including anything but ADD_NOTE on a RESOLVED report.
	ErrInvalidAction = errors.New("action not permitted from current status")

	// ErrMissingParameter covers ASSIGN without an assignee, ADD_NOTE
	// without a note, SANCTION_USER without type/target/duration.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrInvalidParameter covers unrecognized tokens and non-positive
	// suspension durations.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrVersionConflict means a concurrent mutation won the race; reload
	// and retry.
	ErrVersionConflict = errors.New("report was modified concurrently")

	// ErrDependencyFailure means an external collaborator call failed or
	// timed out; the operation was rolled back and may be retried.
	ErrDependencyFailure = errors.New("external dependency failed")
)

// IsRetryable reports whether the caller may safely retry the same request.
// Everything else indicates a malformed or unauthorized request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrDependencyFailure)
}
