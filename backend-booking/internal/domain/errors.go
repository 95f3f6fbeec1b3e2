package domain

import "errors"

// Domain errors
var (
	// Not found
	ErrBookingNotFound   = errors.New("booking not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrDjProfileNotFound = errors.New("dj profile not found")

	// Validation
	ErrInvalidBookingID     = errors.New("invalid booking id")
	ErrInvalidBookingStatus = errors.New("invalid booking status")
	ErrReasonTooLong        = errors.New("reason must be at most 500 characters")
	ErrReasonRequired       = errors.New("reason is required")
	ErrInvalidSessionID     = errors.New("invalid checkout session id")
	ErrInvalidDjProfileID   = errors.New("invalid dj profile id")
	ErrDjRequired           = errors.New("a dj must be assigned to accept the booking")
	ErrDjOnlyOnAccept       = errors.New("dj_profile_id is only accepted with status ACCEPTED")

	// Authorization
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("not allowed to modify this booking")

	// Conflict
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrTerminalStatus    = errors.New("booking is in a terminal status")
	ErrStatusChanged     = errors.New("booking status changed concurrently")
	ErrNotPayable        = errors.New("booking cannot be marked paid in its current status")
	ErrDjAlreadyAssigned = errors.New("booking is assigned to another dj")
	ErrDjUnavailable     = errors.New("dj is not accepting bookings")

	// Invariants
	ErrPaidInvariant = errors.New("paid flag, paid_at and status are inconsistent")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrDjProfileNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidBookingID) ||
		errors.Is(err, ErrInvalidBookingStatus) ||
		errors.Is(err, ErrReasonTooLong) ||
		errors.Is(err, ErrReasonRequired) ||
		errors.Is(err, ErrInvalidSessionID) ||
		errors.Is(err, ErrInvalidDjProfileID) ||
		errors.Is(err, ErrDjRequired) ||
		errors.Is(err, ErrDjOnlyOnAccept)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrTerminalStatus) ||
		errors.Is(err, ErrStatusChanged) ||
		errors.Is(err, ErrNotPayable) ||
		errors.Is(err, ErrDjAlreadyAssigned) ||
		errors.Is(err, ErrDjUnavailable)
}

// IsForbiddenError checks if the error is an authorization error
func IsForbiddenError(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnauthorizedError checks if the caller is unauthenticated
func IsUnauthorizedError(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}
