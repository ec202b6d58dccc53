/*
errors.go - Centralized error types shared by the service packages

PURPOSE:
  All persistence and domain sentinel errors in one place for consistency
  and discoverability. Packages wrap these with context using %w.

ERROR CATEGORIES:
  1. Not found - a referenced user, leave, holiday or feedback is missing
  2. Conflict  - uniqueness and state-machine violations
  3. Input     - malformed dates and fields

USAGE:
    if errors.Is(err, generic.ErrLeaveNotFound) {
        // 404
    }

SEE ALSO:
  - store.go: Stores return these errors
  - quota/errors.go: Quota-specific validation and availability errors
  - api/respond.go: Maps these errors onto HTTP statuses
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrLeaveNotFound    = errors.New("leave not found")
	ErrHolidayNotFound  = errors.New("holiday not found")
	ErrFeedbackNotFound = errors.New("feedback not found")

	// ErrDuplicateEmail is returned when registering an email twice.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateRollNumber is returned when a student roll number is taken.
	ErrDuplicateRollNumber = errors.New("roll number already registered")

	// ErrHolidayExists is returned when a date already carries a holiday.
	ErrHolidayExists = errors.New("holiday already exists for this date")

	// ErrInvalidStatusTransition is returned when a decided leave is decided again.
	// Leaves move pending -> approved|rejected exactly once.
	ErrInvalidStatusTransition = errors.New("leave is not pending")

	// ErrInvalidDate is returned for strings that are not calendar dates.
	ErrInvalidDate = errors.New("invalid date")

	// ErrStoreUnavailable marks infrastructure failures worth retrying.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// TransitionError provides details about a rejected status change.
type TransitionError struct {
	LeaveID string
	From    LeaveStatus
	To      LeaveStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("leave %s cannot move from %s to %s", e.LeaveID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidStatusTransition
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateEmail) ||
		errors.Is(err, ErrDuplicateRollNumber) ||
		errors.Is(err, ErrHolidayExists) ||
		errors.Is(err, ErrInvalidStatusTransition) ||
		errors.Is(err, ErrInvalidDate)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrLeaveNotFound) ||
		errors.Is(err, ErrHolidayNotFound) ||
		errors.Is(err, ErrFeedbackNotFound)
}
