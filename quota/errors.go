package quota

import (
	"errors"
	"fmt"
)

// Validation codes carried by ValidationError.
const (
	CodeNoDates          = "NO_DATES"
	CodeInvalidDate      = "INVALID_DATE"
	CodeInvalidDateRange = "INVALID_DATE_RANGE"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid leave candidate")

	// ErrDataUnavailable matches every *DataUnavailableError.
	ErrDataUnavailable = errors.New("leave records unavailable")
)

// ValidationError rejects a malformed candidate. It is never retried.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Code + ": " + e.Message }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// DataUnavailableError reports that a user's records could not be fetched.
type DataUnavailableError struct {
	UserID string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("leave records for %s unavailable: %v", e.UserID, e.Err)
}

func (e *DataUnavailableError) Unwrap() []error { return []error{ErrDataUnavailable, e.Err} }

// AsValidation extracts a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
