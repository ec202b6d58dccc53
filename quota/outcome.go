package quota

// Outcome is the result of a quota check. It is either Confident, backed by
// the user's actual records, or Degraded, when those records could not be
// read. Callers must type-switch; only the two types below implement it.
type Outcome interface {
	// AllowsSubmission reports whether the candidate may be submitted
	// without an explicit override.
	AllowsSubmission() bool
	outcome()
}

// Confident wraps a verdict computed from authoritative data.
type Confident struct {
	Verdict Verdict
}

func (c Confident) AllowsSubmission() bool { return c.Verdict.IsValid }
func (Confident) outcome()                 {}

// Error types carried by Degraded.
const (
	ErrorTypeNetwork      = "NETWORK_ERROR"
	ErrorTypeUnauthorized = "UNAUTHORIZED"
	ErrorTypeForbidden    = "FORBIDDEN"
	ErrorTypeNotFound     = "NOT_FOUND"
	ErrorTypeServer       = "SERVER_ERROR"
	ErrorTypeUnknown      = "UNKNOWN_ERROR"

	// ErrorTypeDataUnavailable is the server-side degradation: the user's
	// leave records could not be read.
	ErrorTypeDataUnavailable = "DATA_UNAVAILABLE"
)

// Degraded is returned when usage could not be determined. Submission stays
// allowed; the caller is expected to warn instead of asserting a verdict.
type Degraded struct {
	Reason        string
	ErrorType     string
	Message       string
	RequestedDays int
	MonthlyLimit  int
}

func (Degraded) AllowsSubmission() bool { return true }
func (Degraded) outcome()               {}

// FallbackMessage is the user-facing text for a degraded check.
func FallbackMessage(errorType string) string {
	switch errorType {
	case ErrorTypeNetwork:
		return "Unable to connect to server. Please check your internet connection."
	case ErrorTypeUnauthorized:
		return "Session expired. Please log in again."
	case ErrorTypeForbidden:
		return "You do not have permission to check leave limits."
	case ErrorTypeServer:
		return "Server is temporarily unavailable. Please try again later."
	case ErrorTypeDataUnavailable:
		return "Leave history could not be loaded, so the monthly limit was not checked. Your request will still be reviewed."
	default:
		return "Unable to validate against monthly limit. Please check your leave balance manually."
	}
}

// NewDegraded builds a Degraded outcome with the standard message.
func NewDegraded(errorType, reason string, requested, limit int) Degraded {
	return Degraded{
		Reason:        reason,
		ErrorType:     errorType,
		Message:       FallbackMessage(errorType),
		RequestedDays: requested,
		MonthlyLimit:  limit,
	}
}
