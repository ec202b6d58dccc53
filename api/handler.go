/*
Package api exposes the leave service over HTTP.

ENDPOINTS:
  Auth:
    POST   /api/auth/register                      Create an account
    POST   /api/auth/login                         Exchange credentials for a token

  Leaves:
    GET    /api/leaves                             Own leaves (students) or all (admins)
    GET    /api/leaves/admin                       All leaves with stats (admin)
    GET    /api/leaves/stats                       Status counts
    POST   /api/leaves                             Submit a range request
    POST   /api/leaves/calendar                    Submit a calendar request
    PATCH  /api/leaves/{id}/status                 Approve or reject (admin)
    DELETE /api/leaves/{id}                        Withdraw or remove
    POST   /api/leaves/validate                    Quota check of a candidate
    GET    /api/leaves/monthly-limit/{userId}      Monthly usage
    GET    /api/leaves/calendar/{userId}/balance   Calendar balance

  Users, calendar, feedback and health: see server.go.

ARCHITECTURE:
  Handler holds every dependency behind an interface from generic/ except
  the quota checker and token issuer, which are concrete. Handlers do not
  count leave-days themselves; every quota answer comes from quota.Checker.

QUOTA ON SUBMISSION:
  Submissions run the uncached check. Exceeding the limit never blocks a
  submission: the response carries a LEAVE_LIMIT_EXCEEDED warning and an
  admin decides. A degraded check is reported as quotaCheck.validationFailed.

ERROR HANDLING:
  Errors are returned in the envelope described in respond.go:
  - 400: Validation errors, invalid input
  - 401/403: Authentication and authorization
  - 404: Missing user, leave, holiday or feedback
  - 409: Duplicates and decided leaves
  - 503: Leave records unavailable
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - quota/: The monthly quota engine
*/
package api

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eleave/leave-engine/auth"
	"github.com/eleave/leave-engine/generic"
	"github.com/eleave/leave-engine/quota"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Deps are the collaborators of a Handler.
type Deps struct {
	Users    generic.UserStore
	Leaves   generic.LeaveStore
	Holidays generic.HolidayStore
	Feedback generic.FeedbackStore
	Checker  *quota.Checker
	Issuer   *auth.Issuer
	Logger   *zap.Logger
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	users    generic.UserStore
	leaves   generic.LeaveStore
	holidays generic.HolidayStore
	feedback generic.FeedbackStore
	checker  *quota.Checker
	issuer   *auth.Issuer
	validate *validator.Validate
	logger   *zap.Logger
	newID    func() string
}

// NewHandler creates a handler over d.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.L()
	}
	return &Handler{
		users:    d.Users,
		leaves:   d.Leaves,
		holidays: d.Holidays,
		feedback: d.Feedback,
		checker:  d.Checker,
		issuer:   d.Issuer,
		validate: newValidator(),
		logger:   logger.Named("api"),
		newID:    uuid.NewString,
	}
}

// caller returns the authenticated user. Routes using it are mounted
// behind auth.Authenticate, so the claims are always present there.
func caller(r *http.Request) *auth.Claims {
	c, _ := auth.FromContext(r.Context())
	return c
}

// defaultEmail is used when a leave is submitted without an email.
func defaultEmail(userName string) string {
	return strings.ToLower(strings.ReplaceAll(userName, " ", "")) + "@student.edu"
}
