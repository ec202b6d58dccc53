/*
Package generic provides the shared model of the leave service.

PURPOSE:
  Domain-level types used by every other package: users, leave records,
  holidays and feedback, together with the calendar primitives they are
  expressed in. Nothing here performs I/O.

KEY CONCEPTS IN THIS FILE (types.go):
  - User: a student or an administrator
  - LeaveRecord: one submitted leave request, range or calendar shaped
  - Feedback: a user's rating and comment about the service

LEAVE LIFECYCLE:
  pending -> approved | rejected (terminal, decided once by an admin)
  DecidedAt is stamped on the transition and is the timestamp whose month
  the quota engine counts the leave in.

SEE ALSO:
  - time.go: TimePoint and holidays
  - month.go: MonthKey
  - store.go: Persistence interfaces
  - quota/: The monthly quota engine over LeaveRecord
*/
package generic

import "time"

// =============================================================================
// USERS
// =============================================================================

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool { return r == RoleStudent || r == RoleAdmin }

// Streams are the academic programmes a student can belong to.
var Streams = []string{"BCA", "BA", "PGDCA", "BSC", "BCOM"}

// ValidStream reports whether s is one of Streams.
func ValidStream(s string) bool {
	for _, v := range Streams {
		if v == s {
			return true
		}
	}
	return false
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Stream       string // students only
	RollNumber   string // students only, unique
	CreatedAt    time.Time
}

// =============================================================================
// LEAVE RECORDS
// =============================================================================

type LeaveStatus string

const (
	StatusPending  LeaveStatus = "pending"
	StatusApproved LeaveStatus = "approved"
	StatusRejected LeaveStatus = "rejected"
)

func (s LeaveStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Decided reports whether s is a terminal status.
func (s LeaveStatus) Decided() bool { return s == StatusApproved || s == StatusRejected }

// RequestKind distinguishes the two shapes a leave request can take.
type RequestKind string

const (
	KindRange    RequestKind = "range"    // contiguous StartDate..EndDate
	KindCalendar RequestKind = "calendar" // explicit SelectedDates
)

type LeaveRecord struct {
	ID         string
	UserID     string
	UserName   string
	UserEmail  string
	RollNumber string
	Stream     string
	LeaveType  string
	Reason     string
	Status     LeaveStatus
	Kind       RequestKind

	// Range shape. Zero when absent.
	StartDate TimePoint
	EndDate   TimePoint

	// Calendar shape.
	SelectedDates []TimePoint

	SubmittedAt time.Time
	DecidedAt   time.Time // zero while pending
	DecidedBy   string
}

// Range returns the record's range as a Period.
func (r LeaveRecord) Range() Period { return Period{Start: r.StartDate, End: r.EndDate} }

// CanTransition reports whether the record may move to next.
func (r LeaveRecord) CanTransition(next LeaveStatus) bool {
	return r.Status == StatusPending && next.Decided()
}

// LeaveFilter narrows leave listings. Empty fields match everything.
type LeaveFilter struct {
	UserID string
	Stream string
	Status LeaveStatus
}

func (f LeaveFilter) Match(r LeaveRecord) bool {
	return (f.UserID == "" || r.UserID == f.UserID) &&
		(f.Stream == "" || r.Stream == f.Stream) &&
		(f.Status == "" || r.Status == f.Status)
}

// LeaveStats counts records per status.
type LeaveStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// CountLeaves tallies records per status.
func CountLeaves(records []LeaveRecord) LeaveStats {
	var s LeaveStats
	for _, r := range records {
		s.Total++
		switch r.Status {
		case StatusPending:
			s.Pending++
		case StatusApproved:
			s.Approved++
		case StatusRejected:
			s.Rejected++
		}
	}
	return s
}

// =============================================================================
// FEEDBACK
// =============================================================================

type FeedbackCategory string

const (
	CategoryBug        FeedbackCategory = "bug"
	CategorySuggestion FeedbackCategory = "suggestion"
	CategoryComplaint  FeedbackCategory = "complaint"
	CategoryPraise     FeedbackCategory = "praise"
	CategoryOther      FeedbackCategory = "other"
)

type FeedbackStatus string

const (
	FeedbackNew      FeedbackStatus = "new"
	FeedbackReviewed FeedbackStatus = "reviewed"
	FeedbackResolved FeedbackStatus = "resolved"
)

type Feedback struct {
	ID            string
	UserID        string
	UserName      string
	UserRole      Role
	Category      FeedbackCategory
	Rating        int
	Subject       string
	Message       string
	Status        FeedbackStatus
	AdminResponse string
	RespondedBy   string
	RespondedAt   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type FeedbackFilter struct {
	UserID   string
	Status   FeedbackStatus
	Category FeedbackCategory
}

func (f FeedbackFilter) Match(fb Feedback) bool {
	return (f.UserID == "" || fb.UserID == f.UserID) &&
		(f.Status == "" || fb.Status == f.Status) &&
		(f.Category == "" || fb.Category == f.Category)
}
