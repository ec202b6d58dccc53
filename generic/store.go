/*
store.go - Persistence interfaces for users, leaves, holidays and feedback

PURPOSE:
  Defines the interface between the HTTP layer, the quota engine and the
  database. Different implementations use SQLite, MongoDB, or memory.

KEY INTERFACES:
  LeaveStore:    Leave records (the quota engine reads through it)
  UserStore:     Accounts
  HolidayStore:  Holidays, also a HolidayCalendar
  FeedbackStore: Feedback entries

CONSISTENCY:
  A status change followed by a read of the same user's leaves must observe
  the change (read-after-write per user). All implementations satisfy this
  trivially by reading from the same database they write to.

IMPLEMENTATIONS:
  - store/sqlite: all four interfaces
  - store/mongo: LeaveStore
  - generic/store: in-memory, all four interfaces

SEE ALSO:
  - errors.go: Errors returned by stores
*/
package generic

import (
	"context"
	"time"
)

// LeaveStore persists leave records.
type LeaveStore interface {
	CreateLeave(ctx context.Context, r LeaveRecord) error
	GetLeave(ctx context.Context, id string) (LeaveRecord, error)

	// ListLeaves returns matching records, newest submission first.
	ListLeaves(ctx context.Context, f LeaveFilter) ([]LeaveRecord, error)

	// LeavesByUser returns every record of the user regardless of status.
	LeavesByUser(ctx context.Context, userID string) ([]LeaveRecord, error)

	// DecideLeave moves a pending record to approved or rejected and stamps
	// DecidedAt. Returns ErrInvalidStatusTransition if it is not pending.
	DecideLeave(ctx context.Context, id string, status LeaveStatus, by string, at time.Time) (LeaveRecord, error)

	DeleteLeave(ctx context.Context, id string) error

	// DeleteLeavesByUser removes every record of the user and returns the count.
	DeleteLeavesByUser(ctx context.Context, userID string) (int, error)

	Ping(ctx context.Context) error
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// HolidayFilter narrows holiday listings. Zero fields match everything.
// Month is 1-12.
type HolidayFilter struct {
	From  TimePoint
	To    TimePoint
	Year  int
	Month int
	Type  HolidayType
}

func (f HolidayFilter) Match(h Holiday) bool {
	if !f.From.IsZero() && h.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && h.Date.After(f.To) {
		return false
	}
	if f.Year != 0 && h.Date.Year() != f.Year {
		return false
	}
	if f.Month != 0 && int(h.Date.Month()) != f.Month {
		return false
	}
	return f.Type == "" || h.Type == f.Type
}

// HolidayStore persists holidays. At most one holiday per date.
type HolidayStore interface {
	HolidayCalendar
	SaveHoliday(ctx context.Context, h Holiday) error
	DeleteHoliday(ctx context.Context, id string) error
	ListHolidays(ctx context.Context, f HolidayFilter) ([]Holiday, error)
	HolidayTypesInUse(ctx context.Context) ([]HolidayType, error)
}

// FeedbackStore persists feedback.
type FeedbackStore interface {
	CreateFeedback(ctx context.Context, f Feedback) error
	GetFeedback(ctx context.Context, id string) (Feedback, error)
	ListFeedback(ctx context.Context, f FeedbackFilter) ([]Feedback, error)
	UpdateFeedback(ctx context.Context, f Feedback) error
}
