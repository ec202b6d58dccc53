package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleave/leave-engine/generic"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(y int, m time.Month, d int) generic.TimePoint { return generic.NewTimePoint(y, m, d) }

func TestUsers_DuplicateEmailAndRollNumber(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, generic.User{
		ID: "u1", Name: "Asha", Email: "Asha@College.edu", PasswordHash: "x",
		Role: generic.RoleStudent, Stream: "BCA", RollNumber: "BCA-01",
	}))

	// Email comparison ignores case
	err := store.CreateUser(ctx, generic.User{
		ID: "u2", Name: "Other", Email: "asha@college.edu", PasswordHash: "x", Role: generic.RoleStudent,
	})
	assert.ErrorIs(t, err, generic.ErrDuplicateEmail)

	err = store.CreateUser(ctx, generic.User{
		ID: "u3", Name: "Other", Email: "other@college.edu", PasswordHash: "x",
		Role: generic.RoleStudent, RollNumber: "BCA-01",
	})
	assert.ErrorIs(t, err, generic.ErrDuplicateRollNumber)

	u, err := store.GetUserByEmail(ctx, " ASHA@college.edu ")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "asha@college.edu", u.Email)

	_, err = store.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrUserNotFound)

	require.NoError(t, store.DeleteUser(ctx, "u1"))
	assert.ErrorIs(t, store.DeleteUser(ctx, "u1"), generic.ErrUserNotFound)
}

func TestLeaves_RoundTripAndDecide(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// GIVEN: a calendar leave and a range leave
	cal := generic.LeaveRecord{
		ID: "l1", UserID: "stu-1", UserName: "Asha", Stream: "BCA", Reason: "family",
		Kind:          generic.KindCalendar,
		SelectedDates: []generic.TimePoint{day(2025, 1, 6), day(2025, 1, 7)},
		SubmittedAt:   time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC),
	}
	rng := generic.LeaveRecord{
		ID: "l2", UserID: "stu-1", UserName: "Asha", Stream: "BCA", Reason: "trip",
		Kind:        generic.KindRange,
		StartDate:   day(2025, 1, 20),
		EndDate:     day(2025, 1, 22),
		SubmittedAt: time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateLeave(ctx, cal))
	require.NoError(t, store.CreateLeave(ctx, rng))

	got, err := store.GetLeave(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, generic.StatusPending, got.Status)
	require.Len(t, got.SelectedDates, 2)
	assert.True(t, got.SelectedDates[1].Equal(day(2025, 1, 7)))

	// Newest submission first
	list, err := store.LeavesByUser(ctx, "stu-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "l2", list[0].ID)

	// WHEN: the range leave is approved
	at := time.Date(2025, 1, 10, 12, 30, 0, 0, time.UTC)
	decided, err := store.DecideLeave(ctx, "l2", generic.StatusApproved, "admin-1", at)
	require.NoError(t, err)

	// THEN: the decision is stamped and visible on the next read
	assert.Equal(t, generic.StatusApproved, decided.Status)
	assert.True(t, decided.DecidedAt.Equal(at))
	assert.Equal(t, "admin-1", decided.DecidedBy)

	approved, err := store.ListLeaves(ctx, generic.LeaveFilter{UserID: "stu-1", Status: generic.StatusApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, 3, approved[0].Range().Len())

	// AND: a second decision is refused
	_, err = store.DecideLeave(ctx, "l2", generic.StatusRejected, "admin-1", at)
	var te *generic.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, generic.StatusApproved, te.From)
	assert.ErrorIs(t, err, generic.ErrInvalidStatusTransition)

	_, err = store.DecideLeave(ctx, "nope", generic.StatusApproved, "admin-1", at)
	assert.ErrorIs(t, err, generic.ErrLeaveNotFound)
}

func TestLeaves_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		require.NoError(t, store.CreateLeave(ctx, generic.LeaveRecord{
			ID: id, UserID: "stu-1", UserName: "Asha", Reason: "r", Kind: generic.KindRange,
			StartDate: day(2025, 2, 3), EndDate: day(2025, 2, 3),
		}))
	}
	require.NoError(t, store.DeleteLeave(ctx, "a"))
	assert.ErrorIs(t, store.DeleteLeave(ctx, "a"), generic.ErrLeaveNotFound)

	n, err := store.DeleteLeavesByUser(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHolidays(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHoliday(ctx, generic.Holiday{
		ID: "h1", Date: day(2025, 1, 26), Name: "Republic Day", Type: generic.HolidayNational, Recurring: true,
	}))
	require.NoError(t, store.SaveHoliday(ctx, generic.Holiday{
		ID: "h2", Date: day(2025, 3, 14), Name: "Holi", Type: generic.HolidayFestival,
	}))

	// One holiday per date
	err := store.SaveHoliday(ctx, generic.Holiday{ID: "h3", Date: day(2025, 1, 26), Name: "Dup", Type: "college"})
	assert.ErrorIs(t, err, generic.ErrHolidayExists)

	h, ok := store.HolidayOn(day(2025, 1, 26))
	require.True(t, ok)
	assert.Equal(t, "Republic Day", h.Name)
	assert.True(t, h.Recurring)

	_, ok = store.HolidayOn(day(2026, 1, 26))
	assert.False(t, ok, "recurring holidays are materialized per year")

	march, err := store.ListHolidays(ctx, generic.HolidayFilter{Year: 2025, Month: 3})
	require.NoError(t, err)
	require.Len(t, march, 1)
	assert.Equal(t, "Holi", march[0].Name)

	types, err := store.HolidayTypesInUse(ctx)
	require.NoError(t, err)
	assert.Equal(t, []generic.HolidayType{generic.HolidayFestival, generic.HolidayNational}, types)

	require.NoError(t, store.DeleteHoliday(ctx, "h2"))
	assert.ErrorIs(t, store.DeleteHoliday(ctx, "h2"), generic.ErrHolidayNotFound)
}

func TestFeedback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fb := generic.Feedback{
		ID: "f1", UserID: "stu-1", UserName: "Asha", UserRole: generic.RoleStudent,
		Category: generic.CategorySuggestion, Rating: 4, Subject: "Calendar", Message: "Show holidays",
	}
	require.NoError(t, store.CreateFeedback(ctx, fb))

	got, err := store.GetFeedback(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, generic.FeedbackNew, got.Status)
	assert.False(t, got.CreatedAt.IsZero())

	got.Status = generic.FeedbackResolved
	got.AdminResponse = "Done"
	got.RespondedBy = "admin-1"
	got.RespondedAt = time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	got.UpdatedAt = time.Time{}
	require.NoError(t, store.UpdateFeedback(ctx, got))

	list, err := store.ListFeedback(ctx, generic.FeedbackFilter{Status: generic.FeedbackResolved})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Done", list[0].AdminResponse)

	assert.ErrorIs(t, store.UpdateFeedback(ctx, generic.Feedback{ID: "none"}), generic.ErrFeedbackNotFound)
	_, err = store.GetFeedback(ctx, "none")
	assert.ErrorIs(t, err, generic.ErrFeedbackNotFound)
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, generic.User{
		ID: "u1", Name: "Asha", Email: "asha@college.edu", PasswordHash: "x", Role: generic.RoleAdmin,
	}))
	require.NoError(t, store.SaveHoliday(ctx, generic.Holiday{
		ID: "h1", Date: day(2025, time.January, 26), Name: "Republic Day", Type: generic.HolidayNational,
	}))

	require.NoError(t, store.Reset(ctx))

	_, err := store.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, generic.ErrUserNotFound)
	holidays, err := store.ListHolidays(ctx, generic.HolidayFilter{})
	require.NoError(t, err)
	assert.Empty(t, holidays)
}
