package quota_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleave/leave-engine/generic"
	"github.com/eleave/leave-engine/quota"
)

func TestValidateSelection(t *testing.T) {
	// GIVEN: today is Wednesday 2025-01-15 and Republic Day is a holiday
	today := day(2025, 1, 15)
	holidays := generic.HolidayList{{ID: "rd", Date: day(2025, 1, 27), Name: "Republic Day"}}

	dates := []string{
		"2025-01-16", // valid
		"2025-01-14", // past
		"2025-01-19", // Sunday
		"2025-01-27", // holiday
		"2025-09-01", // beyond six months
		"garbage",
		"2025-02-03", // valid
	}

	// WHEN
	rep := quota.ValidateSelection(dates, today, holidays, quota.DefaultPolicy())

	// THEN
	assert.False(t, rep.IsValid)
	assert.Equal(t, []string{"2025-01-16", "2025-02-03"}, rep.ValidDates)
	assert.Equal(t, []string{"2025-01-14", "2025-01-19", "2025-01-27", "2025-09-01", "garbage"}, rep.InvalidDates)
	assert.Equal(t, 7, rep.TotalSelected)
	assert.Contains(t, rep.Errors, "Cannot select past date: 2025-01-14")
	assert.Contains(t, rep.Errors, "Cannot select Sunday: 2025-01-19")
	assert.Contains(t, rep.Errors, "Cannot select holiday (Republic Day): 2025-01-27")
	assert.Contains(t, rep.Errors, "Date beyond 6 month limit: 2025-09-01")
	assert.Contains(t, rep.Errors, "Invalid date format: garbage")

	require.Len(t, rep.MonthlyImpact, 2)
	assert.Equal(t, "2025-01", rep.MonthlyImpact[0].Month.String())
	assert.Equal(t, 1, rep.MonthlyImpact[0].Count)
}

func TestValidateSelection_MonthlyLimit(t *testing.T) {
	today := day(2025, 1, 1)
	p := quota.DefaultPolicy()

	atLimit := quota.ValidateSelection([]string{"2025-01-06", "2025-01-07", "2025-01-08"}, today, nil, p)
	assert.True(t, atLimit.IsValid)
	assert.Equal(t, []string{"Selection reaches monthly limit for January 2025"}, atLimit.Warnings)

	over := quota.ValidateSelection([]string{"2025-01-06", "2025-01-07", "2025-01-08", "2025-01-09"}, today, nil, p)
	assert.False(t, over.IsValid)
	assert.Equal(t, []string{"Selection exceeds monthly limit for January 2025: 4 dates selected (limit: 3)"}, over.Errors)
}

func TestCalendarBalance_BucketsDatesByOwnMonth(t *testing.T) {
	records := []generic.LeaveRecord{
		calendarLeave("c1", generic.StatusApproved, approvedAt(2024, 12, 30), day(2025, 1, 6), day(2025, 1, 7), day(2025, 2, 3)),
		rangeLeave("r1", generic.StatusApproved, day(2025, 1, 20), day(2025, 1, 21), approvedAt(2025, 1, 10)),
		rangeLeave("r2", generic.StatusPending, day(2025, 1, 22), day(2025, 1, 22), time.Time{}),
	}

	b := quota.CalendarBalance(records, jan2025, quota.DefaultPolicy())

	assert.Equal(t, 4, b.Used)
	assert.Equal(t, 0, b.Remaining)
	require.Len(t, b.ApprovedLeaves, 2)
	assert.Equal(t, "c1", b.ApprovedLeaves[0].ID)
}
