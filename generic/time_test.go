package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleave/leave-engine/generic"
)

func day(y int, m time.Month, d int) generic.TimePoint { return generic.NewTimePoint(y, m, d) }

// =============================================================================
// DATE PARSING
// =============================================================================

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    generic.TimePoint
		wantErr bool
	}{
		{in: "2025-01-20", want: day(2025, time.January, 20)},
		{in: " 2025-01-20 ", want: day(2025, time.January, 20)},
		{in: "2025-01-20T23:30:00Z", want: day(2025, time.January, 20)},
		// Offsets are reduced to the UTC day
		{in: "2025-01-21T02:00:00+05:30", want: day(2025, time.January, 20)},
		{in: "", wantErr: true},
		{in: "20-01-2025", wantErr: true},
		{in: "2025-02-30", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := generic.ParseDate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, generic.ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s", got)
		})
	}
}

// =============================================================================
// PERIODS AND MONTHS
// =============================================================================

func TestPeriod_LenAndDays(t *testing.T) {
	// GIVEN: a period spanning a month boundary
	p := generic.Period{Start: day(2025, time.January, 30), End: day(2025, time.February, 2)}

	// THEN: both ends are counted
	assert.Equal(t, 4, p.Len())
	require.Len(t, p.Days(), 4)
	assert.Equal(t, "2025-02-02", p.Days()[3].String())

	reversed := generic.Period{Start: p.End, End: p.Start}
	assert.False(t, reversed.Valid())
	assert.Equal(t, 0, reversed.Len())
}

func TestPeriod_Overlaps(t *testing.T) {
	jan := generic.MonthKey{Year: 2025, Month: time.January}.Period()

	assert.True(t, jan.Overlaps(generic.Period{Start: day(2024, time.December, 30), End: day(2025, time.January, 1)}))
	assert.True(t, jan.Overlaps(generic.Period{Start: day(2025, time.January, 31), End: day(2025, time.February, 3)}))
	assert.False(t, jan.Overlaps(generic.Period{Start: day(2025, time.February, 1), End: day(2025, time.February, 3)}))
}

func TestMonthKey(t *testing.T) {
	m, err := generic.ParseMonthKey("2024-02")
	require.NoError(t, err)

	assert.Equal(t, "2024-02", m.String())
	assert.Equal(t, "February 2024", m.Label())
	// Leap year
	assert.Equal(t, 29, m.Period().Len())
	assert.True(t, m.Contains(day(2024, time.February, 29)))
	assert.False(t, m.Contains(day(2025, time.February, 1)))

	_, err = generic.ParseMonthKey("2024-13")
	assert.ErrorIs(t, err, generic.ErrInvalidDate)
}

func TestMonthKeyOf_UsesUTC(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2025, time.February, 1, 3, 0, 0, 0, ist)

	assert.Equal(t, generic.MonthKey{Year: 2025, Month: time.January}, generic.MonthKeyOf(local))
}

// =============================================================================
// HOLIDAYS AND RECORDS
// =============================================================================

func TestHolidayList_ExactDate(t *testing.T) {
	cal := generic.HolidayList{
		{ID: "republic-2025", Date: day(2025, time.January, 26), Name: "Republic Day", Recurring: true},
	}

	h, ok := cal.HolidayOn(day(2025, time.January, 26))
	require.True(t, ok)
	assert.Equal(t, "Republic Day", h.Name)

	// Recurring holidays are stored per year, so another year does not match
	_, ok = cal.HolidayOn(day(2026, time.January, 26))
	assert.False(t, ok)

	_, ok = generic.NoHolidays{}.HolidayOn(day(2025, time.January, 26))
	assert.False(t, ok)
}

func TestLeaveRecord_CanTransition(t *testing.T) {
	pending := generic.LeaveRecord{Status: generic.StatusPending}
	approved := generic.LeaveRecord{Status: generic.StatusApproved}

	assert.True(t, pending.CanTransition(generic.StatusApproved))
	assert.True(t, pending.CanTransition(generic.StatusRejected))
	assert.False(t, pending.CanTransition(generic.StatusPending))
	assert.False(t, approved.CanTransition(generic.StatusRejected))
}

func TestCountLeaves(t *testing.T) {
	stats := generic.CountLeaves([]generic.LeaveRecord{
		{Status: generic.StatusPending},
		{Status: generic.StatusApproved},
		{Status: generic.StatusApproved},
		{Status: generic.StatusRejected},
	})

	assert.Equal(t, generic.LeaveStats{Total: 4, Pending: 1, Approved: 2, Rejected: 1}, stats)
}

func TestDaysInclusive_LongRanges(t *testing.T) {
	tests := []struct {
		start, end generic.TimePoint
		want       int
	}{
		{day(2025, time.January, 1), day(2025, time.December, 31), 365},
		{day(2024, time.February, 28), day(2024, time.March, 1), 3},
		{day(1969, time.December, 31), day(1970, time.January, 1), 2},
		// Spans longer than a time.Duration can hold
		{day(1000, time.January, 1), day(9999, time.December, 31), 3287182},
		{day(2025, time.January, 2), day(2025, time.January, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.start.String()+".."+tt.end.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, generic.DaysInclusive(tt.start, tt.end))
		})
	}
	assert.Equal(t, -1, generic.DaysBetween(day(2025, time.January, 2), day(2025, time.January, 1)))
}
