package quota_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleave/leave-engine/quota"
)

func rangeOf(n int) quota.Candidate {
	// n consecutive days starting Monday 2025-01-06
	start := day(2025, 1, 6)
	return quota.RangeCandidate(start, start.AddDays(n-1))
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, quota.ErrValidation))
	ve, ok := quota.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, code, ve.Code)
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestEvaluate_WithinLimitExactlyUsesQuota(t *testing.T) {
	// GIVEN: no usage, three days requested, limit 3
	v, err := quota.DefaultPolicy().Evaluate(0, rangeOf(3))
	require.NoError(t, err)

	// THEN: within limit, nothing left afterwards
	assert.Equal(t, 3, v.RequestedDays)
	assert.Equal(t, 3, v.ProjectedUsage)
	assert.Equal(t, 3, v.RemainingLeaves)
	assert.False(t, v.ExceedsLimit)
	assert.False(t, v.LimitReached)
	assert.True(t, v.IsValid)
	assert.Contains(t, v.Message, "within your monthly limit")
	assert.Contains(t, v.Message, "0 days remaining")
}

func TestEvaluate_LimitAlreadyReached(t *testing.T) {
	v, err := quota.DefaultPolicy().Evaluate(3, rangeOf(1))
	require.NoError(t, err)

	assert.True(t, v.LimitReached)
	assert.True(t, v.ExceedsLimit)
	assert.Equal(t, 0, v.RemainingLeaves)
	assert.Equal(t, "You have already reached your monthly leave limit of 3 days.", v.Message)
}

func TestEvaluate_ExceedsByOneDay(t *testing.T) {
	v, err := quota.DefaultPolicy().Evaluate(2, rangeOf(2))
	require.NoError(t, err)

	assert.True(t, v.ExceedsLimit)
	assert.False(t, v.LimitReached)
	assert.Equal(t, 4, v.ProjectedUsage)
	assert.Equal(t, 1, v.ExceedsBy())
	assert.Equal(t, "This request would exceed your monthly limit by 1 day.", v.Message)
}

func TestEvaluate_ExceedsByManyDays(t *testing.T) {
	v, err := quota.DefaultPolicy().Evaluate(1, rangeOf(5))
	require.NoError(t, err)
	assert.Equal(t, "This request would exceed your monthly limit by 3 days.", v.Message)
}

func TestEvaluate_OneDayRemaining(t *testing.T) {
	v, err := quota.DefaultPolicy().Evaluate(1, rangeOf(1))
	require.NoError(t, err)
	assert.Equal(t, "This request is within your monthly limit. You will have 1 day remaining.", v.Message)
}

func TestEvaluate_ConfigurableLimit(t *testing.T) {
	p := quota.Policy{MonthlyLimit: 5}
	v, err := p.Evaluate(3, rangeOf(2))
	require.NoError(t, err)
	assert.False(t, v.ExceedsLimit)
	assert.Equal(t, 5, v.MonthlyLimit)
	assert.Equal(t, 2, v.RemainingLeaves)
}

func TestEvaluate_RemainingNeverNegative(t *testing.T) {
	v, err := quota.DefaultPolicy().Evaluate(7, rangeOf(1))
	require.NoError(t, err)
	assert.Equal(t, 0, v.RemainingLeaves)
}

func TestEvaluate_SelectedDates(t *testing.T) {
	c := quota.DatesCandidate(day(2025, 1, 6), day(2025, 1, 8), day(2025, 2, 3))
	v, err := quota.DefaultPolicy().Evaluate(0, c)
	require.NoError(t, err)
	assert.Equal(t, 3, v.RequestedDays)
	assert.False(t, v.ExceedsLimit)
}

func TestEvaluate_SelectedDatesDeduplicated(t *testing.T) {
	c := quota.Candidate{SelectedDates: []string{"2025-01-06", "2025-01-06", "2025-01-07T00:00:00Z"}}
	n, err := quota.DefaultPolicy().RequestedDays(c)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEvaluate_SelectedDatesWinOverRange(t *testing.T) {
	c := quota.Candidate{StartDate: "2025-01-01", EndDate: "2025-01-31", SelectedDates: []string{"2025-01-06"}}
	n, err := quota.DefaultPolicy().RequestedDays(c)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestEvaluate_ValidationCodes(t *testing.T) {
	p := quota.DefaultPolicy()

	_, err := p.Evaluate(0, quota.Candidate{StartDate: "2025-01-10", EndDate: "2025-01-05"})
	requireCode(t, err, quota.CodeInvalidDateRange)

	_, err = p.Evaluate(0, quota.Candidate{})
	requireCode(t, err, quota.CodeNoDates)

	_, err = p.Evaluate(0, quota.Candidate{SelectedDates: []string{}})
	requireCode(t, err, quota.CodeNoDates)

	_, err = p.Evaluate(0, quota.Candidate{StartDate: "2025-01-10"})
	requireCode(t, err, quota.CodeNoDates)

	_, err = p.Evaluate(0, quota.Candidate{StartDate: "not-a-date", EndDate: "2025-01-05"})
	requireCode(t, err, quota.CodeInvalidDate)

	_, err = p.Evaluate(0, quota.Candidate{SelectedDates: []string{"2025-01-06", "2025-13-40"}})
	requireCode(t, err, quota.CodeInvalidDate)
}

// =============================================================================
// SINGLE SOURCE OF TRUTH
// =============================================================================

func TestEvaluate_RequestedDaysMatchesDayCount(t *testing.T) {
	p := quota.DefaultPolicy()
	start := day(2024, 12, 20)
	for n := 0; n < 60; n++ {
		end := start.AddDays(n)
		c := quota.RangeCandidate(start, end)

		want, err := quota.DayCount(c.StartDate, c.EndDate)
		require.NoError(t, err)
		got, err := p.RequestedDays(c)
		require.NoError(t, err)

		assert.Equal(t, want, got, "%s..%s", c.StartDate, c.EndDate)
		assert.Equal(t, n+1, got)
	}
}

func TestDayCount_LongRange(t *testing.T) {
	n, err := quota.DayCount("1000-01-01", "9999-12-31")
	require.NoError(t, err)
	assert.Equal(t, 3287182, n)
}

func TestRequest_KeyCanonical(t *testing.T) {
	a, err := quota.Candidate{SelectedDates: []string{"2025-01-08", "2025-01-06", "2025-01-08"}}.Parse()
	require.NoError(t, err)
	b, err := quota.Candidate{SelectedDates: []string{"2025-01-06", "2025-01-08T00:00:00Z"}}.Parse()
	require.NoError(t, err)
	assert.Equal(t, a.Key(), b.Key())

	r, err := quota.Candidate{StartDate: "2025-01-06", EndDate: "2025-01-08"}.Parse()
	require.NoError(t, err)
	assert.NotEqual(t, a.Key(), r.Key())
}
