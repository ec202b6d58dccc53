package generic

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - A calendar day (all leave arithmetic is day-granular, UTC)
// =============================================================================

// DateLayout is the wire format of a calendar day.
const DateLayout = "2006-01-02"

type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime truncates t to its UTC calendar day.
func FromTime(t time.Time) TimePoint {
	u := t.UTC()
	return NewTimePoint(u.Year(), u.Month(), u.Day())
}

// ParseDate accepts "2006-01-02" or a full RFC3339 timestamp. Timestamps
// are reduced to their UTC calendar day.
func ParseDate(s string) (TimePoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimePoint{}, fmt.Errorf("%w: empty date", ErrInvalidDate)
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return FromTime(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return FromTime(t), nil
	}
	return TimePoint{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.day().Before(other.day()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.day().Equal(other.day()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.day().After(other.day()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

func (tp TimePoint) day() time.Time {
	u := tp.Time.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint   { return TimePoint{Time: tp.day().AddDate(0, 0, n)} }
func (tp TimePoint) AddMonths(n int) TimePoint { return TimePoint{Time: tp.day().AddDate(0, n, 0)} }

// Properties
func (tp TimePoint) Year() int             { return tp.day().Year() }
func (tp TimePoint) Month() time.Month     { return tp.day().Month() }
func (tp TimePoint) Day() int              { return tp.day().Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.day().Weekday() }
func (tp TimePoint) IsSunday() bool        { return tp.Weekday() == time.Sunday }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }
func (tp TimePoint) MonthKey() MonthKey    { return MonthKey{Year: tp.Year(), Month: tp.Month()} }

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.day().Format(DateLayout)
}

// =============================================================================
// HOLIDAY CALENDAR - Days on which leave cannot be requested
// =============================================================================

// HolidayType classifies a holiday for filtering in the calendar UI.
// Types are free-form; these are the ones the default set uses.
type HolidayType string

const (
	HolidayNational HolidayType = "national"
	HolidayFestival HolidayType = "festival"
	HolidayCollege  HolidayType = "college"
)

// Holiday is a day closed to leave requests. Recurring holidays are
// materialized once per year, so lookups match the exact date.
type Holiday struct {
	ID          string
	Date        TimePoint
	Name        string
	Type        HolidayType
	Description string
	Recurring   bool
	CreatedBy   string
}

// HolidayCalendar provides holiday lookup functionality.
type HolidayCalendar interface {
	// HolidayOn returns the holiday falling on date, if any.
	HolidayOn(date TimePoint) (Holiday, bool)
}

// NoHolidays is a calendar without holidays.
type NoHolidays struct{}

func (NoHolidays) HolidayOn(TimePoint) (Holiday, bool) { return Holiday{}, false }

// HolidayList is an in-memory HolidayCalendar.
type HolidayList []Holiday

func (l HolidayList) HolidayOn(date TimePoint) (Holiday, bool) {
	for _, h := range l {
		if h.Date.Equal(date) {
			return h, true
		}
	}
	return Holiday{}, false
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

// DaysBetween returns the calendar days from -> to, negative when to is
// earlier. It counts on day numbers rather than a time.Duration, which
// saturates after about 292 years.
func DaysBetween(from, to TimePoint) int { return to.dayNumber() - from.dayNumber() }

// dayNumber is the count of days since 1970-01-01.
func (tp TimePoint) dayNumber() int { return int(tp.day().Unix() / secondsPerDay) }

const secondsPerDay = 24 * 60 * 60

// DaysInclusive counts the calendar days of [start, end]. It returns 0
// when end precedes start.
func DaysInclusive(start, end TimePoint) int {
	if end.Before(start) {
		return 0
	}
	return DaysBetween(start, end) + 1
}

func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }
func EndOfMonth(year int, month time.Month) TimePoint {
	return TimePoint{Time: time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}
