package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH KEY - The bucket in which quota usage is counted
// =============================================================================

// MonthKey identifies a Gregorian calendar month. Two days share a MonthKey
// iff they share year and month number.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthKeyOf buckets a timestamp by its UTC calendar month.
func MonthKeyOf(t time.Time) MonthKey {
	u := t.UTC()
	return MonthKey{Year: u.Year(), Month: u.Month()}
}

// ParseMonthKey parses "2006-01".
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("%w: month %q", ErrInvalidDate, s)
	}
	return MonthKey{Year: t.Year(), Month: t.Month()}, nil
}

func (m MonthKey) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

// Label is the human form used in messages, e.g. "January 2025".
func (m MonthKey) Label() string { return fmt.Sprintf("%s %d", m.Month, m.Year) }

func (m MonthKey) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// Period returns the first and last day of the month.
func (m MonthKey) Period() Period {
	return Period{Start: StartOfMonth(m.Year, m.Month), End: EndOfMonth(m.Year, m.Month)}
}

func (m MonthKey) Contains(tp TimePoint) bool { return tp.MonthKey() == m }
