package generic

// =============================================================================
// PERIOD - An inclusive run of calendar days
// =============================================================================

// Period is the inclusive range [Start, End]. A range leave request and a
// calendar month are both periods.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Valid reports whether both ends are set and End is not before Start.
func (p Period) Valid() bool {
	return !p.Start.IsZero() && !p.End.IsZero() && p.End.AfterOrEqual(p.Start)
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Len is the inclusive day count, 0 for an invalid period.
func (p Period) Len() int {
	if !p.Valid() {
		return 0
	}
	return DaysInclusive(p.Start, p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Overlaps reports whether the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
