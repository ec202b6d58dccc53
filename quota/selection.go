package quota

import (
	"fmt"
	"sort"

	"github.com/eleave/leave-engine/generic"
)

// MaxAdvanceMonths bounds how far ahead a date may be picked.
const MaxAdvanceMonths = 6

// MonthlyImpact is the number of valid picked dates in one month.
type MonthlyImpact struct {
	Month generic.MonthKey
	Count int
	Dates []string
}

// SelectionReport is the outcome of checking a set of picked dates.
type SelectionReport struct {
	IsValid       bool
	Errors        []string
	Warnings      []string
	ValidDates    []string
	InvalidDates  []string
	MonthlyImpact []MonthlyImpact // ordered by month
	TotalSelected int
}

// ValidateSelection checks each picked date for format, past, Sunday,
// holiday and horizon, then checks valid dates per month against the limit.
// Input order is kept in ValidDates and InvalidDates.
func ValidateSelection(dates []string, today generic.TimePoint, holidays generic.HolidayCalendar, p Policy) SelectionReport {
	if holidays == nil {
		holidays = generic.NoHolidays{}
	}
	rep := SelectionReport{
		Errors:        []string{},
		Warnings:      []string{},
		ValidDates:    []string{},
		InvalidDates:  []string{},
		MonthlyImpact: []MonthlyImpact{},
		TotalSelected: len(dates),
	}
	horizon := today.AddMonths(MaxAdvanceMonths)
	impact := map[generic.MonthKey]*MonthlyImpact{}

	for _, raw := range dates {
		d, err := generic.ParseDate(raw)
		if err != nil {
			rep.reject(raw, "Invalid date format: %s", raw)
			continue
		}
		if d.Before(today) {
			rep.reject(raw, "Cannot select past date: %s", d)
			continue
		}
		if d.IsSunday() {
			rep.reject(raw, "Cannot select Sunday: %s", d)
			continue
		}
		if h, ok := holidays.HolidayOn(d); ok {
			rep.reject(raw, "Cannot select holiday (%s): %s", h.Name, d)
			continue
		}
		if d.After(horizon) {
			rep.reject(raw, "Date beyond %d month limit: %s", MaxAdvanceMonths, d)
			continue
		}

		rep.ValidDates = append(rep.ValidDates, raw)
		mi, ok := impact[d.MonthKey()]
		if !ok {
			mi = &MonthlyImpact{Month: d.MonthKey()}
			impact[d.MonthKey()] = mi
		}
		mi.Count++
		mi.Dates = append(mi.Dates, raw)
	}

	for _, mi := range impact {
		rep.MonthlyImpact = append(rep.MonthlyImpact, *mi)
	}
	sort.Slice(rep.MonthlyImpact, func(i, j int) bool {
		return rep.MonthlyImpact[i].Month.String() < rep.MonthlyImpact[j].Month.String()
	})
	for _, mi := range rep.MonthlyImpact {
		switch {
		case mi.Count > p.MonthlyLimit:
			rep.Errors = append(rep.Errors, fmt.Sprintf(
				"Selection exceeds monthly limit for %s: %d dates selected (limit: %d)",
				mi.Month.Label(), mi.Count, p.MonthlyLimit))
		case mi.Count == p.MonthlyLimit:
			rep.Warnings = append(rep.Warnings, "Selection reaches monthly limit for "+mi.Month.Label())
		}
	}

	rep.IsValid = len(rep.Errors) == 0
	return rep
}

func (r *SelectionReport) reject(raw, format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.InvalidDates = append(r.InvalidDates, raw)
}
