/*
Package quota implements the monthly leave quota engine.

PURPOSE:
  Counts how many approved leave-days a student already has in a calendar
  month, projects a candidate request on top of that, and classifies the
  result against the monthly limit. One implementation serves the HTTP
  handlers and the Go client, so the advisory and the binding numbers
  cannot drift apart.

KEY CONCEPTS:
  - Aggregate: approved leave-days in a month (pure)
  - Policy.Evaluate: Verdict for a candidate given current usage (pure)
  - Outcome: Confident(Verdict) or Degraded(reason); the fail-open fork
  - Checker: fetches records with retry, caches verdicts, degrades

BUCKETING:
  A record counts in the month of its DecidedAt timestamp (UTC), i.e. the
  month an administrator approved it. A calendar record contributes all of
  its dates to that month even when the dates themselves fall elsewhere.

SEE ALSO:
  - evaluate.go: Verdict computation and messages
  - checker.go: Server-side orchestration
  - selection.go: Per-date checks for the calendar picker
*/
package quota

import (
	"github.com/eleave/leave-engine/generic"
)

// RecordDays is the number of leave-days a record stands for:
//
//	calendar with dates -> number of distinct dates
//	valid range         -> inclusive day count
//	anything else       -> 1
func RecordDays(r generic.LeaveRecord) int {
	if r.Kind == generic.KindCalendar && len(r.SelectedDates) > 0 {
		return len(distinctDays(r.SelectedDates))
	}
	if rng := r.Range(); rng.Valid() {
		return rng.Len()
	}
	return 1
}

// Counts reports whether the record contributes to month's usage.
func Counts(r generic.LeaveRecord, month generic.MonthKey) bool {
	return r.Status == generic.StatusApproved &&
		!r.DecidedAt.IsZero() &&
		generic.MonthKeyOf(r.DecidedAt) == month
}

// Aggregate sums the approved leave-days of records decided in month.
func Aggregate(records []generic.LeaveRecord, month generic.MonthKey) int {
	total := 0
	for _, r := range records {
		if Counts(r, month) {
			total += RecordDays(r)
		}
	}
	return total
}

func distinctDays(days []generic.TimePoint) []generic.TimePoint {
	seen := make(map[string]struct{}, len(days))
	out := make([]generic.TimePoint, 0, len(days))
	for _, d := range days {
		k := d.String()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	return out
}
