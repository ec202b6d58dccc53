package quota

import (
	"time"

	"github.com/eleave/leave-engine/generic"
)

// Balance is the calendar picker's view of a month. Unlike Aggregate it
// places calendar dates in the month they fall in, so it answers "which of
// the days I see are taken" rather than the binding quota question.
type Balance struct {
	Month          generic.MonthKey
	Used           int
	Remaining      int
	Limit          int
	ApprovedLeaves []BalanceEntry
}

type BalanceEntry struct {
	ID            string
	Kind          generic.RequestKind
	SelectedDates []generic.TimePoint
	ApprovedAt    time.Time
}

// CalendarBalance counts approved calendar dates inside month plus approved
// range records decided in month.
func CalendarBalance(records []generic.LeaveRecord, month generic.MonthKey, p Policy) Balance {
	b := Balance{Month: month, Limit: p.MonthlyLimit, ApprovedLeaves: []BalanceEntry{}}
	for _, r := range records {
		if r.Status != generic.StatusApproved {
			continue
		}

		used := 0
		if r.Kind == generic.KindCalendar && len(r.SelectedDates) > 0 {
			for _, d := range distinctDays(r.SelectedDates) {
				if month.Contains(d) {
					used++
				}
			}
		} else if Counts(r, month) {
			used = RecordDays(r)
		}
		if used == 0 {
			continue
		}

		b.Used += used
		b.ApprovedLeaves = append(b.ApprovedLeaves, BalanceEntry{
			ID:            r.ID,
			Kind:          r.Kind,
			SelectedDates: r.SelectedDates,
			ApprovedAt:    r.DecidedAt,
		})
	}
	b.Remaining = max(0, b.Limit-b.Used)
	return b
}
