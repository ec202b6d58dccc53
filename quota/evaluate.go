package quota

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eleave/leave-engine/generic"
)

// DefaultMonthlyLimit is the number of approved leave-days per month.
const DefaultMonthlyLimit = 3

// Candidate is a leave request under consideration, as received from a
// caller. Exactly one shape is meaningful: SelectedDates when non-empty,
// otherwise StartDate/EndDate.
type Candidate struct {
	StartDate     string   `json:"startDate,omitempty"`
	EndDate       string   `json:"endDate,omitempty"`
	SelectedDates []string `json:"selectedDates,omitempty"`
}

// RangeCandidate builds a range candidate from two days.
func RangeCandidate(start, end generic.TimePoint) Candidate {
	return Candidate{StartDate: start.String(), EndDate: end.String()}
}

// DatesCandidate builds a calendar candidate.
func DatesCandidate(days ...generic.TimePoint) Candidate {
	c := Candidate{SelectedDates: make([]string, len(days))}
	for i, d := range days {
		c.SelectedDates[i] = d.String()
	}
	return c
}

// Request is a validated Candidate.
type Request struct {
	Kind   generic.RequestKind
	Period generic.Period      // KindRange
	Dates  []generic.TimePoint // KindCalendar, distinct and sorted
}

// Days is the number of leave-days the request asks for.
func (r Request) Days() int {
	if r.Kind == generic.KindCalendar {
		return len(r.Dates)
	}
	return r.Period.Len()
}

// Key is a canonical form of the request, stable across equivalent inputs.
func (r Request) Key() string {
	if r.Kind == generic.KindCalendar {
		parts := make([]string, len(r.Dates))
		for i, d := range r.Dates {
			parts[i] = d.String()
		}
		return "dates:" + strings.Join(parts, ",")
	}
	return "range:" + r.Period.Start.String() + ":" + r.Period.End.String()
}

// Parse validates c. Errors are *ValidationError.
func (c Candidate) Parse() (Request, error) {
	if len(c.SelectedDates) > 0 {
		days := make([]generic.TimePoint, 0, len(c.SelectedDates))
		for _, s := range c.SelectedDates {
			d, err := generic.ParseDate(s)
			if err != nil {
				return Request{}, invalid(CodeInvalidDate, "Invalid date format: %s", s)
			}
			days = append(days, d)
		}
		days = distinctDays(days)
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
		return Request{Kind: generic.KindCalendar, Dates: days}, nil
	}

	if strings.TrimSpace(c.StartDate) == "" || strings.TrimSpace(c.EndDate) == "" {
		return Request{}, invalid(CodeNoDates, "Either startDate and endDate, or selectedDates must be provided")
	}
	start, err := generic.ParseDate(c.StartDate)
	if err != nil {
		return Request{}, invalid(CodeInvalidDate, "Invalid start date: %s", c.StartDate)
	}
	end, err := generic.ParseDate(c.EndDate)
	if err != nil {
		return Request{}, invalid(CodeInvalidDate, "Invalid end date: %s", c.EndDate)
	}
	if end.Before(start) {
		return Request{}, invalid(CodeInvalidDateRange, "End date must be after start date")
	}
	return Request{Kind: generic.KindRange, Period: generic.Period{Start: start, End: end}}, nil
}

// DayCount is the inclusive number of days from start to end.
func DayCount(start, end string) (int, error) {
	req, err := Candidate{StartDate: start, EndDate: end}.Parse()
	if err != nil {
		return 0, err
	}
	return req.Days(), nil
}

// =============================================================================
// POLICY / VERDICT
// =============================================================================

// Policy holds the quota parameters.
type Policy struct {
	MonthlyLimit int
}

func DefaultPolicy() Policy { return Policy{MonthlyLimit: DefaultMonthlyLimit} }

// Verdict is the classification of a candidate against current usage.
type Verdict struct {
	CurrentUsage    int    `json:"currentUsage"`
	RequestedDays   int    `json:"requestedDays"`
	ProjectedUsage  int    `json:"projectedUsage"`
	MonthlyLimit    int    `json:"monthlyLimit"`
	RemainingLeaves int    `json:"remainingLeaves"`
	ExceedsLimit    bool   `json:"exceedsLimit"`
	LimitReached    bool   `json:"limitReached"`
	IsValid         bool   `json:"isValid"`
	Message         string `json:"message"`
}

// ExceedsBy is how many days over the limit the projection lands.
func (v Verdict) ExceedsBy() int {
	if !v.ExceedsLimit {
		return 0
	}
	return v.ProjectedUsage - v.MonthlyLimit
}

// RequestedDays validates c and returns its day count.
func (p Policy) RequestedDays(c Candidate) (int, error) {
	req, err := c.Parse()
	if err != nil {
		return 0, err
	}
	return req.Days(), nil
}

// Evaluate classifies c on top of currentUsage.
func (p Policy) Evaluate(currentUsage int, c Candidate) (Verdict, error) {
	req, err := c.Parse()
	if err != nil {
		return Verdict{}, err
	}
	return p.Classify(currentUsage, req.Days()), nil
}

// Classify builds the verdict for an already validated day count.
func (p Policy) Classify(currentUsage, requested int) Verdict {
	limit := p.MonthlyLimit
	v := Verdict{
		CurrentUsage:    currentUsage,
		RequestedDays:   requested,
		ProjectedUsage:  currentUsage + requested,
		MonthlyLimit:    limit,
		RemainingLeaves: max(0, limit-currentUsage),
	}
	v.ExceedsLimit = v.ProjectedUsage > limit
	v.LimitReached = currentUsage >= limit
	v.IsValid = !v.ExceedsLimit

	switch {
	case v.LimitReached:
		v.Message = fmt.Sprintf("You have already reached your monthly leave limit of %d days.", limit)
	case v.ExceedsLimit:
		v.Message = fmt.Sprintf("This request would exceed your monthly limit by %s.", days(v.ExceedsBy()))
	default:
		v.Message = fmt.Sprintf("This request is within your monthly limit. You will have %s remaining.",
			days(v.RemainingLeaves-requested))
	}
	return v
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
