/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model in generic/ from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Users:     UserDTO, RegisterRequest, LoginRequest
  Leaves:    LeaveDTO, CreateLeaveRequest, CreateCalendarLeaveRequest,
             UpdateStatusRequest, ValidateLeaveRequest
  Quota:     LimitInfoDTO, BalanceDTO, SelectionDTO
  Holidays:  HolidayDTO, CreateHolidayRequest
  Feedback:  FeedbackDTO, CreateFeedbackRequest, FeedbackStatusRequest,
             FeedbackRespondRequest

VALIDATION:
  Request types carry go-playground/validator tags; handlers call
  h.decode, which reports the first failed rule with the field's JSON name.
  Rules that depend on the caller (students must name a stream) stay in
  the handlers.

SEE ALSO:
  - validate.go: Tag-to-error mapping
  - respond.go: Response envelope
*/
package api

import (
	"time"

	"github.com/eleave/leave-engine/generic"
	"github.com/eleave/leave-engine/quota"
)

// =============================================================================
// USERS
// =============================================================================

// UserDTO represents an account in API responses. The password hash never
// leaves the server.
type UserDTO struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Role       generic.Role `json:"role"`
	Stream     string       `json:"stream,omitempty"`
	RollNumber string       `json:"rollNumber,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
}

func toUserDTO(u generic.User) UserDTO {
	return UserDTO{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Stream:     u.Stream,
		RollNumber: u.RollNumber,
		CreatedAt:  u.CreatedAt,
	}
}

type RegisterRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	Role       string `json:"role" validate:"required,oneof=student admin"`
	Stream     string `json:"stream"`
	RollNumber string `json:"rollNumber"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// =============================================================================
// LEAVES
// =============================================================================

// LeaveDTO represents a leave request in API responses.
type LeaveDTO struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	UserName           string     `json:"userName"`
	UserEmail          string     `json:"userEmail,omitempty"`
	RollNumber         string     `json:"rollNumber,omitempty"`
	Stream             string     `json:"stream,omitempty"`
	LeaveType          string     `json:"leaveType,omitempty"`
	RequestType        string     `json:"requestType"`
	StartDate          string     `json:"startDate,omitempty"`
	EndDate            string     `json:"endDate,omitempty"`
	SelectedDates      []string   `json:"selectedDates,omitempty"`
	SelectedDatesCount int        `json:"selectedDatesCount,omitempty"`
	Days               int        `json:"days"`
	Reason             string     `json:"reason"`
	Status             string     `json:"status"`
	SubmittedAt        time.Time  `json:"submittedAt"`
	DecidedAt          *time.Time `json:"decidedAt,omitempty"`
	DecidedBy          string     `json:"decidedBy,omitempty"`
}

func toLeaveDTO(r generic.LeaveRecord) LeaveDTO {
	dto := LeaveDTO{
		ID:          r.ID,
		UserID:      r.UserID,
		UserName:    r.UserName,
		UserEmail:   r.UserEmail,
		RollNumber:  r.RollNumber,
		Stream:      r.Stream,
		LeaveType:   r.LeaveType,
		RequestType: string(r.Kind),
		Days:        quota.RecordDays(r),
		Reason:      r.Reason,
		Status:      string(r.Status),
		SubmittedAt: r.SubmittedAt,
		DecidedBy:   r.DecidedBy,
	}
	if !r.StartDate.IsZero() {
		dto.StartDate = r.StartDate.String()
	}
	if !r.EndDate.IsZero() {
		dto.EndDate = r.EndDate.String()
	}
	if len(r.SelectedDates) > 0 {
		dto.SelectedDates = dayStrings(r.SelectedDates)
		dto.SelectedDatesCount = len(r.SelectedDates)
	}
	if !r.DecidedAt.IsZero() {
		at := r.DecidedAt
		dto.DecidedAt = &at
	}
	return dto
}

func toLeaveDTOs(records []generic.LeaveRecord) []LeaveDTO {
	out := make([]LeaveDTO, len(records))
	for i, r := range records {
		out[i] = toLeaveDTO(r)
	}
	return out
}

func dayStrings(days []generic.TimePoint) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}

type CreateLeaveRequest struct {
	UserID     string `json:"userId" validate:"required"`
	UserName   string `json:"userName" validate:"required"`
	UserEmail  string `json:"userEmail" validate:"omitempty,email"`
	Stream     string `json:"stream" validate:"required"`
	LeaveType  string `json:"leaveType" validate:"required"`
	StartDate  string `json:"startDate" validate:"required"`
	EndDate    string `json:"endDate" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
	RollNumber string `json:"rollNumber"`
}

type CreateCalendarLeaveRequest struct {
	UserID        string   `json:"userId" validate:"required"`
	UserName      string   `json:"userName" validate:"required"`
	UserEmail     string   `json:"userEmail" validate:"omitempty,email"`
	RollNumber    string   `json:"rollNumber"`
	Stream        string   `json:"stream" validate:"required"`
	SelectedDates []string `json:"selectedDates" validate:"required"`
	Reason        string   `json:"reason" validate:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ValidateLeaveRequest asks for a quota check of a candidate request.
type ValidateLeaveRequest struct {
	UserID string `json:"userId" validate:"required"`
	quota.Candidate
}

// LimitInfoDTO details a quota overrun.
type LimitInfoDTO struct {
	CurrentUsage   int `json:"currentUsage"`
	RequestedDays  int `json:"requestedDays"`
	ProjectedUsage int `json:"projectedUsage"`
	MonthlyLimit   int `json:"monthlyLimit"`
	ExceedsBy      int `json:"exceedsBy"`
}

// QuotaCheckDTO is attached to a submission whose quota check degraded.
type QuotaCheckDTO struct {
	ValidationFailed bool   `json:"validationFailed"`
	ErrorType        string `json:"errorType"`
	Message          string `json:"message"`
}

// OutcomeDTO is the body of a validate response. Confident outcomes fill
// the verdict fields; degraded ones set ValidationFailed and keep IsValid
// true so the submission is not blocked.
type OutcomeDTO struct {
	quota.Verdict
	ValidationFailed bool   `json:"validationFailed"`
	ErrorType        string `json:"errorType,omitempty"`
	CanOverride      bool   `json:"canOverride"`
}

func toOutcomeDTO(o quota.Outcome, canOverride bool) OutcomeDTO {
	switch o := o.(type) {
	case quota.Confident:
		return OutcomeDTO{Verdict: o.Verdict, CanOverride: canOverride}
	case quota.Degraded:
		return OutcomeDTO{
			Verdict: quota.Verdict{
				RequestedDays: o.RequestedDays,
				MonthlyLimit:  o.MonthlyLimit,
				IsValid:       true,
				Message:       o.Message,
			},
			ValidationFailed: true,
			ErrorType:        o.ErrorType,
			CanOverride:      canOverride,
		}
	}
	return OutcomeDTO{CanOverride: canOverride}
}

// UsageDTO is the monthly-limit response. CurrentUsage repeats
// ApprovedThisMonth under the name the validate response uses.
type UsageDTO struct {
	UserID            string `json:"userId"`
	MonthlyLimit      int    `json:"monthlyLimit"`
	ApprovedThisMonth int    `json:"approvedThisMonth"`
	CurrentUsage      int    `json:"currentUsage"`
	RemainingLeaves   int    `json:"remainingLeaves"`
	Month             string `json:"month"`
	MonthLabel        string `json:"monthLabel"`
	CurrentMonth      string `json:"currentMonth"`
	CurrentYear       int    `json:"currentYear"`
}

func toUsageDTO(u quota.Usage) UsageDTO {
	return UsageDTO{
		UserID:            u.UserID,
		MonthlyLimit:      u.MonthlyLimit,
		ApprovedThisMonth: u.CurrentUsage,
		CurrentUsage:      u.CurrentUsage,
		RemainingLeaves:   u.RemainingLeaves,
		Month:             u.Month.String(),
		MonthLabel:        u.MonthLabel(),
		CurrentMonth:      u.Month.Month.String(),
		CurrentYear:       u.Month.Year,
	}
}

// BalanceDTO is the calendar balance response.
type BalanceDTO struct {
	UserID         string            `json:"userId"`
	Month          string            `json:"month"`
	MonthLabel     string            `json:"monthLabel"`
	Used           int               `json:"used"`
	Remaining      int               `json:"remaining"`
	Limit          int               `json:"limit"`
	ApprovedLeaves []BalanceEntryDTO `json:"approvedLeaves"`
	LastUpdated    time.Time         `json:"lastUpdated"`
}

type BalanceEntryDTO struct {
	ID            string    `json:"id"`
	RequestType   string    `json:"requestType"`
	SelectedDates []string  `json:"selectedDates"`
	ApprovedAt    time.Time `json:"approvedAt"`
}

func toBalanceDTO(userID string, b quota.Balance, now time.Time) BalanceDTO {
	dto := BalanceDTO{
		UserID:         userID,
		Month:          b.Month.String(),
		MonthLabel:     b.Month.Label(),
		Used:           b.Used,
		Remaining:      b.Remaining,
		Limit:          b.Limit,
		ApprovedLeaves: make([]BalanceEntryDTO, len(b.ApprovedLeaves)),
		LastUpdated:    now,
	}
	for i, e := range b.ApprovedLeaves {
		dto.ApprovedLeaves[i] = BalanceEntryDTO{
			ID:            e.ID,
			RequestType:   string(e.Kind),
			SelectedDates: dayStrings(e.SelectedDates),
			ApprovedAt:    e.ApprovedAt,
		}
	}
	return dto
}

// =============================================================================
// CALENDAR
// =============================================================================

type HolidayDTO struct {
	ID          string              `json:"id"`
	Date        string              `json:"date"`
	Name        string              `json:"name"`
	Type        generic.HolidayType `json:"type"`
	Description string              `json:"description,omitempty"`
	Recurring   bool                `json:"recurring"`
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:          h.ID,
		Date:        h.Date.String(),
		Name:        h.Name,
		Type:        h.Type,
		Description: h.Description,
		Recurring:   h.Recurring,
	}
}

// CreateHolidayRequest has no validator tags; missing fields are reported
// together as MISSING_FIELDS.
type CreateHolidayRequest struct {
	Date        string `json:"date"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Recurring   bool   `json:"recurring"`
}

// MonthImpactDTO is one month of a date selection report.
type MonthImpactDTO struct {
	MonthLabel string   `json:"monthLabel"`
	Count      int      `json:"count"`
	Dates      []string `json:"dates"`
}

// SelectionDTO is the validate-dates response.
type SelectionDTO struct {
	IsValid       bool                      `json:"isValid"`
	Errors        []string                  `json:"errors"`
	Warnings      []string                  `json:"warnings"`
	ValidDates    []string                  `json:"validDates"`
	InvalidDates  []string                  `json:"invalidDates"`
	MonthlyImpact map[string]MonthImpactDTO `json:"monthlyImpact"`
	TotalSelected int                       `json:"totalSelected"`
	ValidCount    int                       `json:"validCount"`
	InvalidCount  int                       `json:"invalidCount"`
}

func toSelectionDTO(rep quota.SelectionReport) SelectionDTO {
	dto := SelectionDTO{
		IsValid:       rep.IsValid,
		Errors:        rep.Errors,
		Warnings:      rep.Warnings,
		ValidDates:    rep.ValidDates,
		InvalidDates:  rep.InvalidDates,
		MonthlyImpact: make(map[string]MonthImpactDTO, len(rep.MonthlyImpact)),
		TotalSelected: rep.TotalSelected,
		ValidCount:    len(rep.ValidDates),
		InvalidCount:  len(rep.InvalidDates),
	}
	for _, mi := range rep.MonthlyImpact {
		dto.MonthlyImpact[mi.Month.String()] = MonthImpactDTO{
			MonthLabel: mi.Month.Label(),
			Count:      mi.Count,
			Dates:      mi.Dates,
		}
	}
	return dto
}

// =============================================================================
// FEEDBACK
// =============================================================================

type FeedbackDTO struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	UserName      string     `json:"userName"`
	UserRole      string     `json:"userRole"`
	Category      string     `json:"category"`
	Rating        int        `json:"rating"`
	Subject       string     `json:"subject"`
	Message       string     `json:"message"`
	Status        string     `json:"status"`
	AdminResponse string     `json:"adminResponse,omitempty"`
	RespondedBy   string     `json:"respondedBy,omitempty"`
	RespondedAt   *time.Time `json:"respondedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toFeedbackDTO(f generic.Feedback) FeedbackDTO {
	dto := FeedbackDTO{
		ID:            f.ID,
		UserID:        f.UserID,
		UserName:      f.UserName,
		UserRole:      string(f.UserRole),
		Category:      string(f.Category),
		Rating:        f.Rating,
		Subject:       f.Subject,
		Message:       f.Message,
		Status:        string(f.Status),
		AdminResponse: f.AdminResponse,
		RespondedBy:   f.RespondedBy,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
	if !f.RespondedAt.IsZero() {
		at := f.RespondedAt
		dto.RespondedAt = &at
	}
	return dto
}

type CreateFeedbackRequest struct {
	Category string `json:"category" validate:"required,oneof=bug suggestion complaint praise other"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Subject  string `json:"subject" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=2000"`
}

type FeedbackStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new reviewed resolved"`
}

type FeedbackRespondRequest struct {
	Response string `json:"response" validate:"required,max=1000"`
}
