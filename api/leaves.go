package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eleave/leave-engine/generic"
	"github.com/eleave/leave-engine/quota"
)

// =============================================================================
// LEAVE LISTINGS
// =============================================================================

// ListLeaves returns the caller's leaves, or every leave for an admin.
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	c := caller(r)
	filter := generic.LeaveFilter{}
	if !c.IsAdmin() {
		filter.UserID = c.UserID
	}

	records, err := h.leaves.ListLeaves(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err, "GET_LEAVES_ERROR", "Failed to fetch leave requests")
		return
	}
	writeOK(w, http.StatusOK, envelope{"leaves": toLeaveDTOs(records)})
}

// ListAdminLeaves returns all leaves filtered by stream and status, with
// counts per status.
func (h *Handler) ListAdminLeaves(w http.ResponseWriter, r *http.Request) {
	filter := generic.LeaveFilter{
		Stream: r.URL.Query().Get("stream"),
		Status: generic.LeaveStatus(r.URL.Query().Get("status")),
	}

	records, err := h.leaves.ListLeaves(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err, "GET_ADMIN_LEAVES_ERROR", "Failed to fetch leave requests")
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"leaves": toLeaveDTOs(records),
		"stats":  generic.CountLeaves(records),
	})
}

// LeaveStats counts leaves per status, optionally within one stream.
func (h *Handler) LeaveStats(w http.ResponseWriter, r *http.Request) {
	records, err := h.leaves.ListLeaves(r.Context(), generic.LeaveFilter{Stream: r.URL.Query().Get("stream")})
	if err != nil {
		h.fail(w, r, err, "GET_STATS_ERROR", "Failed to fetch leave statistics")
		return
	}
	writeOK(w, http.StatusOK, envelope{"stats": generic.CountLeaves(records)})
}

// =============================================================================
// SUBMISSION
// =============================================================================

// CreateLeave submits a range leave request.
func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	var req CreateLeaveRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, "CREATE_LEAVE_ERROR", "Failed to create leave request")
		return
	}

	c := caller(r)
	if !c.CanAccess(req.UserID) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You can only create leave requests for yourself")
		return
	}
	if !generic.ValidStream(req.Stream) {
		writeError(w, http.StatusBadRequest, "INVALID_STREAM", "Stream must be one of: "+strings.Join(generic.Streams, ", "))
		return
	}

	cand := quota.Candidate{StartDate: req.StartDate, EndDate: req.EndDate}
	parsed, err := cand.Parse()
	if err != nil {
		h.fail(w, r, err, "CREATE_LEAVE_ERROR", "Failed to create leave request")
		return
	}

	if !c.IsAdmin() {
		if req.RollNumber == "" {
			writeError(w, http.StatusBadRequest, "ROLLNUMBER_REQUIRED", "Roll number is required for student leave requests")
			return
		}
		if req.RollNumber != c.RollNumber {
			writeError(w, http.StatusForbidden, "ROLLNUMBER_MISMATCH", "Roll number does not match your profile")
			return
		}
	}

	record := generic.LeaveRecord{
		ID:          h.newID(),
		UserID:      req.UserID,
		UserName:    req.UserName,
		UserEmail:   req.UserEmail,
		RollNumber:  req.RollNumber,
		Stream:      req.Stream,
		LeaveType:   req.LeaveType,
		Reason:      strings.TrimSpace(req.Reason),
		Status:      generic.StatusPending,
		Kind:        generic.KindRange,
		StartDate:   parsed.Period.Start,
		EndDate:     parsed.Period.End,
		SubmittedAt: h.checker.Now(),
	}
	h.submit(w, r, record, cand, "Leave request submitted successfully")
}

// CreateCalendarLeave submits a request for individually picked dates.
func (h *Handler) CreateCalendarLeave(w http.ResponseWriter, r *http.Request) {
	var req CreateCalendarLeaveRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, "CREATE_CALENDAR_LEAVE_ERROR", "Failed to create calendar leave request")
		return
	}

	if !caller(r).CanAccess(req.UserID) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You can only create leave requests for yourself")
		return
	}
	if len(req.SelectedDates) == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_DATES", "selectedDates must be a non-empty array")
		return
	}

	cand := quota.Candidate{SelectedDates: req.SelectedDates}
	parsed, err := cand.Parse()
	if err != nil {
		h.fail(w, r, err, "CREATE_CALENDAR_LEAVE_ERROR", "Failed to create calendar leave request")
		return
	}

	record := generic.LeaveRecord{
		ID:            h.newID(),
		UserID:        req.UserID,
		UserName:      req.UserName,
		UserEmail:     req.UserEmail,
		RollNumber:    req.RollNumber,
		Stream:        req.Stream,
		Reason:        strings.TrimSpace(req.Reason),
		Status:        generic.StatusPending,
		Kind:          generic.KindCalendar,
		SelectedDates: parsed.Dates,
		SubmittedAt:   h.checker.Now(),
	}
	h.submit(w, r, record, cand, "Calendar leave request submitted successfully")
}

// submit runs the binding quota check, stores the record and reports the
// outcome next to it. The quota never blocks the submission.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, record generic.LeaveRecord, cand quota.Candidate, message string) {
	ctx := r.Context()
	if record.UserEmail == "" {
		record.UserEmail = defaultEmail(record.UserName)
	}

	outcome, err := h.checker.EvaluateSubmission(ctx, record.UserID, cand)
	if err != nil {
		h.fail(w, r, err, "CREATE_LEAVE_ERROR", "Failed to create leave request")
		return
	}

	if err := h.leaves.CreateLeave(ctx, record); err != nil {
		h.fail(w, r, err, "CREATE_LEAVE_ERROR", "Failed to create leave request")
		return
	}
	h.checker.Invalidate(ctx, record.UserID)

	resp := envelope{
		"message": message,
		"leaveId": record.ID,
		"leave":   toLeaveDTO(record),
	}
	switch o := outcome.(type) {
	case quota.Confident:
		if v := o.Verdict; v.ExceedsLimit {
			h.logger.Info("leave submitted over monthly limit",
				zap.String("user_id", record.UserID),
				zap.Int("current", v.CurrentUsage),
				zap.Int("requested", v.RequestedDays),
				zap.Int("projected", v.ProjectedUsage),
			)
			msg := fmt.Sprintf(
				"This request exceeds your monthly leave limit. Current usage: %d, Requested: %d, Total would be: %d/%d",
				v.CurrentUsage, v.RequestedDays, v.ProjectedUsage, v.MonthlyLimit)
			resp["warning"] = envelope{
				"code":    "LEAVE_LIMIT_EXCEEDED",
				"message": msg,
				"limitInfo": LimitInfoDTO{
					CurrentUsage:   v.CurrentUsage,
					RequestedDays:  v.RequestedDays,
					ProjectedUsage: v.ProjectedUsage,
					MonthlyLimit:   v.MonthlyLimit,
					ExceedsBy:      v.ExceedsBy(),
				},
			}
		}
	case quota.Degraded:
		resp["quotaCheck"] = QuotaCheckDTO{ValidationFailed: true, ErrorType: o.ErrorType, Message: o.Message}
	}
	writeOK(w, http.StatusCreated, resp)
}

// =============================================================================
// DECISIONS
// =============================================================================

// UpdateLeaveStatus approves or rejects a pending leave.
func (h *Handler) UpdateLeaveStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, "UPDATE_STATUS_ERROR", "Failed to update leave status")
		return
	}
	status := generic.LeaveStatus(req.Status)
	if !status.Decided() {
		writeError(w, http.StatusBadRequest, "INVALID_STATUS", `Status must be either "approved" or "rejected"`)
		return
	}

	ctx := r.Context()
	leave, err := h.leaves.DecideLeave(ctx, chi.URLParam(r, "id"), status, caller(r).UserID, h.checker.Now())
	if err != nil {
		h.fail(w, r, err, "UPDATE_STATUS_ERROR", "Failed to update leave status")
		return
	}
	h.checker.Invalidate(ctx, leave.UserID)

	writeOK(w, http.StatusOK, envelope{
		"message": fmt.Sprintf("Leave request %s successfully", status),
		"leave":   toLeaveDTO(leave),
	})
}

// DeleteLeave lets a student withdraw their own pending leave and an admin
// remove any leave.
func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	leave, err := h.leaves.GetLeave(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "DELETE_LEAVE_ERROR", "Failed to delete leave request")
		return
	}

	c := caller(r)
	if !c.IsAdmin() {
		if leave.UserID != c.UserID {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You can only delete your own leave requests")
			return
		}
		if leave.Status != generic.StatusPending {
			writeError(w, http.StatusForbidden, "CANNOT_DELETE", "You can only delete pending leave requests")
			return
		}
	}

	if err := h.leaves.DeleteLeave(ctx, leave.ID); err != nil {
		h.fail(w, r, err, "DELETE_LEAVE_ERROR", "Failed to delete leave request")
		return
	}
	h.checker.Invalidate(ctx, leave.UserID)

	writeOK(w, http.StatusOK, envelope{
		"message": "Leave request deleted successfully",
		"deletedLeave": envelope{
			"id":       leave.ID,
			"userName": leave.UserName,
			"status":   leave.Status,
		},
	})
}

// =============================================================================
// QUOTA QUERIES
// =============================================================================

// ValidateLeave evaluates a candidate against the monthly limit without
// submitting it.
func (h *Handler) ValidateLeave(w http.ResponseWriter, r *http.Request) {
	var req ValidateLeaveRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, "VALIDATE_LEAVE_ERROR", "Failed to validate leave request")
		return
	}

	c := caller(r)
	if !c.CanAccess(req.UserID) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You can only validate your own leave requests")
		return
	}

	outcome, err := h.checker.Evaluate(r.Context(), req.UserID, req.Candidate)
	if err != nil {
		h.fail(w, r, err, "VALIDATE_LEAVE_ERROR", "Failed to validate leave request")
		return
	}
	writeOK(w, http.StatusOK, envelope{"data": toOutcomeDTO(outcome, c.IsAdmin())})
}

// MonthlyLimit reports a user's usage in ?month=YYYY-MM, default the
// current month.
func (h *Handler) MonthlyLimit(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !caller(r).CanAccess(userID) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You can only access your own leave limit data")
		return
	}

	var month generic.MonthKey
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := generic.ParseMonthKey(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_MONTH", "month must be in YYYY-MM format")
			return
		}
		month = m
	}

	usage, err := h.checker.MonthlyUsage(r.Context(), userID, month)
	if err != nil {
		h.fail(w, r, err, "GET_MONTHLY_LIMIT_ERROR", "Failed to retrieve monthly leave limit")
		return
	}
	writeOK(w, http.StatusOK, envelope{"data": toUsageDTO(usage)})
}

// CalendarBalance reports the calendar view of ?month=1-12&year=YYYY,
// default the current month.
func (h *Handler) CalendarBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !caller(r).CanAccess(userID) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You can only access your own balance data")
		return
	}

	month, err := monthFromQuery(r)
	if err != nil {
		h.fail(w, r, err, "CALENDAR_BALANCE_ERROR", "Failed to fetch calendar balance")
		return
	}

	balance, err := h.checker.CalendarBalance(r.Context(), userID, month)
	if err != nil {
		h.fail(w, r, err, "CALENDAR_BALANCE_ERROR", "Failed to fetch calendar balance")
		return
	}
	writeOK(w, http.StatusOK, envelope{"balance": toBalanceDTO(userID, balance, h.checker.Now())})
}

// monthFromQuery reads ?month=&year=. Both must be present to select a
// month; otherwise the zero MonthKey (current month) is returned.
func monthFromQuery(r *http.Request) (generic.MonthKey, error) {
	q := r.URL.Query()
	rawMonth, rawYear := q.Get("month"), q.Get("year")
	if rawMonth == "" || rawYear == "" {
		return generic.MonthKey{}, nil
	}
	m, errM := strconv.Atoi(rawMonth)
	y, errY := strconv.Atoi(rawYear)
	if errM != nil || errY != nil || m < 1 || m > 12 || y < 1 {
		return generic.MonthKey{}, badRequest("INVALID_MONTH", "month must be 1-12 and year a positive number")
	}
	return generic.MonthKey{Year: y, Month: time.Month(m)}, nil
}

