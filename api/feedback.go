package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/eleave/leave-engine/generic"
)

// CreateFeedback records the caller's feedback with status "new".
func (h *Handler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req CreateFeedbackRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, "CREATE_FEEDBACK_ERROR", "Failed to submit feedback")
		return
	}

	c := caller(r)
	now := h.checker.Now()
	fb := generic.Feedback{
		ID:        h.newID(),
		UserID:    c.UserID,
		UserName:  c.Name,
		UserRole:  c.Role,
		Category:  generic.FeedbackCategory(req.Category),
		Rating:    req.Rating,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    generic.FeedbackNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.feedback.CreateFeedback(r.Context(), fb); err != nil {
		h.fail(w, r, err, "CREATE_FEEDBACK_ERROR", "Failed to submit feedback")
		return
	}
	writeOK(w, http.StatusCreated, envelope{
		"message":  "Feedback submitted successfully",
		"feedback": toFeedbackDTO(fb),
	})
}

// ListFeedback lists all feedback filtered by status and category (admin).
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.listFeedback(w, r, generic.FeedbackFilter{
		Status:   generic.FeedbackStatus(q.Get("status")),
		Category: generic.FeedbackCategory(q.Get("category")),
	})
}

// MyFeedback lists the caller's own feedback.
func (h *Handler) MyFeedback(w http.ResponseWriter, r *http.Request) {
	h.listFeedback(w, r, generic.FeedbackFilter{UserID: caller(r).UserID})
}

func (h *Handler) listFeedback(w http.ResponseWriter, r *http.Request, f generic.FeedbackFilter) {
	items, err := h.feedback.ListFeedback(r.Context(), f)
	if err != nil {
		h.fail(w, r, err, "FETCH_FEEDBACK_ERROR", "Failed to fetch feedback")
		return
	}
	dtos := make([]FeedbackDTO, len(items))
	for i, fb := range items {
		dtos[i] = toFeedbackDTO(fb)
	}
	writeOK(w, http.StatusOK, envelope{"feedback": dtos, "count": len(dtos)})
}

// UpdateFeedbackStatus sets the status of a feedback entry (admin).
func (h *Handler) UpdateFeedbackStatus(w http.ResponseWriter, r *http.Request) {
	var req FeedbackStatusRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, "UPDATE_FEEDBACK_ERROR", "Failed to update feedback")
		return
	}

	ctx := r.Context()
	fb, err := h.feedback.GetFeedback(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "UPDATE_FEEDBACK_ERROR", "Failed to update feedback")
		return
	}
	fb.Status = generic.FeedbackStatus(req.Status)
	fb.UpdatedAt = h.checker.Now()
	if err := h.feedback.UpdateFeedback(ctx, fb); err != nil {
		h.fail(w, r, err, "UPDATE_FEEDBACK_ERROR", "Failed to update feedback")
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"message":  "Feedback status updated",
		"feedback": toFeedbackDTO(fb),
	})
}

// RespondToFeedback stores an admin response and marks the entry reviewed.
func (h *Handler) RespondToFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRespondRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, "RESPOND_FEEDBACK_ERROR", "Failed to respond to feedback")
		return
	}

	ctx := r.Context()
	fb, err := h.feedback.GetFeedback(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "RESPOND_FEEDBACK_ERROR", "Failed to respond to feedback")
		return
	}
	now := h.checker.Now()
	fb.AdminResponse = req.Response
	fb.RespondedBy = caller(r).UserID
	fb.RespondedAt = now
	fb.Status = generic.FeedbackReviewed
	fb.UpdatedAt = now
	if err := h.feedback.UpdateFeedback(ctx, fb); err != nil {
		h.fail(w, r, err, "RESPOND_FEEDBACK_ERROR", "Failed to respond to feedback")
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"message":  "Response added successfully",
		"feedback": toFeedbackDTO(fb),
	})
}

// FeedbackStats summarizes all feedback (admin).
func (h *Handler) FeedbackStats(w http.ResponseWriter, r *http.Request) {
	items, err := h.feedback.ListFeedback(r.Context(), generic.FeedbackFilter{})
	if err != nil {
		h.fail(w, r, err, "FEEDBACK_STATS_ERROR", "Failed to fetch feedback statistics")
		return
	}
	writeOK(w, http.StatusOK, envelope{"stats": summarizeFeedback(items)})
}

// FeedbackStatsDTO is the feedback summary.
type FeedbackStatsDTO struct {
	Total         int                              `json:"total"`
	ByStatus      map[generic.FeedbackStatus]int   `json:"byStatus"`
	ByCategory    map[generic.FeedbackCategory]int `json:"byCategory"`
	AverageRating float64                          `json:"averageRating"`
}

func summarizeFeedback(items []generic.Feedback) FeedbackStatsDTO {
	s := FeedbackStatsDTO{
		Total:      len(items),
		ByStatus:   map[generic.FeedbackStatus]int{},
		ByCategory: map[generic.FeedbackCategory]int{},
	}
	for _, st := range []generic.FeedbackStatus{generic.FeedbackNew, generic.FeedbackReviewed, generic.FeedbackResolved} {
		s.ByStatus[st] = 0
	}
	sum := decimal.Zero
	for _, fb := range items {
		s.ByStatus[fb.Status]++
		s.ByCategory[fb.Category]++
		sum = sum.Add(decimal.NewFromInt(int64(fb.Rating)))
	}
	if len(items) > 0 {
		s.AverageRating = sum.DivRound(decimal.NewFromInt(int64(len(items))), 2).InexactFloat64()
	}
	return s
}
