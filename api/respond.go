package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/eleave/leave-engine/generic"
	"github.com/eleave/leave-engine/quota"
)

// =============================================================================
// RESPONSE ENVELOPE
// =============================================================================
//
// Successful responses carry "success": true next to their payload fields.
// Failures are {"success": false, "error": {"code": ..., "message": ...}}.

// ErrorBody is the error part of a failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is a failed response.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// envelope is a successful response's payload.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeOK(w http.ResponseWriter, status int, payload envelope) {
	payload["success"] = true
	writeJSON(w, status, payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// apiError is a failure already classified for the client.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string { return e.Code + ": " + e.Message }

func badRequest(code, message string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: code, Message: message}
}

func forbidden(code, message string) *apiError {
	return &apiError{Status: http.StatusForbidden, Code: code, Message: message}
}

// fail writes err. Known domain errors map onto their HTTP status;
// anything else is logged and reported as a 500 with fallbackCode.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	var ae *apiError
	if errors.As(err, &ae) {
		writeError(w, ae.Status, ae.Code, ae.Message)
		return
	}
	if ve, ok := quota.AsValidation(err); ok {
		writeError(w, http.StatusBadRequest, ve.Code, ve.Message)
		return
	}

	switch {
	case errors.Is(err, generic.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, generic.ErrLeaveNotFound):
		writeError(w, http.StatusNotFound, "LEAVE_NOT_FOUND", "Leave request not found")
	case errors.Is(err, generic.ErrHolidayNotFound):
		writeError(w, http.StatusNotFound, "HOLIDAY_NOT_FOUND", "Holiday not found")
	case errors.Is(err, generic.ErrFeedbackNotFound):
		writeError(w, http.StatusNotFound, "FEEDBACK_NOT_FOUND", "Feedback not found")
	case errors.Is(err, generic.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "DUPLICATE_EMAIL", "Email address already registered")
	case errors.Is(err, generic.ErrDuplicateRollNumber):
		writeError(w, http.StatusConflict, "DUPLICATE_ROLLNUMBER", "Roll number already exists")
	case errors.Is(err, generic.ErrHolidayExists):
		writeError(w, http.StatusConflict, "HOLIDAY_EXISTS", "Holiday already exists for this date")
	case errors.Is(err, generic.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "INVALID_STATUS_TRANSITION", err.Error())
	case errors.Is(err, quota.ErrDataUnavailable):
		h.logger.Warn("leave records unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, quota.ErrorTypeDataUnavailable, "Leave records are temporarily unavailable")
	case generic.IsRetryable(err):
		h.logger.Warn("store unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable, try again")
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", fallbackCode),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, fallbackCode, fallbackMessage)
	}
}
