package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eleave/leave-engine/generic"
	"github.com/eleave/leave-engine/quota"
)

func TestFail_MapsErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"api error", badRequest("MISSING_FIELDS", "x"), http.StatusBadRequest, "MISSING_FIELDS"},
		{"validation", &quota.ValidationError{Code: quota.CodeNoDates, Message: "x"}, http.StatusBadRequest, quota.CodeNoDates},
		{"not found", fmt.Errorf("get: %w", generic.ErrLeaveNotFound), http.StatusNotFound, "LEAVE_NOT_FOUND"},
		{"transition", &generic.TransitionError{LeaveID: "l1", From: generic.StatusApproved, To: generic.StatusRejected}, http.StatusConflict, "INVALID_STATUS_TRANSITION"},
		{"store down", fmt.Errorf("list leaves: %w: disk I/O error", generic.ErrStoreUnavailable), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "FETCH_ERROR"},
	}
	h := &Handler{logger: zap.NewNop()}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/leaves", nil)

			h.fail(w, r, tt.err, "FETCH_ERROR", "Failed to fetch")

			assert.Equal(t, tt.status, w.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestFail_StoreDownSetsRetryAfter(t *testing.T) {
	h := &Handler{logger: zap.NewNop()}
	w := httptest.NewRecorder()

	h.fail(w, httptest.NewRequest(http.MethodGet, "/api/users", nil), generic.ErrStoreUnavailable, "FETCH_ERROR", "x")

	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}
