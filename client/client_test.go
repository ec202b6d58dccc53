package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eleave/leave-engine/api"
	"github.com/eleave/leave-engine/auth"
	"github.com/eleave/leave-engine/client"
	"github.com/eleave/leave-engine/generic"
	"github.com/eleave/leave-engine/generic/store"
	"github.com/eleave/leave-engine/quota"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func fastBackoff() quota.Backoff {
	return quota.Backoff{Attempts: 2, Initial: time.Millisecond, Max: 2 * time.Millisecond}
}

func newClient(url string) *client.Client {
	return client.New(url,
		client.WithBackoff(fastBackoff()),
		client.WithToken("test-token"),
		client.WithLogger(zap.NewNop()),
	)
}

// stubServer answers /api/leaves/validate with the given statuses in turn,
// then with a confident verdict.
func stubServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		w.Header().Set("Content-Type", "application/json")
		if n <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   map[string]string{"code": "SOME_ERROR", "message": "failed"},
			})
			return
		}
		switch r.URL.Path {
		case "/api/leaves/validate":
			v := quota.DefaultPolicy().Classify(1, 1)
			json.NewEncoder(w).Encode(map[string]any{"success": true, "data": v})
		case "/api/leaves":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"success": true, "leaveId": "l-1", "message": "ok"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

var oneDay = quota.Candidate{StartDate: "2025-01-20", EndDate: "2025-01-20"}

// =============================================================================
// RETRIES AND DEGRADATION
// =============================================================================

func TestValidateLeave_RetriesServerErrors(t *testing.T) {
	// GIVEN: a server failing twice with 503
	srv, calls := stubServer(t, http.StatusServiceUnavailable, http.StatusBadGateway)
	c := newClient(srv.URL)

	// WHEN: validating
	outcome, err := c.ValidateLeave(context.Background(), "u1", oneDay)

	// THEN: the third attempt succeeds
	require.NoError(t, err)
	conf, ok := outcome.(quota.Confident)
	require.True(t, ok, "expected Confident, got %T", outcome)
	assert.Equal(t, 2, conf.Verdict.ProjectedUsage)
	assert.Equal(t, int32(3), calls.Load())
}

func TestValidateLeave_DegradesAfterRetries(t *testing.T) {
	srv, calls := stubServer(t, 500, 500, 500)
	c := newClient(srv.URL)

	outcome, err := c.ValidateLeave(context.Background(), "u1", quota.Candidate{StartDate: "2025-01-20", EndDate: "2025-01-22"})

	require.NoError(t, err)
	d, ok := outcome.(quota.Degraded)
	require.True(t, ok, "expected Degraded, got %T", outcome)
	assert.Equal(t, quota.ErrorTypeServer, d.ErrorType)
	assert.Equal(t, 3, d.RequestedDays)
	assert.Equal(t, quota.DefaultMonthlyLimit, d.MonthlyLimit)
	assert.True(t, d.AllowsSubmission())
	assert.Equal(t, int32(3), calls.Load())
}

func TestValidateLeave_NoRetryOnClientErrors(t *testing.T) {
	tests := []struct {
		status    int
		errorType string
	}{
		{http.StatusUnauthorized, quota.ErrorTypeUnauthorized},
		{http.StatusForbidden, quota.ErrorTypeForbidden},
		{http.StatusNotFound, quota.ErrorTypeNotFound},
		{http.StatusConflict, quota.ErrorTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv, calls := stubServer(t, tt.status)
			c := newClient(srv.URL)

			outcome, err := c.ValidateLeave(context.Background(), "u1", oneDay)

			require.NoError(t, err)
			d, ok := outcome.(quota.Degraded)
			require.True(t, ok)
			assert.Equal(t, tt.errorType, d.ErrorType)
			assert.Equal(t, quota.FallbackMessage(tt.errorType), d.Message)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestValidateLeave_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	outcome, err := newClient(url).ValidateLeave(context.Background(), "u1", oneDay)

	require.NoError(t, err)
	d, ok := outcome.(quota.Degraded)
	require.True(t, ok)
	assert.Equal(t, quota.ErrorTypeNetwork, d.ErrorType)
	assert.Equal(t, 1, d.RequestedDays)
}

func TestValidateLeave_RejectsMalformedLocally(t *testing.T) {
	srv, calls := stubServer(t)
	c := newClient(srv.URL)

	_, err := c.ValidateLeave(context.Background(), "u1", quota.Candidate{StartDate: "2025-01-22", EndDate: "2025-01-20"})

	ve, ok := quota.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, quota.CodeInvalidDateRange, ve.Code)
	assert.Equal(t, int32(0), calls.Load())
}

// =============================================================================
// CACHE
// =============================================================================

func TestValidateLeave_CachesUntilSubmission(t *testing.T) {
	srv, calls := stubServer(t)
	c := newClient(srv.URL)
	ctx := context.Background()

	_, err := c.ValidateLeave(ctx, "u1", oneDay)
	require.NoError(t, err)
	_, err = c.ValidateLeave(ctx, "u1", oneDay)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second check should hit the cache")

	sub, err := c.SubmitLeave(ctx, client.LeaveSubmission{UserID: "u1", StartDate: "2025-01-21", EndDate: "2025-01-21"})
	require.NoError(t, err)
	assert.Equal(t, "l-1", sub.LeaveID)

	_, err = c.ValidateLeave(ctx, "u1", oneDay)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "submission should drop cached verdicts")
}

func TestValidateLeave_CacheDoesNotCrossMonths(t *testing.T) {
	srv, calls := stubServer(t)
	clock := time.Date(2025, time.January, 31, 23, 59, 0, 0, time.UTC)
	c := client.New(srv.URL,
		client.WithBackoff(fastBackoff()),
		client.WithToken("test-token"),
		client.WithLogger(zap.NewNop()),
		client.WithClock(func() time.Time { return clock }),
	)
	ctx := context.Background()

	// GIVEN: a verdict cached a minute before the month ends
	_, err := c.ValidateLeave(ctx, "u1", oneDay)
	require.NoError(t, err)
	_, err = c.ValidateLeave(ctx, "u1", oneDay)
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())

	// WHEN: the month turns over
	clock = clock.Add(2 * time.Minute)
	_, err = c.ValidateLeave(ctx, "u1", oneDay)
	require.NoError(t, err)

	// THEN: the server is asked again
	assert.Equal(t, int32(2), calls.Load())
}

func TestValidateLeave_DegradedIsNotCached(t *testing.T) {
	srv, calls := stubServer(t, 500, 500, 500)
	c := newClient(srv.URL)
	ctx := context.Background()

	_, err := c.ValidateLeave(ctx, "u1", oneDay)
	require.NoError(t, err)
	outcome, err := c.ValidateLeave(ctx, "u1", oneDay)
	require.NoError(t, err)

	assert.IsType(t, quota.Confident{}, outcome)
	assert.Equal(t, int32(4), calls.Load())
}

// =============================================================================
// AGREEMENT WITH THE SERVER
// =============================================================================

func TestEstimateAgreesWithServer(t *testing.T) {
	now := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	// GIVEN: the real API over an in-memory store with 2 approved days
	mem := store.NewMemory()
	ctx := context.Background()
	hash, err := auth.HashPassword("pw")
	require.NoError(t, err)
	require.NoError(t, mem.CreateUser(ctx, generic.User{
		ID: "stu-1", Name: "Asha", Email: "asha@college.edu", PasswordHash: hash,
		Role: generic.RoleStudent, Stream: "BCA", RollNumber: "BCA-001",
	}))
	require.NoError(t, mem.CreateLeave(ctx, generic.LeaveRecord{
		ID: "l1", UserID: "stu-1", Status: generic.StatusApproved, Kind: generic.KindRange,
		StartDate: generic.NewTimePoint(2025, time.January, 6), EndDate: generic.NewTimePoint(2025, time.January, 7),
		DecidedAt: now.Add(-time.Hour),
	}))

	checker := quota.NewChecker(mem, quota.DefaultPolicy(), quota.WithClock(clock), quota.WithLogger(zap.NewNop()))
	h := api.NewHandler(api.Deps{
		Users: mem, Leaves: mem, Holidays: mem, Feedback: mem,
		Checker: checker,
		Issuer:  auth.NewIssuer("secret", time.Hour).WithClock(clock),
		Logger:  zap.NewNop(),
	})
	srv := httptest.NewServer(api.NewRouter(h, api.RouterOptions{}))
	t.Cleanup(srv.Close)

	c := client.New(srv.URL, client.WithBackoff(fastBackoff()), client.WithLogger(zap.NewNop()))
	_, err = c.Login(ctx, "asha@college.edu", "pw")
	require.NoError(t, err)

	candidates := []quota.Candidate{
		oneDay,
		{StartDate: "2025-01-20", EndDate: "2025-01-22"},
		{SelectedDates: []string{"2025-01-20", "2025-01-24", "2025-01-20"}},
		{SelectedDates: []string{"2025-02-03"}},
	}
	for _, cand := range candidates {
		// WHEN: estimating locally and validating remotely
		estimate, err := c.Estimate(ctx, "stu-1", cand)
		require.NoError(t, err)
		outcome, err := c.ValidateLeave(ctx, "stu-1", cand)
		require.NoError(t, err)

		// THEN: both produce the same verdict
		conf, ok := outcome.(quota.Confident)
		require.True(t, ok)
		assert.Equal(t, conf.Verdict, estimate, "candidate %+v", cand)
	}
}
