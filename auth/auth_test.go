package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleave/leave-engine/auth"
	"github.com/eleave/leave-engine/generic"
)

var issuedAt = time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)

func student() generic.User {
	return generic.User{
		ID:         "stu-1",
		Name:       "Asha",
		Email:      "asha@example.com",
		Role:       generic.RoleStudent,
		Stream:     "BCA",
		RollNumber: "BCA-042",
	}
}

func TestIssuer_RoundTrip(t *testing.T) {
	iss := auth.NewIssuer("secret", time.Hour).WithClock(func() time.Time { return issuedAt })

	token, exp, err := iss.Issue(student())
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Hour), exp)

	claims, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", claims.UserID)
	assert.Equal(t, generic.RoleStudent, claims.Role)
	assert.Equal(t, "BCA-042", claims.RollNumber)
	assert.True(t, claims.CanAccess("stu-1"))
	assert.False(t, claims.CanAccess("stu-2"))
}

func TestIssuer_Rejects(t *testing.T) {
	iss := auth.NewIssuer("secret", time.Hour).WithClock(func() time.Time { return issuedAt })
	token, _, err := iss.Issue(student())
	require.NoError(t, err)

	_, err = auth.NewIssuer("other", time.Hour).WithClock(func() time.Time { return issuedAt }).Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	late := auth.NewIssuer("secret", time.Hour).WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) })
	_, err = late.Verify(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)

	_, err = iss.Verify("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(hash, "hunter22"))
	assert.False(t, auth.CheckPassword(hash, "hunter23"))
}

func TestMiddleware(t *testing.T) {
	iss := auth.NewIssuer("secret", time.Hour)
	studentToken, _, err := iss.Issue(student())
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, found := auth.FromContext(r.Context())
		require.True(t, found)
		w.Write([]byte(c.UserID))
	})
	adminOnly := auth.Authenticate(iss)(auth.RequireRole(generic.RoleAdmin)(ok))
	anyUser := auth.Authenticate(iss)(ok)

	cases := []struct {
		name    string
		handler http.Handler
		header  string
		status  int
	}{
		{"missing token", anyUser, "", http.StatusUnauthorized},
		{"garbage token", anyUser, "Bearer garbage", http.StatusForbidden},
		{"valid token", anyUser, "Bearer " + studentToken, http.StatusOK},
		{"student on admin route", adminOnly, "Bearer " + studentToken, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			tc.handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
