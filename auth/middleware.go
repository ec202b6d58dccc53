package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/eleave/leave-engine/generic"
)

type ctxKey struct{}

// WithClaims stores claims on ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the authenticated caller, if any.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok && c != nil
}

// Authenticate requires a valid "Authorization: Bearer <token>" header.
func Authenticate(issuer *Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				deny(w, http.StatusUnauthorized, "NO_TOKEN", "Access token required")
				return
			}

			claims, err := issuer.Verify(strings.TrimSpace(token))
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					deny(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Access token has expired")
					return
				}
				deny(w, http.StatusForbidden, "INVALID_TOKEN", "Invalid access token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole admits only callers with one of roles. It must run after
// Authenticate.
func RequireRole(roles ...generic.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := FromContext(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "NO_TOKEN", "Access token required")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			deny(w, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "You do not have permission to perform this action")
		})
	}
}

func deny(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]string{"code": code, "message": message},
	})
}
