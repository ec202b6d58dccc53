/*
Package auth issues and verifies access tokens and guards HTTP routes.

PURPOSE:
  Students and administrators sign in with email and password. A signed
  HS256 token carries the identity the handlers need for ownership checks
  (id, role, stream, roll number), so no user lookup is needed per request.

PIECES:
  password.go:   bcrypt hashing
  token.go:      Claims, Issuer (sign / verify)
  middleware.go: Authenticate and RequireRole for chi routes

SEE ALSO:
  - api/auth.go: register and login handlers
*/
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eleave/leave-engine/generic"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// DefaultTokenTTL is how long an access token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// Claims is the identity carried in an access token.
type Claims struct {
	UserID     string       `json:"id"`
	Email      string       `json:"email"`
	Name       string       `json:"name"`
	Role       generic.Role `json:"role"`
	Stream     string       `json:"stream,omitempty"`
	RollNumber string       `json:"rollNumber,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool { return c.Role == generic.RoleAdmin }

// CanAccess reports whether the caller may act on userID's data.
func (c *Claims) CanAccess(userID string) bool { return c.IsAdmin() || c.UserID == userID }

// Issuer signs and verifies tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the clock used for issue and expiry times.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue returns a signed token for u and its expiry.
func (i *Issuer) Issue(u generic.User) (string, time.Time, error) {
	issued := i.now()
	expires := issued.Add(i.ttl)
	claims := Claims{
		UserID:     u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		Stream:     u.Stream,
		RollNumber: u.RollNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses a token and returns its claims.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
