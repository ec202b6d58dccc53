package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/eleave/leave-engine/auth"
)

// RequestLogger logs one line per request through logger.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// =============================================================================
// RATE LIMITING
// =============================================================================

// KeyedRateLimiter holds one token bucket per key (client IP or user ID).
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit // requests per second
	b        int        // burst
}

func NewKeyedRateLimiter(r rate.Limit, b int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        r,
		b:        b,
	}
}

// GetLimiter returns the bucket of key, creating it on first use.
func (l *KeyedRateLimiter) GetLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.r, l.b)
		l.limiters[key] = limiter
	}
	return limiter
}

// RateLimitByIP limits requests per client address. It expects
// middleware.RealIP to have run.
func RateLimitByIP(r rate.Limit, b int) func(http.Handler) http.Handler {
	limiter := NewKeyedRateLimiter(r, b)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.GetLimiter(clientIP(req)).Allow() {
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests from this IP")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// RateLimitByUser limits requests per authenticated user. Anonymous
// requests pass through.
func RateLimitByUser(r rate.Limit, b int) func(http.Handler) http.Handler {
	limiter := NewKeyedRateLimiter(r, b)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			c, ok := auth.FromContext(req.Context())
			if ok && !limiter.GetLimiter(c.UserID).Allow() {
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests from this user")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
