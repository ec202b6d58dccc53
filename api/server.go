/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request for tracing
  2. RealIP:         Client address from proxy headers
  3. RequestLogger:  Request logging through zap
  4. Recoverer:      Panic recovery (500 instead of crash)
  5. CORS:           Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/auth/*       Public, rate limited per client IP
  /api/users/*      Authenticated; list and delete are admin only
  /api/leaves/*     Authenticated; decisions and admin listing are admin only
  /api/calendar/*   Authenticated; holiday changes are admin only
  /api/feedback/*   Authenticated; review endpoints are admin only
  /api/health       Public
  /api/ping         Public

SEE ALSO:
  - handler.go: Handler and endpoint list
  - middleware.go: Request logging and rate limiting
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/eleave/leave-engine/auth"
	"github.com/eleave/leave-engine/generic"
)

// RouterOptions tune the router. Zero values select defaults.
type RouterOptions struct {
	AllowedOrigins []string

	// AuthRate and AuthBurst limit login and registration per client IP.
	AuthRate  rate.Limit
	AuthBurst int

	// UserRate and UserBurst limit authenticated requests per user.
	UserRate  rate.Limit
	UserBurst int
}

func (o RouterOptions) withDefaults() RouterOptions {
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	if o.AuthRate == 0 {
		o.AuthRate, o.AuthBurst = rate.Limit(1), 10
	}
	if o.UserRate == 0 {
		o.UserRate, o.UserBurst = rate.Limit(10), 30
	}
	return o
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	opts = opts.withDefaults()
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	adminOnly := auth.RequireRole(generic.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/ping", h.Ping)

		// Auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Use(RateLimitByIP(opts.AuthRate, opts.AuthBurst))
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(h.issuer))
			r.Use(RateLimitByUser(opts.UserRate, opts.UserBurst))

			// User routes
			r.Route("/users", func(r chi.Router) {
				r.With(adminOnly).Get("/", h.ListUsers)
				r.Get("/{id}", h.GetUser)
				r.With(adminOnly).Delete("/{id}", h.DeleteUser)
			})

			// Leave routes
			r.Route("/leaves", func(r chi.Router) {
				r.Get("/", h.ListLeaves)
				r.Post("/", h.CreateLeave)
				r.With(adminOnly).Get("/admin", h.ListAdminLeaves)
				r.Get("/stats", h.LeaveStats)
				r.Post("/calendar", h.CreateCalendarLeave)
				r.Post("/validate", h.ValidateLeave)
				r.Get("/monthly-limit/{userId}", h.MonthlyLimit)
				r.Get("/calendar/{userId}/balance", h.CalendarBalance)
				r.With(adminOnly).Patch("/{id}/status", h.UpdateLeaveStatus)
				r.Delete("/{id}", h.DeleteLeave)
			})

			// Calendar routes
			r.Route("/calendar", func(r chi.Router) {
				r.Get("/holidays", h.ListHolidays)
				r.Get("/holidays/types", h.HolidayTypes)
				r.With(adminOnly).Post("/holidays", h.CreateHoliday)
				r.With(adminOnly).Post("/holidays/defaults", h.AddDefaultHolidays)
				r.With(adminOnly).Delete("/holidays/{id}", h.DeleteHoliday)
				r.Post("/validate-dates", h.ValidateDates)
			})

			// Feedback routes
			r.Route("/feedback", func(r chi.Router) {
				r.Post("/", h.CreateFeedback)
				r.Get("/my-feedback", h.MyFeedback)
				r.With(adminOnly).Get("/all", h.ListFeedback)
				r.With(adminOnly).Get("/stats", h.FeedbackStats)
				r.With(adminOnly).Patch("/{id}/status", h.UpdateFeedbackStatus)
				r.With(adminOnly).Patch("/{id}/respond", h.RespondToFeedback)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Route "+r.Method+" "+r.URL.Path+" not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method "+r.Method+" not allowed on "+r.URL.Path)
	})

	return r
}
