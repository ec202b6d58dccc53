package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eleave/leave-engine/generic"
	"github.com/eleave/leave-engine/quota"
)

// =============================================================================
// DEFAULT HOLIDAYS
// =============================================================================

// DefaultHolidays returns the standard academic holidays of year. Recurring
// ones are repeated for year+1 so that selections near December see them.
func DefaultHolidays(year int) []generic.Holiday {
	type seed struct {
		slug      string
		month     time.Month
		day       int
		name      string
		typ       generic.HolidayType
		desc      string
		recurring bool
	}
	seeds := []seed{
		{"republic-day", time.January, 26, "Republic Day", generic.HolidayNational, "National holiday celebrating the Constitution of India", true},
		{"independence-day", time.August, 15, "Independence Day", generic.HolidayNational, "National holiday celebrating independence", true},
		{"gandhi-jayanti", time.October, 2, "Gandhi Jayanti", generic.HolidayNational, "Birthday of Mahatma Gandhi", true},
		{"holi", time.March, 14, "Holi", generic.HolidayFestival, "Festival of colors", false},
		{"diwali", time.November, 12, "Diwali", generic.HolidayFestival, "Festival of lights", false},
		{"christmas", time.December, 25, "Christmas", generic.HolidayCollege, "Christmas Day", true},
		{"new-year", time.January, 1, "New Year's Day", generic.HolidayCollege, "New Year celebration", true},
	}

	var out []generic.Holiday
	add := func(s seed, y int) {
		out = append(out, generic.Holiday{
			ID:          fmt.Sprintf("%s-%d", s.slug, y),
			Date:        generic.NewTimePoint(y, s.month, s.day),
			Name:        s.name,
			Type:        s.typ,
			Description: s.desc,
			Recurring:   s.recurring,
			CreatedBy:   "system",
		})
	}
	for _, s := range seeds {
		add(s, year)
	}
	for _, s := range seeds {
		if s.recurring {
			add(s, year+1)
		}
	}
	return out
}

// SeedHolidays saves DefaultHolidays(year), skipping dates that already
// carry a holiday. It returns how many were added.
func SeedHolidays(ctx context.Context, store generic.HolidayStore, year int) (int, error) {
	added := 0
	for _, h := range DefaultHolidays(year) {
		err := store.SaveHoliday(ctx, h)
		if errors.Is(err, generic.ErrHolidayExists) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListHolidays lists holidays filtered by startDate, endDate, year, month
// (1-12) and type.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	filter, err := holidayFilterFromQuery(r)
	if err != nil {
		h.fail(w, r, err, "FETCH_HOLIDAYS_ERROR", "Failed to fetch holidays")
		return
	}
	holidays, err := h.holidays.ListHolidays(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err, "FETCH_HOLIDAYS_ERROR", "Failed to fetch holidays")
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeOK(w, http.StatusOK, envelope{"holidays": dtos, "count": len(dtos)})
}

func holidayFilterFromQuery(r *http.Request) (generic.HolidayFilter, error) {
	q := r.URL.Query()
	var f generic.HolidayFilter
	var err error

	if s := q.Get("startDate"); s != "" {
		if f.From, err = generic.ParseDate(s); err != nil {
			return f, badRequest("INVALID_DATE", "startDate must be YYYY-MM-DD")
		}
	}
	if s := q.Get("endDate"); s != "" {
		if f.To, err = generic.ParseDate(s); err != nil {
			return f, badRequest("INVALID_DATE", "endDate must be YYYY-MM-DD")
		}
	}
	if s := q.Get("year"); s != "" {
		if f.Year, err = strconv.Atoi(s); err != nil {
			return f, badRequest("INVALID_YEAR", "year must be a number")
		}
	}
	if s := q.Get("month"); s != "" {
		if f.Month, err = strconv.Atoi(s); err != nil || f.Month < 1 || f.Month > 12 {
			return f, badRequest("INVALID_MONTH", "month must be 1-12")
		}
	}
	f.Type = generic.HolidayType(q.Get("type"))
	return f, nil
}

// HolidayTypes lists the types currently in use.
func (h *Handler) HolidayTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.holidays.HolidayTypesInUse(r.Context())
	if err != nil {
		h.fail(w, r, err, "FETCH_TYPES_ERROR", "Failed to fetch holiday types")
		return
	}
	writeOK(w, http.StatusOK, envelope{"types": types})
}

// CreateHoliday adds one holiday (admin).
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, "CREATE_HOLIDAY_ERROR", "Failed to create holiday")
		return
	}
	if req.Date == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "Date and name are required")
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DATE", "Date must be YYYY-MM-DD")
		return
	}
	typ := generic.HolidayType(req.Type)
	if typ == "" {
		typ = generic.HolidayCollege
	}

	holiday := generic.Holiday{
		ID:          h.newID(),
		Date:        date,
		Name:        req.Name,
		Type:        typ,
		Description: req.Description,
		Recurring:   req.Recurring,
		CreatedBy:   caller(r).UserID,
	}
	if err := h.holidays.SaveHoliday(r.Context(), holiday); err != nil {
		h.fail(w, r, err, "CREATE_HOLIDAY_ERROR", "Failed to create holiday")
		return
	}
	writeOK(w, http.StatusCreated, envelope{
		"message": "Holiday added successfully",
		"holiday": toHolidayDTO(holiday),
	})
}

// AddDefaultHolidays seeds the default set for the current year (admin).
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.checker.Now().Year()
	added, err := SeedHolidays(r.Context(), h.holidays, year)
	if err != nil {
		h.fail(w, r, err, "ADD_DEFAULT_HOLIDAYS_ERROR", "Failed to add default holidays")
		return
	}
	h.logger.Info("default holidays seeded", zap.Int("year", year), zap.Int("added", added))
	writeOK(w, http.StatusOK, envelope{
		"message": fmt.Sprintf("Added %d default holidays", added),
		"added":   added,
	})
}

// DeleteHoliday removes a holiday (admin).
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.holidays.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "DELETE_HOLIDAY_ERROR", "Failed to delete holiday")
		return
	}
	writeOK(w, http.StatusOK, envelope{"message": "Holiday deleted successfully"})
}

// ValidateDates checks a calendar selection before it is submitted.
func (h *Handler) ValidateDates(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SelectedDates []string `json:"selectedDates"`
	}
	if err := h.decode(r, &req); err != nil || req.SelectedDates == nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "selectedDates must be an array")
		return
	}

	today := generic.FromTime(h.checker.Now())
	report := quota.ValidateSelection(req.SelectedDates, today, h.holidays, h.checker.Policy())
	writeOK(w, http.StatusOK, envelope{"validation": toSelectionDTO(report)})
}
