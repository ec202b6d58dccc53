package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/eleave/leave-engine/generic"
)

// =============================================================================
// HOLIDAY CALENDAR IMPLEMENTATION
// =============================================================================

// SaveHoliday inserts a holiday. A date holds at most one holiday.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, date, name, type, description, recurring, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		h.ID,
		h.Date.String(),
		h.Name,
		string(h.Type),
		nullString(h.Description),
		h.Recurring,
		nullString(h.CreatedBy),
		formatTime(time.Now()),
	)
	if _, ok := uniqueViolation(err); ok {
		return generic.ErrHolidayExists
	}
	if err != nil {
		return wrapUnavailable("save holiday", err)
	}
	return nil
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return wrapUnavailable("delete holiday", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrHolidayNotFound
	}
	return nil
}

// ListHolidays returns matching holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context, f generic.HolidayFilter) ([]generic.Holiday, error) {
	var (
		where []string
		args  []any
	)
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To.String())
	}
	if f.Year != 0 {
		where = append(where, "strftime('%Y', date) = ?")
		args = append(args, fmt.Sprintf("%04d", f.Year))
	}
	if f.Month != 0 {
		where = append(where, "strftime('%m', date) = ?")
		args = append(args, fmt.Sprintf("%02d", f.Month))
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}

	query := `SELECT id, date, name, type, description, recurring, created_by FROM holidays`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date ASC"

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapUnavailable("list holidays", err)
	}
	defer rows.Close()

	holidays := []generic.Holiday{}
	for rows.Next() {
		var (
			h                    generic.Holiday
			dateStr, typ         string
			description, creator sql.NullString
		)
		if err := rows.Scan(&h.ID, &dateStr, &h.Name, &typ, &description, &h.Recurring, &creator); err != nil {
			return nil, wrapUnavailable("scan holiday", err)
		}
		h.Date, _ = generic.ParseDate(dateStr)
		h.Type = generic.HolidayType(typ)
		h.Description = description.String
		h.CreatedBy = creator.String
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// HolidayTypesInUse returns the distinct holiday types, sorted.
func (s *Store) HolidayTypesInUse(ctx context.Context) ([]generic.HolidayType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT type FROM holidays ORDER BY type`)
	if err != nil {
		return nil, wrapUnavailable("holiday types", err)
	}
	defer rows.Close()

	types := []generic.HolidayType{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, wrapUnavailable("scan holiday type", err)
		}
		types = append(types, generic.HolidayType(t))
	}
	return types, rows.Err()
}

// HolidayOn looks up the holiday on date. Lookup failures read as "no
// holiday" so that date validation keeps working without the table.
func (s *Store) HolidayOn(date generic.TimePoint) (generic.Holiday, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		h   generic.Holiday
		typ string
	)
	err := s.db.QueryRow(
		`SELECT id, name, type, recurring FROM holidays WHERE date = ?`, date.String(),
	).Scan(&h.ID, &h.Name, &typ, &h.Recurring)
	if err != nil {
		return generic.Holiday{}, false
	}
	h.Date = date
	h.Type = generic.HolidayType(typ)
	return h, true
}
