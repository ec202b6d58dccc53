package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/eleave/leave-engine/generic"
)

// =============================================================================
// LEAVE STORE
// =============================================================================

const leaveColumns = `id, user_id, user_name, user_email, roll_number, stream, leave_type, reason,
	status, kind, start_date, end_date, selected_dates, submitted_at, decided_at, decided_by`

func (s *Store) CreateLeave(ctx context.Context, r generic.LeaveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates, err := encodeDays(r.SelectedDates)
	if err != nil {
		return err
	}
	if r.Status == "" {
		r.Status = generic.StatusPending
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leaves (`+leaveColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.UserID,
		r.UserName,
		nullString(r.UserEmail),
		nullString(r.RollNumber),
		nullString(r.Stream),
		nullString(r.LeaveType),
		r.Reason,
		string(r.Status),
		string(r.Kind),
		formatDay(r.StartDate),
		formatDay(r.EndDate),
		dates,
		formatTime(r.SubmittedAt),
		formatTime(r.DecidedAt),
		nullString(r.DecidedBy),
	)
	if err != nil {
		return wrapUnavailable("create leave", err)
	}
	return nil
}

func (s *Store) GetLeave(ctx context.Context, id string) (generic.LeaveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLeave(ctx, id)
}

func (s *Store) getLeave(ctx context.Context, id string) (generic.LeaveRecord, error) {
	return scanLeave(s.db.QueryRowContext(ctx, `SELECT `+leaveColumns+` FROM leaves WHERE id = ?`, id))
}

// ListLeaves returns matching records, newest submission first.
func (s *Store) ListLeaves(ctx context.Context, f generic.LeaveFilter) ([]generic.LeaveRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Stream != "" {
		where = append(where, "stream = ?")
		args = append(args, f.Stream)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	query := `SELECT ` + leaveColumns + ` FROM leaves`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY submitted_at DESC"

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryLeaves(ctx, query, args...)
}

// LeavesByUser returns every record of the user regardless of status.
func (s *Store) LeavesByUser(ctx context.Context, userID string) ([]generic.LeaveRecord, error) {
	return s.ListLeaves(ctx, generic.LeaveFilter{UserID: userID})
}

// DecideLeave moves a pending leave to approved or rejected.
func (s *Store) DecideLeave(ctx context.Context, id string, status generic.LeaveStatus, by string, at time.Time) (generic.LeaveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !status.Decided() {
		return generic.LeaveRecord{}, &generic.TransitionError{LeaveID: id, From: generic.StatusPending, To: status}
	}

	// Only pending rows match, so two concurrent decisions cannot both win.
	res, err := s.db.ExecContext(ctx, `
		UPDATE leaves SET status = ?, decided_by = ?, decided_at = ?
		WHERE id = ? AND status = 'pending'`,
		string(status), nullString(by), formatTime(at), id,
	)
	if err != nil {
		return generic.LeaveRecord{}, wrapUnavailable("decide leave", err)
	}

	current, err := s.getLeave(ctx, id)
	if err != nil {
		return generic.LeaveRecord{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.LeaveRecord{}, &generic.TransitionError{LeaveID: id, From: current.Status, To: status}
	}
	return current, nil
}

func (s *Store) DeleteLeave(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM leaves WHERE id = ?`, id)
	if err != nil {
		return wrapUnavailable("delete leave", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrLeaveNotFound
	}
	return nil
}

func (s *Store) DeleteLeavesByUser(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM leaves WHERE user_id = ?`, userID)
	if err != nil {
		return 0, wrapUnavailable("delete user leaves", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) queryLeaves(ctx context.Context, query string, args ...any) ([]generic.LeaveRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapUnavailable("query leaves", err)
	}
	defer rows.Close()

	leaves := []generic.LeaveRecord{}
	for rows.Next() {
		r, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, r)
	}
	return leaves, rows.Err()
}

func scanLeave(row rowScanner) (generic.LeaveRecord, error) {
	var (
		r                                        generic.LeaveRecord
		userEmail, rollNumber, stream, leaveType sql.NullString
		status, kind                             string
		startDate, endDate, selectedDates        sql.NullString
		submittedAt, decidedAt, decidedBy        sql.NullString
	)
	err := row.Scan(&r.ID, &r.UserID, &r.UserName, &userEmail, &rollNumber, &stream, &leaveType, &r.Reason,
		&status, &kind, &startDate, &endDate, &selectedDates, &submittedAt, &decidedAt, &decidedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.LeaveRecord{}, generic.ErrLeaveNotFound
	}
	if err != nil {
		return generic.LeaveRecord{}, wrapUnavailable("scan leave", err)
	}

	r.UserEmail = userEmail.String
	r.RollNumber = rollNumber.String
	r.Stream = stream.String
	r.LeaveType = leaveType.String
	r.Status = generic.LeaveStatus(status)
	r.Kind = generic.RequestKind(kind)
	r.StartDate = parseDay(startDate)
	r.EndDate = parseDay(endDate)
	r.SelectedDates = decodeDays(selectedDates)
	r.SubmittedAt = parseTime(submittedAt)
	r.DecidedAt = parseTime(decidedAt)
	r.DecidedBy = decidedBy.String
	return r, nil
}

func encodeDays(days []generic.TimePoint) (sql.NullString, error) {
	if len(days) == 0 {
		return sql.NullString{}, nil
	}
	raw := make([]string, len(days))
	for i, d := range days {
		raw[i] = d.String()
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// decodeDays skips entries that are not days; the quota engine treats a
// calendar record without dates as a single day.
func decodeDays(ns sql.NullString) []generic.TimePoint {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var raw []string
	if err := json.Unmarshal([]byte(ns.String), &raw); err != nil {
		return nil
	}
	days := make([]generic.TimePoint, 0, len(raw))
	for _, s := range raw {
		if d, err := generic.ParseDate(s); err == nil {
			days = append(days, d)
		}
	}
	return days
}
