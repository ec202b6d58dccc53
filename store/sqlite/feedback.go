package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/eleave/leave-engine/generic"
)

// =============================================================================
// FEEDBACK STORE
// =============================================================================

const feedbackColumns = `id, user_id, user_name, user_role, category, rating, subject, message,
	status, admin_response, responded_by, responded_at, created_at, updated_at`

func (s *Store) CreateFeedback(ctx context.Context, f generic.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = f.CreatedAt
	}
	if f.Status == "" {
		f.Status = generic.FeedbackNew
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (`+feedbackColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.UserName, string(f.UserRole), string(f.Category), f.Rating, f.Subject, f.Message,
		string(f.Status), nullString(f.AdminResponse), nullString(f.RespondedBy), formatTime(f.RespondedAt),
		formatTime(f.CreatedAt), formatTime(f.UpdatedAt),
	)
	if err != nil {
		return wrapUnavailable("create feedback", err)
	}
	return nil
}

func (s *Store) GetFeedback(ctx context.Context, id string) (generic.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanFeedback(s.db.QueryRowContext(ctx, `SELECT `+feedbackColumns+` FROM feedback WHERE id = ?`, id))
}

// ListFeedback returns matching feedback, newest first.
func (s *Store) ListFeedback(ctx context.Context, filter generic.FeedbackFilter) ([]generic.Feedback, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(filter.Category))
	}

	query := `SELECT ` + feedbackColumns + ` FROM feedback`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapUnavailable("list feedback", err)
	}
	defer rows.Close()

	out := []generic.Feedback{}
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpdateFeedback overwrites the mutable fields: status and the admin response.
func (s *Store) UpdateFeedback(ctx context.Context, f generic.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE feedback
		SET status = ?, admin_response = ?, responded_by = ?, responded_at = ?, updated_at = ?
		WHERE id = ?`,
		string(f.Status), nullString(f.AdminResponse), nullString(f.RespondedBy),
		formatTime(f.RespondedAt), formatTime(f.UpdatedAt), f.ID,
	)
	if err != nil {
		return wrapUnavailable("update feedback", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrFeedbackNotFound
	}
	return nil
}

func scanFeedback(row rowScanner) (generic.Feedback, error) {
	var (
		f                                  generic.Feedback
		role, category, status             string
		response, respondedBy, respondedAt sql.NullString
		createdAt, updatedAt               sql.NullString
	)
	err := row.Scan(&f.ID, &f.UserID, &f.UserName, &role, &category, &f.Rating, &f.Subject, &f.Message,
		&status, &response, &respondedBy, &respondedAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.Feedback{}, generic.ErrFeedbackNotFound
	}
	if err != nil {
		return generic.Feedback{}, wrapUnavailable("scan feedback", err)
	}
	f.UserRole = generic.Role(role)
	f.Category = generic.FeedbackCategory(category)
	f.Status = generic.FeedbackStatus(status)
	f.AdminResponse = response.String
	f.RespondedBy = respondedBy.String
	f.RespondedAt = parseTime(respondedAt)
	f.CreatedAt = parseTime(createdAt)
	f.UpdatedAt = parseTime(updatedAt)
	return f, nil
}
