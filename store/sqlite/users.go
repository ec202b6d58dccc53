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
// USER STORE
// =============================================================================

const userColumns = `id, name, email, password_hash, role, stream, roll_number, created_at`

// CreateUser inserts an account. Email is stored lower-cased.
func (s *Store) CreateUser(ctx context.Context, u generic.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Name,
		strings.ToLower(u.Email),
		u.PasswordHash,
		string(u.Role),
		nullString(u.Stream),
		nullString(u.RollNumber),
		formatTime(u.CreatedAt),
	)
	if column, ok := uniqueViolation(err); ok {
		if strings.Contains(column, "roll_number") {
			return generic.ErrDuplicateRollNumber
		}
		return generic.ErrDuplicateEmail
	}
	if err != nil {
		return wrapUnavailable("create user", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (generic.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (generic.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email))))
}

// ListUsers returns all accounts, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]generic.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrapUnavailable("list users", err)
	}
	defer rows.Close()

	users := []generic.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return wrapUnavailable("delete user", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (generic.User, error) {
	var (
		u          generic.User
		role       string
		stream     sql.NullString
		rollNumber sql.NullString
		createdAt  sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &stream, &rollNumber, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.User{}, generic.ErrUserNotFound
	}
	if err != nil {
		return generic.User{}, wrapUnavailable("scan user", err)
	}
	u.Role = generic.Role(role)
	u.Stream = stream.String
	u.RollNumber = rollNumber.String
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}
