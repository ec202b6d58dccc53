// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eleave/leave-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	users    map[string]generic.User
	leaves   map[string]generic.LeaveRecord
	holidays map[string]generic.Holiday
	feedback map[string]generic.Feedback
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]generic.User),
		leaves:   make(map[string]generic.LeaveRecord),
		holidays: make(map[string]generic.Holiday),
		feedback: make(map[string]generic.Feedback),
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

func (m *Memory) CreateUser(_ context.Context, u generic.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return generic.ErrDuplicateEmail
		}
		if u.RollNumber != "" && existing.RollNumber == u.RollNumber {
			return generic.ErrDuplicateRollNumber
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (generic.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return generic.User{}, generic.ErrUserNotFound
	}
	return u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (generic.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return generic.User{}, generic.ErrUserNotFound
}

func (m *Memory) ListUsers(context.Context) ([]generic.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]generic.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return generic.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// -----------------------------------------------------------------------------
// Leaves
// -----------------------------------------------------------------------------

func (m *Memory) CreateLeave(_ context.Context, r generic.LeaveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves[r.ID] = r
	return nil
}

func (m *Memory) GetLeave(_ context.Context, id string) (generic.LeaveRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.leaves[id]
	if !ok {
		return generic.LeaveRecord{}, generic.ErrLeaveNotFound
	}
	return r, nil
}

func (m *Memory) ListLeaves(_ context.Context, f generic.LeaveFilter) ([]generic.LeaveRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []generic.LeaveRecord{}
	for _, r := range m.leaves {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (m *Memory) LeavesByUser(ctx context.Context, userID string) ([]generic.LeaveRecord, error) {
	return m.ListLeaves(ctx, generic.LeaveFilter{UserID: userID})
}

func (m *Memory) DecideLeave(_ context.Context, id string, status generic.LeaveStatus, by string, at time.Time) (generic.LeaveRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.leaves[id]
	if !ok {
		return generic.LeaveRecord{}, generic.ErrLeaveNotFound
	}
	if !r.CanTransition(status) {
		return generic.LeaveRecord{}, &generic.TransitionError{LeaveID: id, From: r.Status, To: status}
	}
	r.Status = status
	r.DecidedBy = by
	r.DecidedAt = at
	m.leaves[id] = r
	return r, nil
}

func (m *Memory) DeleteLeave(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leaves[id]; !ok {
		return generic.ErrLeaveNotFound
	}
	delete(m.leaves, id)
	return nil
}

func (m *Memory) DeleteLeavesByUser(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, r := range m.leaves {
		if r.UserID == userID {
			delete(m.leaves, id)
			n++
		}
	}
	return n, nil
}

// -----------------------------------------------------------------------------
// Holidays
// -----------------------------------------------------------------------------

func (m *Memory) SaveHoliday(_ context.Context, h generic.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.holidays {
		if existing.ID == h.ID || existing.Date.Equal(h.Date) {
			return generic.ErrHolidayExists
		}
	}
	m.holidays[h.ID] = h
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holidays[id]; !ok {
		return generic.ErrHolidayNotFound
	}
	delete(m.holidays, id)
	return nil
}

func (m *Memory) ListHolidays(_ context.Context, f generic.HolidayFilter) ([]generic.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []generic.Holiday{}
	for _, h := range m.holidays {
		if f.Match(h) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) HolidayTypesInUse(context.Context) ([]generic.HolidayType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[generic.HolidayType]bool{}
	out := []generic.HolidayType{}
	for _, h := range m.holidays {
		if !seen[h.Type] {
			seen[h.Type] = true
			out = append(out, h.Type)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *Memory) HolidayOn(date generic.TimePoint) (generic.Holiday, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.holidays {
		if h.Date.Equal(date) {
			return h, true
		}
	}
	return generic.Holiday{}, false
}

// -----------------------------------------------------------------------------
// Feedback
// -----------------------------------------------------------------------------

func (m *Memory) CreateFeedback(_ context.Context, f generic.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback[f.ID] = f
	return nil
}

func (m *Memory) GetFeedback(_ context.Context, id string) (generic.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.feedback[id]
	if !ok {
		return generic.Feedback{}, generic.ErrFeedbackNotFound
	}
	return f, nil
}

func (m *Memory) ListFeedback(_ context.Context, filter generic.FeedbackFilter) ([]generic.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []generic.Feedback{}
	for _, f := range m.feedback {
		if filter.Match(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateFeedback(_ context.Context, f generic.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.feedback[f.ID]; !ok {
		return generic.ErrFeedbackNotFound
	}
	m.feedback[f.ID] = f
	return nil
}
