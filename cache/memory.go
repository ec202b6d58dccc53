package cache

import (
	"context"
	"sync"
	"time"

	"github.com/eleave/leave-engine/quota"
)

// Memory is a process-local quota.VerdictCache.
type Memory struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	users map[string]map[string]entry
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, now: time.Now, users: make(map[string]map[string]entry)}
}

// WithClock replaces the clock used to age entries.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Get(_ context.Context, userID, key string) (quota.Verdict, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.users[userID][key]
	if !ok || m.now().Sub(e.CachedAt) >= m.ttl {
		return quota.Verdict{}, false
	}
	return e.Verdict, true
}

func (m *Memory) Set(_ context.Context, userID, key string, v quota.Verdict) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries, ok := m.users[userID]
	if !ok {
		entries = make(map[string]entry)
		m.users[userID] = entries
	}
	entries[key] = entry{Verdict: v, CachedAt: m.now()}
}

func (m *Memory) InvalidateUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for userID, entries := range m.users {
		for key, e := range entries {
			if now.Sub(e.CachedAt) >= m.ttl {
				delete(entries, key)
				removed++
			}
		}
		if len(entries) == 0 {
			delete(m.users, userID)
		}
	}
	return removed
}

// Len is the number of cached verdicts, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, entries := range m.users {
		n += len(entries)
	}
	return n
}
