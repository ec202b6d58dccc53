package cache_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eleave/leave-engine/cache"
	"github.com/eleave/leave-engine/quota"
)

var t0 = time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)

func sampleVerdict() quota.Verdict {
	return quota.DefaultPolicy().Classify(1, 1)
}

func encoded(t *testing.T, v quota.Verdict, at time.Time) string {
	t.Helper()
	b, err := json.Marshal(struct {
		Verdict  quota.Verdict `json:"verdict"`
		CachedAt time.Time     `json:"cachedAt"`
	}{v, at})
	require.NoError(t, err)
	return string(b)
}

// =============================================================================
// REDIS
// =============================================================================

func TestRedis_SetWritesHashAndExpiry(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := cache.NewRedis(db, time.Minute, zap.NewNop()).WithClock(func() time.Time { return t0 })
	v := sampleVerdict()

	mock.ExpectHSet("quota:verdicts:stu-1", "2025-01|range:a:b", encoded(t, v, t0)).SetVal(1)
	mock.ExpectExpire("quota:verdicts:stu-1", time.Minute).SetVal(true)

	c.Set(context.Background(), "stu-1", "2025-01|range:a:b", v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_GetFreshEntry(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := cache.NewRedis(db, time.Minute, zap.NewNop()).WithClock(func() time.Time { return t0.Add(30 * time.Second) })
	v := sampleVerdict()

	mock.ExpectHGet("quota:verdicts:stu-1", "k").SetVal(encoded(t, v, t0))

	got, ok := c.Get(context.Background(), "stu-1", "k")
	assert.True(t, ok)
	assert.Equal(t, v, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_GetStaleEntryIsMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := cache.NewRedis(db, time.Minute, zap.NewNop()).WithClock(func() time.Time { return t0.Add(2 * time.Minute) })

	mock.ExpectHGet("quota:verdicts:stu-1", "k").SetVal(encoded(t, sampleVerdict(), t0))

	_, ok := c.Get(context.Background(), "stu-1", "k")
	assert.False(t, ok)
}

func TestRedis_ErrorsAreMisses(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := cache.NewRedis(db, time.Minute, zap.NewNop())

	mock.ExpectHGet("quota:verdicts:stu-1", "missing").RedisNil()
	mock.ExpectHGet("quota:verdicts:stu-1", "down").SetErr(errors.New("connection refused"))
	mock.ExpectHGet("quota:verdicts:stu-1", "corrupt").SetVal("{not json")

	for _, k := range []string{"missing", "down", "corrupt"} {
		_, ok := c.Get(context.Background(), "stu-1", k)
		assert.False(t, ok, k)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_InvalidateDeletesHash(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := cache.NewRedis(db, time.Minute, zap.NewNop())

	mock.ExpectDel("quota:verdicts:stu-1").SetVal(1)

	require.NoError(t, c.InvalidateUser(context.Background(), "stu-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// =============================================================================
// MEMORY
// =============================================================================

func TestMemory_TTLAndInvalidate(t *testing.T) {
	ctx := context.Background()
	clock := t0
	m := cache.NewMemory(time.Minute).WithClock(func() time.Time { return clock })
	v := sampleVerdict()

	m.Set(ctx, "stu-1", "a", v)
	m.Set(ctx, "stu-1", "b", v)
	m.Set(ctx, "stu-2", "a", v)

	got, ok := m.Get(ctx, "stu-1", "a")
	require.True(t, ok)
	assert.Equal(t, v, got)

	require.NoError(t, m.InvalidateUser(ctx, "stu-1"))
	_, ok = m.Get(ctx, "stu-1", "a")
	assert.False(t, ok)
	_, ok = m.Get(ctx, "stu-2", "a")
	assert.True(t, ok, "other users keep their entries")

	clock = t0.Add(time.Minute)
	_, ok = m.Get(ctx, "stu-2", "a")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 0, m.Len())
}
