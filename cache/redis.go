/*
Package cache provides verdict caches for the quota checker.

PURPOSE:
  Pre-submission quota checks are repeated often while a student edits a
  form. Verdicts are cached per user for a short TTL and dropped as soon as
  the user's leave records change.

IMPLEMENTATIONS:
  Redis:  one hash per user, shared by every server instance
  Memory: process-local map, used when no Redis address is configured

  Neither is authoritative. Read errors are treated as misses and the
  binding check on submission never consults a cache.

REDIS LAYOUT:
  key   quota:verdicts:<userID>      (EXPIRE ttl, refreshed on write)
  field <month>|<canonical request>
  value {"verdict": {...}, "cachedAt": "<RFC3339>"}

SEE ALSO:
  - quota/checker.go: VerdictCache interface and its use
*/
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eleave/leave-engine/quota"
)

// DefaultTTL bounds how long a verdict is served.
const DefaultTTL = 5 * time.Minute

// UserKey is the Redis hash holding a user's verdicts.
func UserKey(userID string) string { return "quota:verdicts:" + userID }

type entry struct {
	Verdict  quota.Verdict `json:"verdict"`
	CachedAt time.Time     `json:"cachedAt"`
}

// Redis is a quota.VerdictCache on go-redis.
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewRedis(rdb *redis.Client, ttl time.Duration, logger ...*zap.Logger) *Redis {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: rdb, ttl: ttl, now: time.Now, logger: l.Named("cache.redis")}
}

// WithClock replaces the clock used to age entries.
func (c *Redis) WithClock(now func() time.Time) *Redis {
	c.now = now
	return c
}

func (c *Redis) Get(ctx context.Context, userID, key string) (quota.Verdict, bool) {
	raw, err := c.rdb.HGet(ctx, UserKey(userID), key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("verdict cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		return quota.Verdict{}, false
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.logger.Warn("verdict cache entry corrupt", zap.String("user_id", userID), zap.Error(err))
		return quota.Verdict{}, false
	}
	if c.now().Sub(e.CachedAt) >= c.ttl {
		return quota.Verdict{}, false
	}
	return e.Verdict, true
}

func (c *Redis) Set(ctx context.Context, userID, key string, v quota.Verdict) {
	payload, err := json.Marshal(entry{Verdict: v, CachedAt: c.now().UTC()})
	if err != nil {
		c.logger.Error("verdict encode failed", zap.Error(err))
		return
	}

	hash := UserKey(userID)
	if err := c.rdb.HSet(ctx, hash, key, string(payload)).Err(); err != nil {
		c.logger.Warn("verdict cache write failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if err := c.rdb.Expire(ctx, hash, c.ttl).Err(); err != nil {
		c.logger.Warn("verdict cache expire failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (c *Redis) InvalidateUser(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, UserKey(userID)).Err()
}
