package quota

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/eleave/leave-engine/generic"
)

// RecordSource supplies every leave record of a user. generic.LeaveStore
// satisfies it.
type RecordSource interface {
	LeavesByUser(ctx context.Context, userID string) ([]generic.LeaveRecord, error)
}

// VerdictCache memoizes verdicts per user for a bounded time. It is an
// optimization only; a miss or an error must never change a result.
type VerdictCache interface {
	Get(ctx context.Context, userID, key string) (Verdict, bool)
	Set(ctx context.Context, userID, key string, v Verdict)
	InvalidateUser(ctx context.Context, userID string) error
}

type noCache struct{}

func (noCache) Get(context.Context, string, string) (Verdict, bool) { return Verdict{}, false }
func (noCache) Set(context.Context, string, string, Verdict)        {}
func (noCache) InvalidateUser(context.Context, string) error        { return nil }

// Usage is a user's standing in one month.
type Usage struct {
	UserID          string
	Month           generic.MonthKey
	CurrentUsage    int
	MonthlyLimit    int
	RemainingLeaves int
}

// MonthLabel is the human form of Month, e.g. "January 2025".
func (u Usage) MonthLabel() string { return u.Month.Label() }

// DefaultFetchTimeout bounds one shared record fetch, retries included.
const DefaultFetchTimeout = 10 * time.Second

// =============================================================================
// CHECKER
// =============================================================================

// Checker runs quota checks against stored records. It retries transient
// fetch failures, collapses concurrent fetches for the same user, caches
// verdicts and degrades to a fail-open Outcome when records stay
// unavailable.
//
// Every user has a generation that Invalidate bumps. Fetches are shared
// only within one generation, and a verdict computed from an older
// generation is never cached.
type Checker struct {
	source       RecordSource
	policy       Policy
	cache        VerdictCache
	backoff      Backoff
	fetchTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger
	group        singleflight.Group

	genMu sync.Mutex
	gens  map[string]uint64
}

type Option func(*Checker)

func WithCache(c VerdictCache) Option {
	return func(ch *Checker) {
		if c != nil {
			ch.cache = c
		}
	}
}

func WithBackoff(b Backoff) Option          { return func(ch *Checker) { ch.backoff = b } }
func WithClock(now func() time.Time) Option { return func(ch *Checker) { ch.now = now } }
func WithLogger(l *zap.Logger) Option       { return func(ch *Checker) { ch.logger = l } }

// WithFetchTimeout bounds a shared record fetch. Callers still stop
// waiting when their own context ends.
func WithFetchTimeout(d time.Duration) Option {
	return func(ch *Checker) {
		if d > 0 {
			ch.fetchTimeout = d
		}
	}
}

func NewChecker(source RecordSource, policy Policy, opts ...Option) *Checker {
	if policy.MonthlyLimit <= 0 {
		policy.MonthlyLimit = DefaultMonthlyLimit
	}
	ch := &Checker{
		source:       source,
		policy:       policy,
		cache:        noCache{},
		backoff:      DefaultBackoff(),
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		logger:       zap.L(),
		gens:         map[string]uint64{},
	}
	for _, opt := range opts {
		opt(ch)
	}
	ch.logger = ch.logger.Named("quota.checker")
	return ch
}

func (c *Checker) Policy() Policy { return c.policy }

// CurrentMonth is the month that evaluations count against.
func (c *Checker) CurrentMonth() generic.MonthKey { return generic.MonthKeyOf(c.now()) }

// Now is the checker's clock.
func (c *Checker) Now() time.Time { return c.now() }

// Records fetches a user's records with retry. Errors are
// *DataUnavailableError.
func (c *Checker) Records(ctx context.Context, userID string) ([]generic.LeaveRecord, error) {
	records, _, err := c.records(ctx, userID)
	return records, err
}

func (c *Checker) generation(userID string) uint64 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.gens[userID]
}

// records returns the user's records and the generation they belong to.
//
// The shared fetch runs detached from any single caller, so one caller
// giving up does not fail the others. Each caller waits only as long as
// its own context allows.
func (c *Checker) records(ctx context.Context, userID string) ([]generic.LeaveRecord, uint64, error) {
	gen := c.generation(userID)
	key := userID + "#" + strconv.FormatUint(gen, 10)

	results := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		var records []generic.LeaveRecord
		err := c.backoff.Retry(fetchCtx, func(ctx context.Context) error {
			var err error
			records, err = c.source.LeavesByUser(ctx, userID)
			if err != nil {
				c.logger.Debug("fetch leave records failed", zap.String("user_id", userID), zap.Error(err))
			}
			return err
		})
		return records, err
	})

	select {
	case <-ctx.Done():
		return nil, gen, &DataUnavailableError{UserID: userID, Err: ctx.Err()}
	case res := <-results:
		if res.Err != nil {
			return nil, gen, &DataUnavailableError{UserID: userID, Err: res.Err}
		}
		if res.Shared {
			c.logger.Debug("shared leave record fetch", zap.String("user_id", userID))
		}
		return res.Val.([]generic.LeaveRecord), gen, nil
	}
}

// MonthlyUsage reports approved leave-days in month. A zero month means the
// current one.
func (c *Checker) MonthlyUsage(ctx context.Context, userID string, month generic.MonthKey) (Usage, error) {
	if month.IsZero() {
		month = c.CurrentMonth()
	}
	records, err := c.Records(ctx, userID)
	if err != nil {
		return Usage{}, err
	}
	used := Aggregate(records, month)
	return Usage{
		UserID:          userID,
		Month:           month,
		CurrentUsage:    used,
		MonthlyLimit:    c.policy.MonthlyLimit,
		RemainingLeaves: max(0, c.policy.MonthlyLimit-used),
	}, nil
}

// Evaluate checks a candidate for pre-submission feedback. Cached verdicts
// may be served. Only a *ValidationError is returned as an error; record
// failures become Degraded.
func (c *Checker) Evaluate(ctx context.Context, userID string, cand Candidate) (Outcome, error) {
	return c.evaluate(ctx, userID, cand, true)
}

// EvaluateSubmission is Evaluate without the cache, for the binding check
// made when a request is actually submitted.
func (c *Checker) EvaluateSubmission(ctx context.Context, userID string, cand Candidate) (Outcome, error) {
	return c.evaluate(ctx, userID, cand, false)
}

func (c *Checker) evaluate(ctx context.Context, userID string, cand Candidate, cached bool) (Outcome, error) {
	req, err := cand.Parse()
	if err != nil {
		return nil, err
	}
	month := c.CurrentMonth()
	key := month.String() + "|" + req.Key()

	if cached {
		if v, ok := c.cache.Get(ctx, userID, key); ok {
			return Confident{Verdict: v}, nil
		}
	}

	records, gen, err := c.records(ctx, userID)
	if err != nil {
		c.logger.Warn("quota check degraded",
			zap.String("user_id", userID),
			zap.String("month", month.String()),
			zap.Error(err),
		)
		return NewDegraded(ErrorTypeDataUnavailable, err.Error(), req.Days(), c.policy.MonthlyLimit), nil
	}

	v := c.policy.Classify(Aggregate(records, month), req.Days())
	if cached {
		c.storeVerdict(ctx, userID, gen, key, v)
	}
	return Confident{Verdict: v}, nil
}

// storeVerdict caches v unless the user's records changed since gen was
// read. The check and the write happen under genMu, so an Invalidate
// either sees the entry and drops it or makes the check fail.
func (c *Checker) storeVerdict(ctx context.Context, userID string, gen uint64, key string, v Verdict) {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	if c.gens[userID] != gen {
		c.logger.Debug("skip caching stale verdict", zap.String("user_id", userID))
		return
	}
	c.cache.Set(ctx, userID, key, v)
}

// Invalidate drops the user's cached verdicts. Call after any change to the
// user's records.
func (c *Checker) Invalidate(ctx context.Context, userID string) {
	c.genMu.Lock()
	c.gens[userID]++
	c.genMu.Unlock()

	if err := c.cache.InvalidateUser(ctx, userID); err != nil {
		c.logger.Warn("verdict cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// CalendarBalance computes the calendar view for month (zero = current).
func (c *Checker) CalendarBalance(ctx context.Context, userID string, month generic.MonthKey) (Balance, error) {
	if month.IsZero() {
		month = c.CurrentMonth()
	}
	records, err := c.Records(ctx, userID)
	if err != nil {
		return Balance{}, err
	}
	return CalendarBalance(records, month, c.policy), nil
}
