/*
Package client is a Go client for the leave service API.

PURPOSE:
  Lets other Go programs (bulk importers, admin tools, a TUI) check and
  submit leave the same way the web frontend does.

KEY CONCEPTS:
  - Retries: network failures and 5xx responses are retried with
    exponential backoff (two retries, starting at one second). 4xx
    responses are returned at once.
  - Degraded outcomes: when a quota check cannot be completed, ValidateLeave
    returns quota.Degraded instead of an error. The submission stays
    allowed and the caller shows Degraded.Message.
  - Verdict cache: confident verdicts are cached per user and month for
    five minutes. Submitting or withdrawing a leave through this client
    drops the user's entries. The cache is never authoritative; the server
    re-checks on submission.
  - Estimate: an advisory verdict computed locally with quota.Policy from
    the server's monthly usage. It uses the same code as the server, so
    the two agree on the same inputs.

USAGE:
    c := client.New("http://localhost:8080")
    if _, err := c.Login(ctx, "asha@college.edu", "secret"); err != nil { ... }
    outcome, err := c.ValidateLeave(ctx, userID, quota.RangeCandidate(start, end))

SEE ALSO:
  - quota/: Policy, Verdict and Outcome
  - api/: The server side of every call
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eleave/leave-engine/cache"
	"github.com/eleave/leave-engine/generic"
	"github.com/eleave/leave-engine/quota"
)

// Defaults mirror the web frontend.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultCacheTTL = 5 * time.Minute
)

// DefaultBackoff is two retries starting at one second.
func DefaultBackoff() quota.Backoff {
	return quota.Backoff{Attempts: 2, Initial: time.Second, Max: 8 * time.Second}
}

// Client talks to one leave service.
type Client struct {
	baseURL string
	http    *http.Client
	backoff quota.Backoff
	policy  quota.Policy
	cache   *cache.Memory
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }
func WithBackoff(b quota.Backoff) Option    { return func(c *Client) { c.backoff = b } }
func WithToken(token string) Option         { return func(c *Client) { c.token = token } }
func WithLogger(l *zap.Logger) Option       { return func(c *Client) { c.logger = l } }

// WithPolicy sets the limit used for Estimate and for degraded outcomes.
func WithPolicy(p quota.Policy) Option { return func(c *Client) { c.policy = p } }

// WithClock sets the clock that picks the month verdicts are cached under.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// WithCache replaces the verdict cache.
func WithCache(m *cache.Memory) Option { return func(c *Client) { c.cache = m } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		backoff: DefaultBackoff(),
		policy:  quota.DefaultPolicy(),
		cache:   cache.NewMemory(DefaultCacheTTL),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.L()
	}
	c.logger = c.logger.Named("client")
	return c
}

// Token returns the bearer token in use.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(t string) {
	c.mu.Lock()
	c.token = t
	c.mu.Unlock()
}

// =============================================================================
// AUTH
// =============================================================================

// User is the profile returned at login.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Stream     string `json:"stream,omitempty"`
	RollNumber string `json:"rollNumber,omitempty"`
}

// Login authenticates and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return User{}, err
	}
	c.setToken(resp.Token)
	return resp.User, nil
}

// =============================================================================
// QUOTA
// =============================================================================

// ValidateLeave asks the server whether cand fits userID's monthly quota.
//
// Malformed candidates are rejected locally with a *quota.ValidationError
// and never reach the server. Every other failure becomes quota.Degraded.
func (c *Client) ValidateLeave(ctx context.Context, userID string, cand quota.Candidate) (quota.Outcome, error) {
	req, err := cand.Parse()
	if err != nil {
		return nil, err
	}
	// Usage is counted per month, so a verdict never outlives its month.
	key := generic.MonthKeyOf(c.now()).String() + "|" + req.Key()
	if v, ok := c.cache.Get(ctx, userID, key); ok {
		return quota.Confident{Verdict: v}, nil
	}

	body := struct {
		UserID string `json:"userId"`
		quota.Candidate
	}{UserID: userID, Candidate: cand}
	var resp struct {
		Data outcomeBody `json:"data"`
	}
	err = c.do(ctx, http.MethodPost, "/api/leaves/validate", body, &resp)
	if err != nil {
		if ve, ok := asServerValidation(err); ok {
			return nil, ve
		}
		errorType := ErrorType(err)
		c.logger.Warn("quota check degraded",
			zap.String("user_id", userID),
			zap.String("error_type", errorType),
			zap.Error(err),
		)
		return quota.NewDegraded(errorType, err.Error(), req.Days(), c.policy.MonthlyLimit), nil
	}

	if resp.Data.ValidationFailed {
		d := quota.NewDegraded(resp.Data.ErrorType, "server could not read leave records", resp.Data.RequestedDays, resp.Data.MonthlyLimit)
		if resp.Data.Message != "" {
			d.Message = resp.Data.Message
		}
		return d, nil
	}
	c.cache.Set(ctx, userID, key, resp.Data.Verdict)
	return quota.Confident{Verdict: resp.Data.Verdict}, nil
}

type outcomeBody struct {
	quota.Verdict
	ValidationFailed bool   `json:"validationFailed"`
	ErrorType        string `json:"errorType"`
	CanOverride      bool   `json:"canOverride"`
}

// Usage is the monthly-limit response.
type Usage struct {
	MonthlyLimit      int    `json:"monthlyLimit"`
	ApprovedThisMonth int    `json:"approvedThisMonth"`
	RemainingLeaves   int    `json:"remainingLeaves"`
	Month             string `json:"month"`
	MonthLabel        string `json:"monthLabel"`
}

// MonthlyUsage returns userID's approved usage in month. The zero month
// selects the server's current month.
func (c *Client) MonthlyUsage(ctx context.Context, userID string, month generic.MonthKey) (Usage, error) {
	path := "/api/leaves/monthly-limit/" + userID
	if month != (generic.MonthKey{}) {
		path += "?month=" + month.String()
	}
	var resp struct {
		Data Usage `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return Usage{}, err
	}
	return resp.Data, nil
}

// Estimate evaluates cand locally against the server's current usage. It
// is advisory; ValidateLeave and submission are the binding checks.
func (c *Client) Estimate(ctx context.Context, userID string, cand quota.Candidate) (quota.Verdict, error) {
	if _, err := cand.Parse(); err != nil {
		return quota.Verdict{}, err
	}
	usage, err := c.MonthlyUsage(ctx, userID, generic.MonthKey{})
	if err != nil {
		return quota.Verdict{}, err
	}
	return c.policy.Evaluate(usage.ApprovedThisMonth, cand)
}

// InvalidateUser drops every cached verdict of userID.
func (c *Client) InvalidateUser(userID string) {
	c.cache.InvalidateUser(context.Background(), userID)
}

// =============================================================================
// LEAVES
// =============================================================================

// LeaveSubmission is a range or calendar request. A non-empty
// SelectedDates submits a calendar request.
type LeaveSubmission struct {
	UserID        string   `json:"userId"`
	UserName      string   `json:"userName"`
	UserEmail     string   `json:"userEmail,omitempty"`
	RollNumber    string   `json:"rollNumber,omitempty"`
	Stream        string   `json:"stream"`
	LeaveType     string   `json:"leaveType"`
	Reason        string   `json:"reason"`
	StartDate     string   `json:"startDate,omitempty"`
	EndDate       string   `json:"endDate,omitempty"`
	SelectedDates []string `json:"selectedDates,omitempty"`
}

// Warning is the quota note attached to an accepted submission.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Submitted is the result of SubmitLeave.
type Submitted struct {
	LeaveID string   `json:"leaveId"`
	Message string   `json:"message"`
	Warning *Warning `json:"warning,omitempty"`

	// QuotaUnchecked is set when the server could not check the quota.
	QuotaUnchecked bool `json:"-"`
}

// SubmitLeave submits s. Exceeding the quota does not fail the call; the
// result carries a Warning instead.
func (c *Client) SubmitLeave(ctx context.Context, s LeaveSubmission) (Submitted, error) {
	path := "/api/leaves"
	if len(s.SelectedDates) > 0 {
		path = "/api/leaves/calendar"
	}
	var resp struct {
		Submitted
		QuotaCheck *struct {
			ValidationFailed bool `json:"validationFailed"`
		} `json:"quotaCheck"`
	}
	if err := c.do(ctx, http.MethodPost, path, s, &resp); err != nil {
		return Submitted{}, err
	}
	c.InvalidateUser(s.UserID)

	out := resp.Submitted
	out.QuotaUnchecked = resp.QuotaCheck != nil && resp.QuotaCheck.ValidationFailed
	return out, nil
}

// WithdrawLeave deletes leaveID, which belongs to userID.
func (c *Client) WithdrawLeave(ctx context.Context, userID, leaveID string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/leaves/"+leaveID, nil, nil); err != nil {
		return err
	}
	c.InvalidateUser(userID)
	return nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do sends one JSON request with retries and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	attempt := 0
	return c.backoff.Retry(ctx, func(ctx context.Context) error {
		if attempt > 0 {
			c.logger.Info("retrying request",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt),
			)
		}
		attempt++

		err := c.once(ctx, method, path, payload, out)
		var he *HTTPError
		if errors.As(err, &he) && !he.Retryable() {
			return quota.Permanent(err)
		}
		return err
	})
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return quota.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.Token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}
	if resp.StatusCode >= 300 {
		return newHTTPError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return quota.Permanent(fmt.Errorf("decode %s %s: %w", method, path, err))
	}
	return nil
}
