package quota

import (
	"context"
	"errors"
	"time"

	"github.com/eleave/leave-engine/generic"
)

// Backoff retries an operation with exponentially growing pauses.
// Attempts counts retries after the first try, so Attempts=2 means at most
// three calls.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultBackoff is two retries starting at 200ms.
func DefaultBackoff() Backoff {
	return Backoff{Attempts: 2, Initial: 200 * time.Millisecond, Max: 2 * time.Second}
}

// Delay returns the pause before retry n (0-based).
func (b Backoff) Delay(n int) time.Duration {
	d := b.Initial
	for i := 0; i < n; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether Retry would give up on err immediately.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, context.Canceled) ||
		generic.IsClientError(err) ||
		generic.IsNotFound(err)
}

// Retry calls fn until it succeeds, returns a permanent error, the
// attempts are used up, or ctx ends. The last error is returned.
func (b Backoff) Retry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if IsPermanent(err) || attempt >= b.Attempts {
			return err
		}

		timer := time.NewTimer(b.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}
