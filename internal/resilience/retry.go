package resilience

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryPolicy bounds how a transient failure is retried (§4.8): bounded
// attempts, exponential backoff between them (doubling delay each
// attempt, capped, context-aware sleep), with jitter so a cluster of
// callers retrying the same failure doesn't resynchronize into another
// spike. The backoff surface here guards the single shared writer rather
// than an outbound network dial.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is used by NewSupervisor when no override is given.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 50 * time.Millisecond, MaxDelay: 2 * time.Second}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 50 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 2 * time.Second
	}
	return p
}

// Do calls attempt up to p.MaxAttempts times, sleeping an exponentially
// growing, jittered delay between attempts, stopping early if retryable
// returns false for the error attempt produced or if ctx is canceled. It
// returns the number of attempts made and the last error (nil on
// eventual success).
func (p RetryPolicy) Do(ctx context.Context, attempt func() error, retryable func(error) bool) (int, error) {
	p = p.withDefaults()
	delay := p.BaseDelay

	var lastErr error
	for n := 1; n <= p.MaxAttempts; n++ {
		lastErr = attempt()
		if lastErr == nil {
			return n, nil
		}
		if retryable != nil && !retryable(lastErr) {
			return n, lastErr
		}
		if n == p.MaxAttempts {
			break
		}

		sleep := delay + time.Duration(rand.Int64N(int64(delay)+1))
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case <-time.After(sleep):
		}

		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return p.MaxAttempts, lastErr
}
