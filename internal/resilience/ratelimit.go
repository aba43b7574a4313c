package resilience

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RatePolicy bounds how fast one operation may be retried, on top of the
// backoff RetryPolicy already imposes between individual attempts. It
// exists to keep a single hot operation's retries from starving the
// command buffer's single drain goroutine when many callers are retrying
// the same failing dependency at once.
type RatePolicy struct {
	RetriesPerSecond float64 // default 20
	Burst            int     // default 5
}

func (p RatePolicy) withDefaults() RatePolicy {
	if p.RetriesPerSecond <= 0 {
		p.RetriesPerSecond = 20
	}
	if p.Burst <= 0 {
		p.Burst = 5
	}
	return p
}

// limiterManager lazily creates and hands out one rate.Limiter per
// operation, mirroring BreakerManager's per-operation lazy creation.
type limiterManager struct {
	policy RatePolicy

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newLimiterManager(policy RatePolicy) *limiterManager {
	return &limiterManager{policy: policy.withDefaults(), limiters: make(map[string]*rate.Limiter)}
}

func (m *limiterManager) get(operation string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.limiters[operation]
	if !ok {
		l = rate.NewLimiter(rate.Limit(m.policy.RetriesPerSecond), m.policy.Burst)
		m.limiters[operation] = l
	}
	return l
}

// waitRetry blocks until operation's limiter admits the next retry, or ctx
// is canceled first. The first attempt of a command is never paced here;
// only the second and later attempts draw from the bucket, since pacing a
// command's very first execution would just be added latency with nothing
// to protect against yet.
func (m *limiterManager) waitRetry(ctx context.Context, operation string) error {
	return m.get(operation).Wait(ctx)
}
