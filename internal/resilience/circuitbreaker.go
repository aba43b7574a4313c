// Package resilience implements the Resilience Layer (C8, §4.8): a
// per-operation circuit breaker, retry with exponential backoff and
// jitter, a dead-letter queue for exhausted retries, and a health monitor
// aggregating per-operation statistics. Supervisor ties all four together
// behind a command.Buffer middleware so the command handlers (C5) never
// need to know any of this exists.
package resilience

import (
	"sync"
	"time"
)

// State is one of a Breaker's three states (§4.8).
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures one Breaker. Zero values fall back to the
// defaults named in §4.8.
type BreakerConfig struct {
	WindowSize   int           // sample window; default 10
	OpenAt       float64       // error rate that trips the breaker; default 0.25
	Cooldown     time.Duration // Open duration before a half-open probe; default 30s
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.WindowSize <= 0 {
		c.WindowSize = 10
	}
	if c.OpenAt <= 0 {
		c.OpenAt = 0.25
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	return c
}

// Breaker is a sliding-window circuit breaker for one operation type.
// Closed lets every call through while tracking a ring buffer of recent
// outcomes; once the window fills and its error rate reaches OpenAt, the
// breaker opens and rejects calls until Cooldown elapses, at which point a
// single HalfOpen probe decides whether to close (on success) or reopen
// (on failure).
type Breaker struct {
	cfg BreakerConfig

	mu       sync.Mutex
	state    State
	samples  []bool // true = success
	pos      int
	filled   int
	openedAt time.Time
	probing  bool
}

// NewBreaker returns a Closed Breaker configured by cfg.
func NewBreaker(cfg BreakerConfig) *Breaker {
	cfg = cfg.withDefaults()
	return &Breaker{
		cfg:     cfg,
		samples: make([]bool, cfg.WindowSize),
	}
}

// Allow reports whether a call may proceed, transitioning Open to HalfOpen
// once the cooldown has elapsed. Only one HalfOpen probe is let through at
// a time; concurrent callers are rejected until the probe resolves via
// RecordResult.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case Open:
		if time.Since(b.openedAt) < b.cfg.Cooldown {
			return false
		}
		b.state = HalfOpen
		b.probing = true
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return false
	}
}

// RecordResult feeds one call outcome back into the breaker.
func (b *Breaker) RecordResult(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.probing = false
		if success {
			b.state = Closed
			b.resetWindowLocked()
		} else {
			b.state = Open
			b.openedAt = time.Now()
		}
		return
	case Open:
		// A result arriving after the window reopened (a slow in-flight
		// call); nothing to do but keep the breaker open.
		return
	}

	b.samples[b.pos] = success
	b.pos = (b.pos + 1) % len(b.samples)
	if b.filled < len(b.samples) {
		b.filled++
	}

	if b.filled < len(b.samples) {
		return
	}
	errors := 0
	for _, s := range b.samples {
		if !s {
			errors++
		}
	}
	if float64(errors)/float64(len(b.samples)) >= b.cfg.OpenAt {
		b.state = Open
		b.openedAt = time.Now()
	}
}

func (b *Breaker) resetWindowLocked() {
	b.pos = 0
	b.filled = 0
	for i := range b.samples {
		b.samples[i] = false
	}
}

// Snapshot reports the breaker's current state, for health/metrics export.
func (b *Breaker) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// BreakerManager lazily creates and hands out one Breaker per operation
// name, all sharing the same BreakerConfig.
type BreakerManager struct {
	cfg BreakerConfig

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewBreakerManager returns a manager that creates breakers with cfg.
func NewBreakerManager(cfg BreakerConfig) *BreakerManager {
	return &BreakerManager{cfg: cfg, breakers: make(map[string]*Breaker)}
}

// Get returns the Breaker for operation, creating it on first use.
func (m *BreakerManager) Get(operation string) *Breaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.breakers[operation]
	if !ok {
		b = NewBreaker(m.cfg)
		m.breakers[operation] = b
	}
	return b
}

// Snapshot returns the current state of every breaker created so far,
// keyed by operation name, for health/metrics export.
func (m *BreakerManager) Snapshot() map[string]State {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]State, len(m.breakers))
	for op, b := range m.breakers {
		out[op] = b.Snapshot()
	}
	return out
}
