package resilience

import (
	"sync"
	"time"
)

// Status is the aggregate health classification of one operation, derived
// from its recent error rate once enough samples have accumulated (§4.8).
type Status int

const (
	Unknown Status = iota
	Healthy
	Warning
	Critical
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// OperationStats is the running tally kept for one operation type.
type OperationStats struct {
	Total        uint64
	Success      uint64
	Fail         uint64
	TotalLatency time.Duration
	RecentErrors []string
}

func (s OperationStats) errorRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Fail) / float64(s.Total)
}

// AvgLatency is the mean observed duration across every recorded call.
func (s OperationStats) AvgLatency() time.Duration {
	if s.Total == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Total)
}

// Status classifies s once it has at least sampleFloor observations;
// below that it reports Unknown rather than an overconfident verdict from
// a handful of calls.
func (s OperationStats) Status(sampleFloor int) Status {
	if int(s.Total) < sampleFloor {
		return Unknown
	}
	rate := s.errorRate()
	switch {
	case rate >= 0.25:
		return Critical
	case rate >= 0.10:
		return Warning
	default:
		return Healthy
	}
}

const recentErrorsKept = 5

// Monitor aggregates per-operation call outcomes for health reporting
// (§4.8). It holds no reference to the command buffer or graph; the
// Supervisor feeds it results as calls complete.
type Monitor struct {
	sampleFloor int

	mu    sync.Mutex
	stats map[string]*OperationStats
}

// NewMonitor returns a Monitor that requires sampleFloor observations of
// an operation before reporting anything but Unknown for it. sampleFloor
// <= 0 falls back to 10, matching §4.8's "once sample size >= 10".
func NewMonitor(sampleFloor int) *Monitor {
	if sampleFloor <= 0 {
		sampleFloor = 10
	}
	return &Monitor{sampleFloor: sampleFloor, stats: make(map[string]*OperationStats)}
}

// Record feeds one call's outcome into operation's running stats.
func (m *Monitor) Record(operation string, latency time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.stats[operation]
	if !ok {
		s = &OperationStats{}
		m.stats[operation] = s
	}
	s.Total++
	s.TotalLatency += latency
	if err != nil {
		s.Fail++
		s.RecentErrors = append(s.RecentErrors, err.Error())
		if len(s.RecentErrors) > recentErrorsKept {
			s.RecentErrors = s.RecentErrors[len(s.RecentErrors)-recentErrorsKept:]
		}
	} else {
		s.Success++
	}
}

// Snapshot returns a copy of operation's stats and whether any have been
// recorded yet.
func (m *Monitor) Snapshot(operation string) (OperationStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[operation]
	if !ok {
		return OperationStats{}, false
	}
	return *s, true
}

// All returns a copy of every operation's stats, keyed by operation name.
func (m *Monitor) All() map[string]OperationStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]OperationStats, len(m.stats))
	for op, s := range m.stats {
		out[op] = *s
	}
	return out
}

// Overall reports the worst Status across every tracked operation, the
// way a single process-wide health check needs to answer "is the service
// healthy" without a caller having to poll every operation individually.
func (m *Monitor) Overall() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	worst := Unknown
	seenAny := false
	for _, s := range m.stats {
		st := s.Status(m.sampleFloor)
		seenAny = true
		if st > worst {
			worst = st
		}
	}
	if !seenAny {
		return Unknown
	}
	return worst
}
