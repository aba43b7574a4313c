package resilience

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports the resilience layer's internal state as Prometheus
// gauges/counters/histograms so cmd/acsd's metrics endpoint (promhttp)
// can serve them alongside the standard process/Go collectors.
type Metrics struct {
	commandLatency *prometheus.HistogramVec
	commandTotal   *prometheus.CounterVec
	retryTotal     *prometheus.CounterVec
	breakerState   *prometheus.GaugeVec
}

// NewMetrics registers the resilience layer's collectors on reg and
// returns a Metrics handle for the Supervisor to update. reg is typically
// a dedicated prometheus.Registry so acsd's metrics endpoint doesn't also
// expose the default global registry's collectors.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		commandLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "acs",
			Subsystem: "command",
			Name:      "duration_seconds",
			Help:      "Command handler execution latency by operation and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		commandTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acs",
			Subsystem: "command",
			Name:      "total",
			Help:      "Commands executed by operation and outcome.",
		}, []string{"operation", "outcome"}),
		retryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acs",
			Subsystem: "resilience",
			Name:      "retry_total",
			Help:      "Retry attempts issued by operation.",
		}, []string{"operation"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "acs",
			Subsystem: "resilience",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state by operation (0=closed, 1=half_open, 2=open).",
		}, []string{"operation"}),
	}
	reg.MustRegister(m.commandLatency, m.commandTotal, m.retryTotal, m.breakerState)
	return m
}

// RegisterDeadLetterGauges exposes dlq's depth and drop count as
// GaugeFuncs on reg, read lazily on scrape rather than pushed on every
// Push/Pop.
func RegisterDeadLetterGauges(reg *prometheus.Registry, dlq *DeadLetterQueue) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "acs",
			Subsystem: "resilience",
			Name:      "dead_letter_depth",
			Help:      "Entries currently queued in the dead-letter queue.",
		}, func() float64 { return float64(dlq.Len()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "acs",
			Subsystem: "resilience",
			Name:      "dead_letter_dropped_total",
			Help:      "Entries evicted from the dead-letter queue for capacity.",
		}, func() float64 { return float64(dlq.Dropped()) }),
	)
}

func (m *Metrics) observeCommand(operation, outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.commandLatency.WithLabelValues(operation, outcome).Observe(latency.Seconds())
	m.commandTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) observeRetry(operation string) {
	if m == nil {
		return
	}
	m.retryTotal.WithLabelValues(operation).Inc()
}

func breakerStateValue(s State) float64 {
	switch s {
	case HalfOpen:
		return 1
	case Open:
		return 2
	default:
		return 0
	}
}

func (m *Metrics) observeBreaker(operation string, s State) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(operation).Set(breakerStateValue(s))
}
