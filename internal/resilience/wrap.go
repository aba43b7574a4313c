package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"acs/internal/apierr"
	"acs/internal/command"
	"acs/internal/repository"
)

// Config bundles the tunables spec.md §6 exposes for the resilience layer.
type Config struct {
	Breaker     BreakerConfig
	Retry       RetryPolicy
	Rate        RatePolicy
	DLQSize     int
	SampleFloor int
}

// Supervisor wires a per-operation circuit breaker, retry policy, retry
// rate limiter, dead letter queue, and health monitor around the command
// buffer's handler dispatch (§4.8). It is installed via command.Buffer.Use
// so C5's handlers stay ignorant of all of it.
type Supervisor struct {
	breakers *BreakerManager
	retry    RetryPolicy
	limiters *limiterManager
	dlq      *DeadLetterQueue
	health   *Monitor
	metrics  *Metrics
}

// NewSupervisor builds a Supervisor from cfg, registering its Prometheus
// collectors (and the dead-letter queue's gauges) on reg.
func NewSupervisor(cfg Config, reg *prometheus.Registry) *Supervisor {
	dlq := NewDeadLetterQueue(cfg.DLQSize)
	metrics := NewMetrics(reg)
	RegisterDeadLetterGauges(reg, dlq)
	retry := cfg.Retry
	if retry == (RetryPolicy{}) {
		retry = DefaultRetryPolicy()
	}
	return &Supervisor{
		breakers: NewBreakerManager(cfg.Breaker),
		retry:    retry,
		limiters: newLimiterManager(cfg.Rate),
		dlq:      dlq,
		health:   NewMonitor(cfg.SampleFloor),
		metrics:  metrics,
	}
}

// DeadLetterQueue exposes the queue for an operator tool to list/requeue.
func (s *Supervisor) DeadLetterQueue() *DeadLetterQueue { return s.dlq }

// Health exposes the monitor for a health endpoint / `acsctl health`.
func (s *Supervisor) Health() *Monitor { return s.health }

// isRetryable reports whether err is the kind of transient failure §4.8
// says to retry: persistence failures (apierr.ErrPersistenceFailure and the
// repository commit/write sentinels). An open circuit breaker is not
// retried: Wrap checks the breaker once, before the retry loop, and returns
// apierr.ErrCircuitOpen to the caller at once. Precondition failures (NotFound,
// Conflict, InvalidArgument, CycleDetected, DependenciesExist) and
// IntegrityViolation are never retried — retrying them would just
// reproduce the same deterministic rejection (§7's propagation policy).
func isRetryable(err error) bool {
	return errors.Is(err, apierr.ErrPersistenceFailure) ||
		errors.Is(err, repository.ErrCommitFailed) ||
		errors.Is(err, repository.ErrWriteFailed)
}

// Wrap returns a command.Handler that runs h under kind's circuit breaker
// and retry policy, recording the outcome into the health monitor and
// Prometheus metrics, and dead-lettering the command if every retry
// attempt is exhausted. Install it once via buf.Use(sup.Wrap) so it
// applies uniformly to every registered Kind.
func (s *Supervisor) Wrap(kind command.Kind, h command.Handler) command.Handler {
	return func(ctx context.Context, cmd *command.Command) (any, error) {
		operation := string(kind)
		breaker := s.breakers.Get(operation)

		if !breaker.Allow() {
			s.health.Record(operation, 0, apierr.ErrCircuitOpen)
			s.metrics.observeCommand(operation, "circuit_open", 0)
			s.metrics.observeBreaker(operation, breaker.Snapshot())
			return nil, apierr.ErrCircuitOpen
		}

		start := time.Now()
		var value any
		attempt := 0
		attempts, err := s.retry.Do(ctx, func() error {
			attempt++
			if attempt > 1 {
				if werr := s.limiters.waitRetry(ctx, operation); werr != nil {
					return werr
				}
			}
			v, e := h(ctx, cmd)
			value = v
			return e
		}, isRetryable)
		latency := time.Since(start)

		for i := 1; i < attempts; i++ {
			s.metrics.observeRetry(operation)
		}

		breaker.RecordResult(err == nil)
		s.metrics.observeBreaker(operation, breaker.Snapshot())
		s.health.Record(operation, latency, err)

		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		s.metrics.observeCommand(operation, outcome, latency)

		if err != nil && isRetryable(err) && attempts >= s.retryPolicyMaxAttempts() {
			s.dlq.Push(DeadLetterEntry{
				Command:  *cmd,
				Reason:   err.Error(),
				Attempts: attempts,
				FailedAt: time.Now(),
			})
			return nil, apierr.New(apierr.KindPersistenceFailure, "command exhausted its retry budget and was dead-lettered", err)
		}
		return value, err
	}
}

func (s *Supervisor) retryPolicyMaxAttempts() int {
	p := s.retry.withDefaults()
	return p.MaxAttempts
}
