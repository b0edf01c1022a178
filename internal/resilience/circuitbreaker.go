// Package resilience implements the three composable wrappers applied to
// every external feed call — circuit breaker, bulkhead, timeout — plus
// retry with backoff, as long-lived value objects with per-instance state
// rather than ambient singletons (Design Notes §9: "decorator stacks for
// resilience" → "explicit composition ... primitive state lives in
// long-lived value objects per endpoint").
package resilience

import (
	"sync"
	"time"

	"github.com/wisbric/skywatch/internal/errs"
	"github.com/wisbric/skywatch/internal/telemetry"
)

// State is one of the three circuit breaker states.
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

// CircuitBreakerConfig configures failure-counting and recovery.
type CircuitBreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// DefaultCircuitBreakerConfig matches spec: 3 consecutive failures trips
// the breaker, with a 60s cooldown before a probe is allowed through.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{FailureThreshold: 3, RecoveryTimeout: 60 * time.Second}
}

// CircuitBreaker prevents cascading failures by rejecting calls to a
// chronically failing endpoint until a cooldown period elapses. All state
// transitions happen under a single mutex (single-writer).
type CircuitBreaker struct {
	name   string
	cfg    CircuitBreakerConfig
	mu     sync.Mutex
	state  State
	fails  int
	lastAt time.Time
}

// NewCircuitBreaker creates a breaker in the Closed state. name identifies
// the endpoint for logging/metrics.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	telemetry.CircuitBreakerStateGauge.WithLabelValues(name).Set(float64(Closed))
	return &CircuitBreaker{name: name, cfg: cfg, state: Closed}
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute runs fn through the breaker. When Open and the recovery timeout
// hasn't elapsed, it returns errs.CircuitOpen without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return errs.CircuitOpenf("circuit breaker open for " + cb.name)
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.lastAt = time.Now()
		if cb.state == HalfOpen {
			// A probe failure reopens immediately, regardless of the
			// consecutive-failure threshold.
			cb.setState(Open)
			cb.fails = cb.cfg.FailureThreshold
			return err
		}
		cb.fails++
		if cb.fails >= cb.cfg.FailureThreshold {
			cb.setState(Open)
		}
		return err
	}

	cb.fails = 0
	cb.setState(Closed)
	return nil
}

// setState updates cb.state and the per-endpoint gauge together. Callers
// must hold cb.mu.
func (cb *CircuitBreaker) setState(s State) {
	cb.state = s
	telemetry.CircuitBreakerStateGauge.WithLabelValues(cb.name).Set(float64(s))
}

// allow transitions Open -> HalfOpen once the recovery timeout has elapsed
// and reports whether the call may proceed.
func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Closed, HalfOpen:
		return true
	case Open:
		if time.Since(cb.lastAt) >= cb.cfg.RecoveryTimeout {
			cb.setState(HalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}
