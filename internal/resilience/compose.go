package resilience

import (
	"context"
	"time"
)

// Endpoint composes circuit breaker, bulkhead, and timeout around a call in
// the mandated order: circuit_breaker(bulkhead(timeout(fn))).
type Endpoint struct {
	Name    string
	Breaker *CircuitBreaker
	Bulk    *Bulkhead
	TO      *Timeout
}

// NewEndpoint builds the three primitives for name from the given configs.
func NewEndpoint(name string, cb CircuitBreakerConfig, bh BulkheadConfig, timeout time.Duration) *Endpoint {
	return &Endpoint{
		Name:    name,
		Breaker: NewCircuitBreaker(name, cb),
		Bulk:    NewBulkhead(name, bh),
		TO:      NewTimeout(name, timeout),
	}
}

// Execute runs fn through circuit_breaker(bulkhead(timeout(fn))).
func (e *Endpoint) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return e.Breaker.Execute(func() error {
		return e.Bulk.Execute(ctx, func(ctx context.Context) error {
			return e.TO.Execute(ctx, fn)
		})
	})
}
