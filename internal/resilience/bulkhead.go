package resilience

import (
	"context"

	"github.com/wisbric/skywatch/internal/errs"
	"github.com/wisbric/skywatch/internal/telemetry"
)

// BulkheadConfig bounds concurrency and queuing for one endpoint.
type BulkheadConfig struct {
	MaxConcurrent int
	QueueSize     int
}

// Bulkhead isolates an endpoint's concurrency from the rest of the system
// with a bounded semaphore plus a bounded waiting queue. Acquire fails with
// errs.BulkheadFull once both are saturated, per spec.md §4.1.
type Bulkhead struct {
	name  string
	sem   chan struct{}
	queue chan struct{}
}

// NewBulkhead creates a bulkhead with the given concurrency and queue
// limits. name identifies the endpoint for error messages.
func NewBulkhead(name string, cfg BulkheadConfig) *Bulkhead {
	return &Bulkhead{
		name:  name,
		sem:   make(chan struct{}, cfg.MaxConcurrent),
		queue: make(chan struct{}, cfg.QueueSize),
	}
}

// Execute runs fn once a concurrency slot is available, waiting in the
// queue if necessary. It returns errs.BulkheadFull immediately if the queue
// is also full, and aborts the wait if ctx is cancelled.
func (b *Bulkhead) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case b.sem <- struct{}{}:
	default:
		select {
		case b.queue <- struct{}{}:
		default:
			telemetry.BulkheadRejectedTotal.WithLabelValues(b.name).Inc()
			return errs.BulkheadFullf("bulkhead queue full for " + b.name)
		}
		// The queue slot is held only while waiting for a concurrency slot.
		select {
		case b.sem <- struct{}{}:
			<-b.queue
		case <-ctx.Done():
			<-b.queue
			return errs.Transient("waiting for bulkhead slot", ctx.Err())
		}
	}
	defer func() { <-b.sem }()

	return fn(ctx)
}
