package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/wisbric/skywatch/internal/errs"
)

// Timeout wraps a call with a deadline; on expiration the call is treated
// as cancelled and reported as a timeout error.
type Timeout struct {
	name string
	d    time.Duration
}

// NewTimeout creates a Timeout for the named endpoint with duration d.
func NewTimeout(name string, d time.Duration) *Timeout {
	return &Timeout{name: name, d: d}
}

// Execute runs fn with a child context bounded by the configured duration.
func (t *Timeout) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errs.Transient("call to "+t.name+" timed out after "+t.d.String(), ctx.Err())
		}
		return errs.Transient("call to "+t.name+" cancelled", ctx.Err())
	}
}
