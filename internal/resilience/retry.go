package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/wisbric/skywatch/internal/errs"
)

// RetryConfig configures the exponential backoff retry wrapped around a
// feed client call, per spec.md §4.1: multiplier 1, 4s-10s interval, at
// most 3 attempts.
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxTries        uint
}

// DefaultRetryConfig matches the spec's numeric defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 4 * time.Second,
		MaxInterval:     10 * time.Second,
		MaxTries:        3,
	}
}

// Retry runs op, retrying on errs.TransientUpstream and errs.RateLimited
// with exponential backoff. Any other error kind is treated as permanent
// and returned immediately. A RateLimited error's RetryAfter, when set,
// overrides the computed backoff interval for that attempt.
func Retry[T any](ctx context.Context, cfg RetryConfig, op func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.MaxInterval = cfg.MaxInterval
	bo.Multiplier = 1
	bo.RandomizationFactor = 0

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err == nil {
			return v, nil
		}
		if !errs.Retryable(err) {
			return v, backoff.Permanent(err)
		}
		if errs.KindOf(err) == errs.RateLimited {
			if e, ok := err.(*errs.Error); ok && e.RetryAfter > 0 {
				return v, backoff.RetryAfter(e.RetryAfter)
			}
		}
		return v, err
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(cfg.MaxTries))
}
