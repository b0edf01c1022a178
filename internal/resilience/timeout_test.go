package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/wisbric/skywatch/internal/errs"
)

func TestTimeoutExpires(t *testing.T) {
	to := NewTimeout("test", 10*time.Millisecond)

	err := to.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if !errs.Is(err, errs.TransientUpstream) {
		t.Fatalf("err = %v, want TransientUpstream", err)
	}
}

func TestTimeoutSucceedsWithinDeadline(t *testing.T) {
	to := NewTimeout("test", 50*time.Millisecond)

	err := to.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
}
