package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/wisbric/skywatch/internal/errs"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 3, RecoveryTimeout: time.Minute})
	fail := errors.New("boom")

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return fail }); err != fail {
			t.Fatalf("attempt %d: err = %v, want %v", i, err, fail)
		}
		if cb.State() != Closed {
			t.Fatalf("attempt %d: state = %v, want Closed (threshold not yet reached)", i, cb.State())
		}
	}

	// Third consecutive failure trips the breaker.
	if err := cb.Execute(func() error { return fail }); err != fail {
		t.Fatalf("third attempt: err = %v, want %v", err, fail)
	}
	if cb.State() != Open {
		t.Fatalf("state = %v, want Open", cb.State())
	}

	// Further calls are rejected without invoking fn.
	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if called {
		t.Fatal("fn was called while circuit is open")
	}
	if !errs.Is(err, errs.CircuitOpen) {
		t.Fatalf("err = %v, want CircuitOpen", err)
	}
}

func TestCircuitBreakerRecoversAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond})

	_ = cb.Execute(func() error { return errors.New("boom") })
	if cb.State() != Open {
		t.Fatalf("state = %v, want Open", cb.State())
	}

	time.Sleep(15 * time.Millisecond)

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !called {
		t.Fatal("half-open probe should have called fn")
	}
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if cb.State() != Closed {
		t.Fatalf("state = %v, want Closed after successful probe", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 5, RecoveryTimeout: 10 * time.Millisecond})

	// Force into Open with a single manual push through many failures is
	// unnecessary; trip directly via low threshold behavior using a fresh
	// breaker configured with threshold 1 for clarity.
	cb = NewCircuitBreaker("test2", CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond})
	_ = cb.Execute(func() error { return errors.New("boom") })
	time.Sleep(15 * time.Millisecond)

	err := cb.Execute(func() error { return errors.New("still broken") })
	if err == nil {
		t.Fatal("expected probe failure to propagate")
	}
	if cb.State() != Open {
		t.Fatalf("state = %v, want Open after failed half-open probe", cb.State())
	}
}
