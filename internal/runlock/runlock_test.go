package runlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("starting miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestTryAcquireSucceedsWhenUnlocked(t *testing.T) {
	ctx := context.Background()
	lock := New(newTestClient(t), "skywatch:ingestion", time.Minute)

	release, ok, err := lock.TryAcquire(ctx)
	if err != nil {
		t.Fatalf("TryAcquire error: %v", err)
	}
	if !ok {
		t.Fatal("expected lock to be acquired")
	}
	if release == nil {
		t.Fatal("expected a release function")
	}
}

func TestTryAcquireFailsWhenAlreadyHeld(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	lockA := New(client, "skywatch:ingestion", time.Minute)
	lockB := New(client, "skywatch:ingestion", time.Minute)

	_, ok, err := lockA.TryAcquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire failed: ok=%v err=%v", ok, err)
	}

	_, ok, err = lockB.TryAcquire(ctx)
	if err != nil {
		t.Fatalf("second TryAcquire error: %v", err)
	}
	if ok {
		t.Fatal("expected second acquire to fail while first holds the lock")
	}
}

func TestReleaseAllowsReacquisition(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	lock := New(client, "skywatch:ingestion", time.Minute)

	release, ok, err := lock.TryAcquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire failed: ok=%v err=%v", ok, err)
	}
	if err := release(ctx); err != nil {
		t.Fatalf("release error: %v", err)
	}

	_, ok, err = lock.TryAcquire(ctx)
	if err != nil {
		t.Fatalf("reacquire error: %v", err)
	}
	if !ok {
		t.Fatal("expected reacquisition to succeed after release")
	}
}

func TestReleaseIsNoopWhenTokenDoesNotMatch(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	lock := New(client, "skywatch:ingestion", time.Minute)

	release, ok, err := lock.TryAcquire(ctx)
	if err != nil || !ok {
		t.Fatalf("acquire failed: ok=%v err=%v", ok, err)
	}

	// Simulate another holder overwriting the key after this run's TTL
	// expired and a new run took over.
	if err := client.Set(ctx, "skywatch:ingestion", "someone-else", 0).Err(); err != nil {
		t.Fatalf("overwriting lock key: %v", err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release error: %v", err)
	}

	val, err := client.Get(ctx, "skywatch:ingestion").Result()
	if err != nil {
		t.Fatalf("reading lock key: %v", err)
	}
	if val != "someone-else" {
		t.Errorf("release overwrote another holder's lock: got %q", val)
	}
}
