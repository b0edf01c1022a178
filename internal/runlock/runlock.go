// Package runlock enforces the spec's "two runs must never execute
// concurrently" rule with a Redis-backed mutual exclusion lock, the way a
// caller (not the pipeline itself) is expected to serialize invocations.
package runlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a distributed lock keyed by a single Redis key. It does not
// retry or queue: a caller that fails to acquire should treat that as "a
// run is already in progress" and exit, not wait.
type Redis struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

// New constructs a Redis lock with a sensible default TTL when ttl is zero.
func New(client *redis.Client, key string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Redis{Client: client, Key: key, TTL: ttl}
}

// TryAcquire attempts to take the lock. ok is false (with a nil error) when
// another holder already has it. The returned release function clears the
// lock only if this call still owns it, so a run that overran its TTL can't
// release a newer run's lock out from under it.
func (r *Redis) TryAcquire(ctx context.Context) (release func(context.Context) error, ok bool, err error) {
	token, err := randomToken()
	if err != nil {
		return nil, false, fmt.Errorf("generating lock token: %w", err)
	}

	acquired, err := r.Client.SetNX(ctx, r.Key, token, r.TTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquiring run lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	release = func(ctx context.Context) error {
		current, err := r.Client.Get(ctx, r.Key).Result()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading run lock for release: %w", err)
		}
		if current != token {
			return nil
		}
		return r.Client.Del(ctx, r.Key).Err()
	}
	return release, true, nil
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
