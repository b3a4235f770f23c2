// Package ratelimit enforces a per-provider minimum interval between
// outbound calls and the literal per-provider backoff schedule on 429s.
//
// Unlike a request-counting quota (requests-per-second/minute/day), this is
// a single "next allowed timestamp" per key, atomically read-and-advanced
// via a Redis Lua script so multiple process instances serialize correctly
// against the same provider.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-sync/internal/pkg/logger"
)

// Key identifies one rate-limited channel. Provider B has two distinct
// spacing regimes (list vs. stats endpoints) that must not share a clock.
type Key string

const (
	KeyProviderA       Key = "provider_a"
	KeyProviderBList   Key = "provider_b:list"
	KeyProviderBStats  Key = "provider_b:stats"
)

// acquireScript atomically reads the "next allowed" timestamp for KEYS[1],
// and if now (ARGV[1], in milliseconds) has reached it, advances it by
// ARGV[2] (the spacing in milliseconds) and returns 0 (allowed). Otherwise
// it returns the number of milliseconds the caller must still wait.
var acquireScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local spacing = tonumber(ARGV[2])
local nextAllowed = tonumber(redis.call("GET", key))
if nextAllowed == nil or now >= nextAllowed then
	redis.call("SET", key, now + spacing, "PX", spacing * 20)
	return 0
end
return nextAllowed - now
`)

// Limiter enforces minimum spacing between outbound calls to a provider,
// keyed by Key, backed by Redis so spacing is respected process-wide.
type Limiter struct {
	client *redis.Client
}

// New creates a Limiter backed by the given Redis client.
func New(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Spacing returns the configured minimum interval between calls for a key,
// Provider A's spacing is ~250ms; Provider B's list calls ~3s, stats calls ~10.5s.
func Spacing(key Key) time.Duration {
	switch key {
	case KeyProviderA:
		return 250 * time.Millisecond
	case KeyProviderBList:
		return 3 * time.Second
	case KeyProviderBStats:
		return 10500 * time.Millisecond
	default:
		return time.Second
	}
}

// BackoffDelay returns the 429 backoff delay for the given attempt number
// (1-based) on the given key's provider: attempt*10s for
// Provider B, attempt*2s for Provider A.
func BackoffDelay(key Key, attempt int) time.Duration {
	if key == KeyProviderA {
		return time.Duration(attempt) * 2 * time.Second
	}
	return time.Duration(attempt) * 10 * time.Second
}

// Wait blocks until a slot for key is available, honoring ctx cancellation.
// If ctx's deadline expires while waiting, the call is aborted without
// consuming a slot (the Lua script only advances the shared clock when a
// slot is free; otherwise it returns the remaining wait and leaves the
// clock unchanged, so a cancelled wait never mutates it).
func (l *Limiter) Wait(ctx context.Context, key Key) error {
	spacing := Spacing(key)
	for {
		waitMs, err := l.tryAcquire(ctx, key, spacing)
		if err != nil {
			return err
		}
		if waitMs <= 0 {
			return nil
		}
		timer := time.NewTimer(time.Duration(waitMs) * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Limiter) tryAcquire(ctx context.Context, key Key, spacing time.Duration) (int64, error) {
	nowMs := time.Now().UnixMilli()
	res, err := acquireScript.Run(ctx, l.client, []string{redisKey(key)}, nowMs, spacing.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("ratelimit: acquire %s: %w", key, err)
	}
	if res > 0 {
		logger.Debug("ratelimit.wait", "key", string(key), "wait_ms", res)
	}
	return res, nil
}

func redisKey(key Key) string {
	return "ratelimit:next:" + string(key)
}
