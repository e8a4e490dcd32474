package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a Limiter backed by Redis, for a multi-process backend
// deployment where the intent mediator's rate state must be shared across
// HTTP server instances.
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisLimiter wraps an existing client.
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, now: time.Now}
}

func acceptedKey(sessionID string) string { return fmt.Sprintf("ratelimit:accepted:%s", sessionID) }
func dedupKey(sessionID string) string    { return fmt.Sprintf("ratelimit:dedup:%s", sessionID) }

// Allow uses a Redis sorted set keyed by session, scored by acceptance
// time: trim anything older than Window, check the most recent member
// against MinGap, then admit if under WindowMax.
func (r *RedisLimiter) Allow(ctx context.Context, sessionID string) (bool, error) {
	key := acceptedKey(sessionID)
	now := r.now()
	cutoffMillis := now.Add(-Window).UnixMilli()

	// Scores are Unix milliseconds, not nanoseconds: float64 only has 53
	// bits of integer precision, and millisecond granularity is well
	// within that for any realistic timestamp, while the 600ms/12s
	// windows this limiter enforces never need finer resolution.
	if err := r.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoffMillis, 10)).Err(); err != nil {
		return false, fmt.Errorf("ratelimit: prune window: %w", err)
	}

	last, err := r.client.ZRevRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: read last accepted: %w", err)
	}
	if len(last) == 1 {
		lastAt := time.UnixMilli(int64(last[0].Score))
		if now.Sub(lastAt) < MinGap {
			return false, nil
		}
	}

	count, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: count window: %w", err)
	}
	if count >= WindowMax {
		return false, nil
	}

	nowMillis := now.UnixMilli()
	member := strconv.FormatInt(nowMillis, 10)
	if err := r.client.ZAdd(ctx, key, redis.Z{Score: float64(nowMillis), Member: member}).Err(); err != nil {
		return false, fmt.Errorf("ratelimit: record acceptance: %w", err)
	}
	if err := r.client.Expire(ctx, key, Window).Err(); err != nil {
		return false, fmt.Errorf("ratelimit: set window ttl: %w", err)
	}
	return true, nil
}

// Dedup stores the fingerprint of the last accepted intent per session
// with a DedupWindow TTL; a GET-then-SET pair is sufficient here since a
// single session's turns are processed sequentially (spec.md §5), so
// there is no concurrent-writer race to guard against.
func (r *RedisLimiter) Dedup(ctx context.Context, sessionID, fingerprint string) (bool, error) {
	key := dedupKey(sessionID)
	prev, err := r.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("ratelimit: read dedup marker: %w", err)
	}
	isDup := err == nil && prev == fingerprint

	if !isDup {
		if err := r.client.Set(ctx, key, fingerprint, DedupWindow).Err(); err != nil {
			return false, fmt.Errorf("ratelimit: write dedup marker: %w", err)
		}
	}
	return isDup, nil
}
