package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryLimiterEnforcesMinGap(t *testing.T) {
	now := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	lim := NewMemoryLimiter()
	lim.now = func() time.Time { return now }

	ok, err := lim.Allow(context.Background(), "s1")
	if err != nil || !ok {
		t.Fatalf("first Allow = %v, %v, want true, nil", ok, err)
	}

	now = now.Add(300 * time.Millisecond)
	ok, err = lim.Allow(context.Background(), "s1")
	if err != nil || ok {
		t.Fatalf("Allow within MinGap = %v, %v, want false, nil", ok, err)
	}

	now = now.Add(400 * time.Millisecond)
	ok, err = lim.Allow(context.Background(), "s1")
	if err != nil || !ok {
		t.Fatalf("Allow after MinGap = %v, %v, want true, nil", ok, err)
	}
}

func TestMemoryLimiterEnforcesWindowMax(t *testing.T) {
	now := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	lim := NewMemoryLimiter()
	lim.now = func() time.Time { return now }

	for i := 0; i < WindowMax; i++ {
		ok, err := lim.Allow(context.Background(), "s1")
		if err != nil || !ok {
			t.Fatalf("accept %d: got %v, %v, want true, nil", i, ok, err)
		}
		now = now.Add(MinGap)
	}

	ok, err := lim.Allow(context.Background(), "s1")
	if err != nil || ok {
		t.Fatalf("7th accept within window = %v, %v, want false, nil", ok, err)
	}
}

func TestMemoryLimiterWindowPruneAllowsAgain(t *testing.T) {
	now := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	lim := NewMemoryLimiter()
	lim.now = func() time.Time { return now }

	for i := 0; i < WindowMax; i++ {
		if ok, err := lim.Allow(context.Background(), "s1"); err != nil || !ok {
			t.Fatalf("accept %d failed: %v, %v", i, ok, err)
		}
		now = now.Add(MinGap)
	}

	now = now.Add(Window)
	ok, err := lim.Allow(context.Background(), "s1")
	if err != nil || !ok {
		t.Fatalf("Allow after window prune = %v, %v, want true, nil", ok, err)
	}
}

func TestMemoryLimiterDedupCollapsesWithinWindow(t *testing.T) {
	now := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	lim := NewMemoryLimiter()
	lim.now = func() time.Time { return now }

	dup, err := lim.Dedup(context.Background(), "s1", "fp-1")
	if err != nil || dup {
		t.Fatalf("first Dedup = %v, %v, want false, nil", dup, err)
	}

	now = now.Add(500 * time.Millisecond)
	dup, err = lim.Dedup(context.Background(), "s1", "fp-1")
	if err != nil || !dup {
		t.Fatalf("repeat within DedupWindow = %v, %v, want true, nil", dup, err)
	}

	now = now.Add(400 * time.Millisecond)
	dup, err = lim.Dedup(context.Background(), "s1", "fp-1")
	if err != nil || dup {
		t.Fatalf("repeat after DedupWindow = %v, %v, want false, nil", dup, err)
	}
}

func TestMemoryLimiterDedupDifferentFingerprintNotDup(t *testing.T) {
	now := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	lim := NewMemoryLimiter()
	lim.now = func() time.Time { return now }

	if _, err := lim.Dedup(context.Background(), "s1", "fp-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dup, err := lim.Dedup(context.Background(), "s1", "fp-2")
	if err != nil || dup {
		t.Fatalf("different fingerprint = %v, %v, want false, nil", dup, err)
	}
}

func newTestRedisLimiter(t *testing.T) *RedisLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client)
}

func TestRedisLimiterEnforcesMinGapAndWindowMax(t *testing.T) {
	lim := newTestRedisLimiter(t)
	now := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	lim.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := lim.Allow(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("first Allow = %v, %v, want true, nil", ok, err)
	}

	now = now.Add(300 * time.Millisecond)
	ok, err = lim.Allow(ctx, "s1")
	if err != nil || ok {
		t.Fatalf("Allow within MinGap = %v, %v, want false, nil", ok, err)
	}

	for i := 0; i < WindowMax-1; i++ {
		now = now.Add(MinGap)
		ok, err = lim.Allow(ctx, "s1")
		if err != nil || !ok {
			t.Fatalf("accept %d: got %v, %v, want true, nil", i, ok, err)
		}
	}

	now = now.Add(MinGap)
	ok, err = lim.Allow(ctx, "s1")
	if err != nil || ok {
		t.Fatalf("accept beyond WindowMax = %v, %v, want false, nil", ok, err)
	}
}

func TestRedisLimiterDedup(t *testing.T) {
	lim := newTestRedisLimiter(t)
	now := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	lim.now = func() time.Time { return now }
	ctx := context.Background()

	dup, err := lim.Dedup(ctx, "s1", "fp-1")
	if err != nil || dup {
		t.Fatalf("first Dedup = %v, %v, want false, nil", dup, err)
	}

	now = now.Add(500 * time.Millisecond)
	dup, err = lim.Dedup(ctx, "s1", "fp-1")
	if err != nil || !dup {
		t.Fatalf("repeat within DedupWindow = %v, %v, want true, nil", dup, err)
	}
}
