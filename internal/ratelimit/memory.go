package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is an in-memory Limiter for a single-process deployment or
// for tests.
type MemoryLimiter struct {
	mu       sync.Mutex
	accepted map[string][]time.Time
	lastSeen map[string]dedupEntry
	now      func() time.Time
}

type dedupEntry struct {
	fingerprint string
	at          time.Time
}

// NewMemoryLimiter constructs an empty in-memory limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		accepted: make(map[string][]time.Time),
		lastSeen: make(map[string]dedupEntry),
		now:      time.Now,
	}
}

func (m *MemoryLimiter) Allow(ctx context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	hist := m.accepted[sessionID]

	cutoff := now.Add(-Window)
	pruned := hist[:0]
	for _, t := range hist {
		if t.After(cutoff) {
			pruned = append(pruned, t)
		}
	}
	hist = pruned

	if len(hist) > 0 && now.Sub(hist[len(hist)-1]) < MinGap {
		m.accepted[sessionID] = hist
		return false, nil
	}
	if len(hist) >= WindowMax {
		m.accepted[sessionID] = hist
		return false, nil
	}

	hist = append(hist, now)
	m.accepted[sessionID] = hist
	return true, nil
}

func (m *MemoryLimiter) Dedup(ctx context.Context, sessionID, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	prev, ok := m.lastSeen[sessionID]
	isDup := ok && prev.fingerprint == fingerprint && now.Sub(prev.at) < DedupWindow

	if !isDup {
		m.lastSeen[sessionID] = dedupEntry{fingerprint: fingerprint, at: now}
	}
	return isDup, nil
}
