// Package ratelimit enforces the intent mediator's per-session voice
// rate limit and duplicate-intent suppression, per spec.md §8:
// at most 6 accepted voice intents in any 12s window, no two accepted
// intents closer than 600ms apart, and two identical intents within
// 800ms collapse into a single accepted intent.
package ratelimit

import (
	"context"
	"time"
)

const (
	MinGap      = 600 * time.Millisecond
	Window      = 12 * time.Second
	WindowMax   = 6
	DedupWindow = 800 * time.Millisecond
)

// Limiter gates and deduplicates voice intents for a session.
type Limiter interface {
	// Allow reports whether a new voice intent for sessionID may be
	// accepted right now, and if so records it as accepted.
	Allow(ctx context.Context, sessionID string) (bool, error)

	// Dedup reports whether fingerprint was already seen for sessionID
	// within DedupWindow. If not, it records the fingerprint as seen.
	Dedup(ctx context.Context, sessionID, fingerprint string) (bool, error)
}
