package sttclient

import (
	"context"
	"fmt"
	"sync/atomic"
)

// FailoverClient prefers the relay client and automatically switches to
// the fallback client when the relay fails to connect; once fallback is
// active it stays active until fallback itself fails, at which point
// primary is retried. Grounded on the primary/fallback switching pattern
// used for STT/TTS provider pairs elsewhere in the pack.
type FailoverClient struct {
	primary  Client
	fallback Client

	fallbackActive atomic.Bool
	active         Client
}

// NewFailoverClient builds a client that dispatches Connect/Send/Close
// and all callback registrations to whichever of primary/fallback is
// currently active.
func NewFailoverClient(primary, fallback Client) *FailoverClient {
	return &FailoverClient{primary: primary, fallback: fallback, active: primary}
}

func (f *FailoverClient) Connect(ctx context.Context, sampleRate int) error {
	if f.fallbackActive.Load() {
		if err := f.fallback.Connect(ctx, sampleRate); err == nil {
			f.active = f.fallback
			return nil
		}
		if err := f.primary.Connect(ctx, sampleRate); err == nil {
			f.fallbackActive.Store(false)
			f.active = f.primary
			return nil
		}
		return fmt.Errorf("sttclient: both fallback and primary failed to connect")
	}

	if err := f.primary.Connect(ctx, sampleRate); err == nil {
		f.active = f.primary
		return nil
	}

	if err := f.fallback.Connect(ctx, sampleRate); err != nil {
		return fmt.Errorf("sttclient: primary failed and fallback failed: %w", err)
	}
	f.fallbackActive.Store(true)
	f.active = f.fallback
	return nil
}

func (f *FailoverClient) Send(pcm []byte) error { return f.active.Send(pcm) }
func (f *FailoverClient) Close() error          { return f.active.Close() }

func (f *FailoverClient) OnInterim(cb func(string, float64)) {
	f.primary.OnInterim(cb)
	f.fallback.OnInterim(cb)
}

func (f *FailoverClient) OnEndOfTurn(cb func(string, float64)) {
	f.primary.OnEndOfTurn(cb)
	f.fallback.OnEndOfTurn(cb)
}

func (f *FailoverClient) OnSpeechStarted(cb func()) {
	f.primary.OnSpeechStarted(cb)
	f.fallback.OnSpeechStarted(cb)
}

func (f *FailoverClient) OnError(cb func(error)) {
	f.primary.OnError(cb)
	f.fallback.OnError(cb)
}

// IsFallbackActive reports whether the failover client is currently
// dispatching to the fallback provider.
func (f *FailoverClient) IsFallbackActive() bool {
	return f.fallbackActive.Load()
}

// ForceFallback closes whichever client is active and switches to the
// fallback, per spec.md §4.5 ("switch active provider to fallback, close
// the relay, restart STT under the fallback"). It returns false if
// fallback was already active, meaning the caller should treat this as a
// second, unrecoverable failure.
func (f *FailoverClient) ForceFallback(ctx context.Context, sampleRate int) bool {
	if f.fallbackActive.Load() {
		return false
	}
	_ = f.primary.Close()
	f.fallbackActive.Store(true)
	f.active = f.fallback
	return f.fallback.Connect(ctx, sampleRate) == nil
}
