package sttclient

import (
	"context"
	"sync"
	"time"
)

// debounceGrace is the default grace window for coalescing consecutive
// final fragments from the fallback recognizer, per spec.md §4.3.
const debounceGrace = 250 * time.Millisecond

// FallbackClient stands in for a browser-native continuous speech
// recognizer. The concrete recognizer is a browser API outside this
// module's scope; this type gives the voice runtime the same Client
// surface plus a Feed method tests and a real browser bridge can use to
// deliver recognizer events.
type FallbackClient struct {
	grace time.Duration

	mu              sync.Mutex
	stopped         bool
	intentionalStop bool
	pendingFinal    string
	debounceTimer   *time.Timer

	onInterim       func(string, float64)
	onEndOfTurn     func(string, float64)
	onSpeechStarted func()
	onError         func(error)
}

// NewFallbackClient builds a fallback client with the given debounce
// grace; a zero grace uses the spec default of 250ms.
func NewFallbackClient(grace time.Duration) *FallbackClient {
	if grace <= 0 {
		grace = debounceGrace
	}
	return &FallbackClient{grace: grace}
}

func (c *FallbackClient) OnInterim(cb func(string, float64))        { c.onInterim = cb }
func (c *FallbackClient) OnEndOfTurn(cb func(string, float64))       { c.onEndOfTurn = cb }
func (c *FallbackClient) OnSpeechStarted(cb func())                  { c.onSpeechStarted = cb }
func (c *FallbackClient) OnError(cb func(error))                     { c.onError = cb }

func (c *FallbackClient) Connect(ctx context.Context, sampleRate int) error {
	c.mu.Lock()
	c.stopped = false
	c.intentionalStop = false
	c.mu.Unlock()
	return nil
}

// Send is a no-op for the fallback client: the browser recognizer
// consumes microphone audio directly, not frames routed through Go.
func (c *FallbackClient) Send(pcm []byte) error { return nil }

func (c *FallbackClient) Close() error {
	c.mu.Lock()
	c.intentionalStop = true
	c.stopped = true
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	c.mu.Unlock()
	return nil
}

// FeedSpeechStarted simulates the recognizer's speech-start event.
func (c *FallbackClient) FeedSpeechStarted() {
	if c.onSpeechStarted != nil {
		c.onSpeechStarted()
	}
}

// FeedInterim simulates an interim recognition result.
func (c *FallbackClient) FeedInterim(text string, confidence float64) {
	if c.onInterim != nil {
		c.onInterim(text, confidence)
	}
}

// FeedFinal simulates a final recognition fragment. Consecutive finals
// within the debounce grace coalesce into the accumulated pending text;
// the coalesced result is delivered to OnEndOfTurn once the grace window
// elapses without a fresher fragment.
func (c *FallbackClient) FeedFinal(text string, confidence float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingFinal == "" {
		c.pendingFinal = text
	} else {
		c.pendingFinal = c.pendingFinal + " " + text
	}
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	final := c.pendingFinal
	c.debounceTimer = time.AfterFunc(c.grace, func() {
		c.mu.Lock()
		c.pendingFinal = ""
		cb := c.onEndOfTurn
		c.mu.Unlock()
		if cb != nil {
			cb(final, confidence)
		}
	})
}

// FeedOnEnd simulates the recognizer's spontaneous "onend" event. If the
// stop was not requested via Close, the fallback client restarts
// transparently (modeled here as a no-op that leaves callbacks armed);
// if it was intentional, no further events are expected.
func (c *FallbackClient) FeedOnEnd() {
	c.mu.Lock()
	intentional := c.intentionalStop
	c.mu.Unlock()
	if intentional {
		return
	}
	// Spontaneous end while the runtime is still active: the real
	// recognizer auto-restarts; nothing surfaces to the runtime.
}

// FeedError simulates an unrecoverable recognizer error. Per spec.md
// §4.3, "no-speech" and intentional aborts never reach here.
func (c *FallbackClient) FeedError(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}
