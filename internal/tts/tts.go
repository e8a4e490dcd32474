// Package tts implements the single-utterance-authority speech output
// controller: synthesize, barge-in, hard-stop, voice selection by locale
// priority. The concrete speech synthesizer (a browser SpeechSynthesis
// backend or a cloud TTS provider) is a thin collaborator outside this
// module's scope; Controller models the orchestration around it.
package tts

import (
	"context"
	"errors"
	"sync"
)

// EventType identifies a lifecycle event the controller emits.
type EventType string

const (
	EventStarted   EventType = "TTS_STARTED"
	EventEnded     EventType = "TTS_ENDED"
	EventCancelled EventType = "TTS_CANCELLED"
	EventError     EventType = "TTS_ERROR"
)

// Event is published to subscribers on every lifecycle transition.
type Event struct {
	Type EventType
	Text string
	Err  error
}

// Voice describes a synthesizer voice the Synthesizer can select.
type Voice struct {
	Name    string
	Locale  string
	Quality string
}

// errInterrupted and errCancelled are the two "expected" synthesizer
// errors that resolve speak() without propagating, per spec.md §4.4.
var (
	errInterrupted = errors.New("tts: interrupted")
	errCancelled   = errors.New("tts: canceled")
)

// Synthesizer is the underlying speech engine. Utter blocks until the
// utterance completes or ctx is cancelled; it returns errInterrupted or
// errCancelled for a barge-in/hard-stop, any other error for a real
// synthesis failure.
type Synthesizer interface {
	ListVoices() []Voice
	Utter(ctx context.Context, text string, voice Voice) error
}

// State is the controller's reported playback state.
type State string

const (
	StateIdle     State = "idle"
	StateSpeaking State = "speaking"
)

// Controller owns single-utterance authority over the synthesizer: only
// one utterance is ever in flight, and speak() always hard-stops
// whatever preceded it.
type Controller struct {
	synth         Synthesizer
	localePriority []string

	mu          sync.Mutex
	state       State
	cancelFn    context.CancelFunc
	subscribers []func(Event)
	voice       Voice
}

// NewController selects a voice at construction time: filter by quality
// hint "enhanced"/"premium" first, then take the first match from
// localePriority, falling back to the first voice of that filtered pool
// (the first voice overall only when no voice has a quality hint).
func NewController(synth Synthesizer, localePriority []string) *Controller {
	c := &Controller{synth: synth, localePriority: localePriority, state: StateIdle}
	c.voice = selectVoice(synth.ListVoices(), localePriority)
	return c
}

func selectVoice(voices []Voice, priority []string) Voice {
	if len(voices) == 0 {
		return Voice{}
	}
	preferred := make([]Voice, 0, len(voices))
	for _, v := range voices {
		if v.Quality == "enhanced" || v.Quality == "premium" {
			preferred = append(preferred, v)
		}
	}
	pool := preferred
	if len(pool) == 0 {
		pool = voices
	}
	for _, locale := range priority {
		for _, v := range pool {
			if v.Locale == locale {
				return v
			}
		}
	}
	return pool[0]
}

// Subscribe registers a callback for lifecycle events and returns an
// unsubscribe function.
func (c *Controller) Subscribe(cb func(Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, cb)
	idx := len(c.subscribers) - 1
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.subscribers[idx] = nil
	}
}

func (c *Controller) publish(evt Event) {
	c.mu.Lock()
	subs := append([]func(Event){}, c.subscribers...)
	c.mu.Unlock()
	for _, cb := range subs {
		if cb != nil {
			cb(evt)
		}
	}
}

// Speak hard-stops any in-flight utterance, then synthesizes text,
// blocking until it ends, is cancelled, or errors. A barge-in or
// hard-stop resolves this call without an error, per spec.md §4.4.
func (c *Controller) Speak(ctx context.Context, text string) error {
	c.hardStopLocked()

	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFn = cancel
	c.state = StateSpeaking
	c.mu.Unlock()

	c.publish(Event{Type: EventStarted, Text: text})

	err := c.synth.Utter(ctx, text, c.voice)

	c.mu.Lock()
	c.state = StateIdle
	c.cancelFn = nil
	c.mu.Unlock()

	switch {
	case err == nil:
		c.publish(Event{Type: EventEnded, Text: text})
		return nil
	case errors.Is(err, errInterrupted), errors.Is(err, errCancelled), errors.Is(err, context.Canceled):
		c.publish(Event{Type: EventCancelled, Text: text})
		return nil
	default:
		c.publish(Event{Type: EventError, Text: text, Err: err})
		return err
	}
}

// BargeIn stops the active utterance immediately and emits TTS_CANCELLED,
// per spec.md §4.4 and the barge-in scenario in §8.
func (c *Controller) BargeIn() {
	c.mu.Lock()
	cancel := c.cancelFn
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// HardStop cancels the active utterance synchronously; it is safe to
// call from any state and is idempotent.
func (c *Controller) HardStop() {
	c.hardStopLocked()
}

func (c *Controller) hardStopLocked() {
	c.mu.Lock()
	cancel := c.cancelFn
	c.cancelFn = nil
	c.state = StateIdle
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// IsSpeaking reports whether an utterance is currently in flight.
func (c *Controller) IsSpeaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateSpeaking
}

// GetState returns the controller's current playback state.
func (c *Controller) GetState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
