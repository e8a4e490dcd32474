// Package voiceruntime implements the duplex voice coordinator: the mode
// machine (idle/listening/speaking), the silence and watchdog timers, the
// validation gate on transcripts before they reach the intent mediator,
// provider failover, reconnect-window rate limiting, and privacy wipe. It
// sits between internal/sttclient/internal/tts (the hardware-adjacent
// collaborators) and internal/intent (state authority).
package voiceruntime

import (
	"context"
	"log"
	"sync"
	"time"

	"kiosk/runtime/internal/audio"
	"kiosk/runtime/internal/floor"
	"kiosk/runtime/internal/intent"
	"kiosk/runtime/internal/sttclient"
	"kiosk/runtime/internal/tts"
)

// Mode is the runtime's own playback/capture state, distinct from the TTS
// controller's State and from the kiosk's UiState.
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeListening Mode = "listening"
	ModeSpeaking  Mode = "speaking"
)

// TurnState tracks where a single voice turn is in its lifecycle.
type TurnState string

const (
	TurnIdle             TurnState = "IDLE"
	TurnUserSpeaking     TurnState = "USER_SPEAKING"
	TurnProcessing       TurnState = "PROCESSING"
	TurnSystemResponding TurnState = "SYSTEM_RESPONDING"
)

// Timer defaults, reset on any activity, per spec.md §4.5.
const (
	NoSpeechTimeout    = 8 * time.Second
	NoResultTimeout    = 12 * time.Second
	MaxSessionDuration = 30 * time.Second
	WatchdogInterval   = 20 * time.Second
)

// Silence policy thresholds, per spec.md §4.5.
const (
	WarnSilentTurns = 2
	MaxSilentTurns  = 3
)

// Validation gate defaults, per spec.md §4.5.
const (
	MinChars      = 2
	MinConfidence = 0.2
)

const nudgeSpeech = "I didn't catch that. Please speak or tap the screen."

// EventType identifies an observable voice-session lifecycle event, per
// spec.md §4.5.
type EventType string

const (
	EventSessionStarted   EventType = "VOICE_SESSION_STARTED"
	EventTranscriptPartial EventType = "VOICE_TRANSCRIPT_PARTIAL"
	EventTranscriptReady  EventType = "VOICE_TRANSCRIPT_READY"
	EventSessionEnded     EventType = "VOICE_SESSION_ENDED"
	EventSessionAborted   EventType = "VOICE_SESSION_ABORTED"
	EventSessionError     EventType = "VOICE_SESSION_ERROR"
)

// Event is published to subscribers on every lifecycle transition.
type Event struct {
	Type       EventType
	SessionID  string
	Text       string
	Confidence float64
	Err        error
}

// Option configures optional runtime behavior.
type Option func(*Runtime)

// WithAutoAdvanceDispense enables an opt-in test/dev affordance that
// auto-fires DISPENSE_COMPLETE some time after entering KEY_DISPENSING.
// Off by default; never wired from production composition roots, per
// spec.md §9 Open Question (c).
func WithAutoAdvanceDispense(after time.Duration) Option {
	return func(r *Runtime) {
		r.autoAdvanceDispense = after
	}
}

// WithTimers overrides the timer ladder durations. Tests use this to
// shrink spec.md §4.5's 8s/12s/30s/20s defaults down to millisecond scale
// rather than waiting out the real timeouts.
func WithTimers(noSpeech, noResult, maxSession, watchdog time.Duration) Option {
	return func(r *Runtime) {
		r.noSpeechTimeout = noSpeech
		r.noResultTimeout = noResult
		r.maxSessionDuration = maxSession
		r.watchdogInterval = watchdog
	}
}

// sessionState is the runtime's per-kiosk-session bookkeeping. One Runtime
// typically serves a single physical kiosk (one mic, one speaker), so
// sessions is usually a map of size one, but it is keyed to allow a test
// harness or a multi-booth deployment to share a Runtime.
type sessionState struct {
	mode         Mode
	turn         TurnState
	voiceAllowed bool

	sawInterim bool
	sawFinal   bool
	startedAt  time.Time
	lastActivity time.Time

	silentTurns int

	noSpeechTimer *time.Timer
	noResultTimer *time.Timer
	maxSessionTimer *time.Timer
	watchdogTimer   *time.Timer

	cancel context.CancelFunc
}

// Runtime is the duplex voice coordinator for one kiosk.
type Runtime struct {
	capture audio.Capture
	stt     *sttclient.FailoverClient
	ttsCtl  *tts.Controller
	floorMgr FloorManager
	mediator *intent.Mediator

	reconnects *reconnectWindow

	noSpeechTimeout    time.Duration
	noResultTimeout    time.Duration
	maxSessionDuration time.Duration
	watchdogInterval   time.Duration

	autoAdvanceDispense time.Duration

	mu       sync.Mutex
	sessions map[string]*sessionState

	subMu       sync.Mutex
	subscribers []func(Event)

	now func() time.Time
}

// FloorManager is the barge-in arbitration surface internal/floor.Manager
// satisfies; declared as an interface here so tests can swap a stub.
type FloorManager interface {
	OnTTSStarted(utteranceID string, tsMs int64) floor.Decision
	OnTTSStopped(utteranceID string, tsMs int64, reason string) floor.Decision
	OnVADStart(tsMs int64) floor.Decision
	OnVADEnd(tsMs int64) floor.Decision
}

// New constructs a Runtime. mediator may be nil for tests that only check
// the mode machine and timers without the intent pipeline.
func New(capture audio.Capture, stt *sttclient.FailoverClient, ttsCtl *tts.Controller, floorMgr FloorManager, mediator *intent.Mediator, opts ...Option) *Runtime {
	r := &Runtime{
		capture:            capture,
		stt:                stt,
		ttsCtl:              ttsCtl,
		floorMgr:            floorMgr,
		mediator:            mediator,
		reconnects:          newReconnectWindow(time.Now),
		sessions:            make(map[string]*sessionState),
		now:                 time.Now,
		noSpeechTimeout:     NoSpeechTimeout,
		noResultTimeout:     NoResultTimeout,
		maxSessionDuration:  MaxSessionDuration,
		watchdogInterval:    WatchdogInterval,
	}
	for _, o := range opts {
		o(r)
	}
	if ttsCtl != nil {
		ttsCtl.Subscribe(r.onTTSEvent)
	}
	if stt != nil {
		stt.OnInterim(r.onInterim)
		stt.OnEndOfTurn(r.onEndOfTurn)
		stt.OnSpeechStarted(r.onSpeechStarted)
		stt.OnError(r.onSTTError)
	}
	return r
}

// Subscribe registers a callback for lifecycle events and returns an
// unsubscribe function.
func (r *Runtime) Subscribe(cb func(Event)) func() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.subscribers = append(r.subscribers, cb)
	idx := len(r.subscribers) - 1
	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		r.subscribers[idx] = nil
	}
}

func (r *Runtime) publish(evt Event) {
	r.subMu.Lock()
	subs := append([]func(Event){}, r.subscribers...)
	r.subMu.Unlock()
	for _, cb := range subs {
		if cb != nil {
			cb(evt)
		}
	}
}

// SetVoiceAllowed mutes/unmutes voice capture for a session without tearing
// down the runtime's timers or mode machine, per SPEC_FULL.md §12(a):
// afterDispatch calls this with false whenever a dispatch lands on a
// voice-off state (such as SCAN_ID or PAYMENT), so no STT session is opened
// while voice authority is off.
func (r *Runtime) SetVoiceAllowed(sessionID string, allowed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.session(sessionID)
	st.voiceAllowed = allowed
	if !allowed && st.mode == ModeListening {
		r.stopListeningLocked(sessionID, st)
	}
}

func (r *Runtime) session(id string) *sessionState {
	st, ok := r.sessions[id]
	if !ok {
		st = &sessionState{mode: ModeIdle, turn: TurnIdle, voiceAllowed: true, lastActivity: r.now()}
		r.sessions[id] = st
	}
	return st
}

// StartListening begins a voice session: opens the reconnect window,
// connects STT, starts capture, and arms the timer ladder. It refuses to
// start if the reconnect window would be exceeded or voice is muted.
func (r *Runtime) StartListening(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	st := r.session(sessionID)
	if !st.voiceAllowed {
		r.mu.Unlock()
		return errVoiceNotAllowed
	}
	if st.mode == ModeListening {
		r.mu.Unlock()
		return nil
	}
	if !r.reconnects.allow() {
		r.mu.Unlock()
		r.publish(Event{Type: EventSessionError, SessionID: sessionID, Err: errReconnectLimitExceeded})
		return errReconnectLimitExceeded
	}

	sessCtx, cancel := context.WithCancel(ctx)
	st.cancel = cancel
	st.mode = ModeListening
	st.turn = TurnUserSpeaking
	st.sawInterim = false
	st.sawFinal = false
	st.startedAt = r.now()
	st.lastActivity = r.now()
	r.armTimersLocked(sessionID, st)
	r.mu.Unlock()

	if r.stt != nil {
		sampleRate := 16000
		if r.capture != nil {
			sampleRate = r.capture.SampleRate()
		}
		if err := r.stt.Connect(sessCtx, sampleRate); err != nil {
			r.failStart(sessionID, err)
			return err
		}
	}
	if r.capture != nil {
		r.capture.OnAudioChunk(func(f audio.Frame) {
			r.onAudioFrame(sessionID, f)
		})
		if err := r.capture.Start(sessCtx); err != nil {
			r.failStart(sessionID, err)
			return err
		}
	}

	log.Printf("[voiceruntime] session=%s started", sessionID)
	r.publish(Event{Type: EventSessionStarted, SessionID: sessionID})
	return nil
}

// StopListening ends a voice session cleanly without counting it as an
// abort, per the mode machine's listening→idle transition.
func (r *Runtime) StopListening(sessionID string) {
	r.mu.Lock()
	st := r.session(sessionID)
	r.stopListeningLocked(sessionID, st)
	r.mu.Unlock()
	r.publish(Event{Type: EventSessionEnded, SessionID: sessionID})
}

// failStart tears down a session that failed to start listening and
// publishes VOICE_SESSION_ERROR.
func (r *Runtime) failStart(sessionID string, err error) {
	r.mu.Lock()
	st := r.session(sessionID)
	r.stopListeningLocked(sessionID, st)
	r.mu.Unlock()
	r.publish(Event{Type: EventSessionError, SessionID: sessionID, Err: err})
}

func (r *Runtime) stopListeningLocked(sessionID string, st *sessionState) {
	r.disarmTimersLocked(st)
	if st.cancel != nil {
		st.cancel()
		st.cancel = nil
	}
	st.mode = ModeIdle
	st.turn = TurnIdle
	if r.capture != nil {
		_ = r.capture.Stop()
	}
}

func (r *Runtime) onAudioFrame(sessionID string, f audio.Frame) {
	if r.stt == nil {
		return
	}
	pcm := make([]byte, audio.FrameSize*2)
	for i, s := range f.Samples {
		pcm[2*i] = byte(s)
		pcm[2*i+1] = byte(s >> 8)
	}
	_ = r.stt.Send(pcm)
}
