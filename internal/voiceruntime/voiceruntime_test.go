package voiceruntime

import (
	"context"
	"errors"
	"testing"
	"time"

	"kiosk/runtime/internal/chatbrain"
	"kiosk/runtime/internal/fsm"
	"kiosk/runtime/internal/floor"
	"kiosk/runtime/internal/intent"
	"kiosk/runtime/internal/ratelimit"
	"kiosk/runtime/internal/sttclient"
	"kiosk/runtime/internal/tenant"
	"kiosk/runtime/internal/tts"

	"github.com/google/uuid"
)

// fakeSynth blocks until ctx is cancelled or a fixed duration elapses,
// mirroring internal/tts's own test double.
type fakeSynth struct {
	duration time.Duration
}

func (f *fakeSynth) ListVoices() []tts.Voice { return []tts.Voice{{Name: "v", Locale: "en-US"}} }
func (f *fakeSynth) Utter(ctx context.Context, text string, voice tts.Voice) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.duration):
		return nil
	}
}

type stubChat struct{}

func (stubChat) Handle(ctx context.Context, req chatbrain.Request) chatbrain.Response {
	return chatbrain.Response{Speech: "ok", Intent: "HELP_SELECTED", Confidence: 0.9}
}

func newTestMediator() *intent.Mediator {
	tn := &tenant.Tenant{ID: uuid.New(), Slug: "grand-hotel", Name: "Grand Hotel"}
	return intent.New(stubChat{}, nil, nil, ratelimit.NewMemoryLimiter(), tn, nil)
}

func TestValidationGateRejectsShortTranscript(t *testing.T) {
	if _, ok := validateTranscript("a", 0.9); ok {
		t.Error("1-char transcript should fail MinChars")
	}
}

func TestValidationGateRejectsFillerOnly(t *testing.T) {
	if _, ok := validateTranscript("um", 0.9); ok {
		t.Error("filler-only transcript should be rejected")
	}
}

func TestValidationGateRejectsLowConfidenceWithoutCommandKeyword(t *testing.T) {
	if _, ok := validateTranscript("tell me a story", 0.1); ok {
		t.Error("low-confidence non-command transcript should be rejected")
	}
}

func TestValidationGateAllowsLowConfidenceCommandKeyword(t *testing.T) {
	if _, ok := validateTranscript("cancel", 0.05); !ok {
		t.Error("low-confidence transcript with command keyword should pass")
	}
}

func TestReconnectWindowRejectsBeyondCap(t *testing.T) {
	w := newReconnectWindow(time.Now)
	accepted := 0
	for i := 0; i < reconnectCap+2; i++ {
		if w.allow() {
			accepted++
		}
	}
	if accepted != reconnectCap {
		t.Errorf("accepted = %d, want %d", accepted, reconnectCap)
	}
}

func TestReconnectWindowPrunesOldEntries(t *testing.T) {
	cur := time.Now()
	w := newReconnectWindow(func() time.Time { return cur })
	for i := 0; i < reconnectCap; i++ {
		if !w.allow() {
			t.Fatalf("attempt %d should be allowed within cap", i)
		}
	}
	if w.allow() {
		t.Fatal("attempt beyond cap should be rejected before the window elapses")
	}
	cur = cur.Add(reconnectWindowSize + time.Second)
	if !w.allow() {
		t.Error("attempt after the window elapses should be allowed again")
	}
}

func TestSilentTurnLadderWarnsThenAborts(t *testing.T) {
	synth := &fakeSynth{duration: time.Millisecond}
	ttsCtl := tts.NewController(synth, nil)
	r := New(nil, nil, ttsCtl, floor.New(), nil)

	var types []EventType
	r.Subscribe(func(e Event) { types = append(types, e.Type) })

	r.recordSilentTurn(context.Background(), "s1")
	r.recordSilentTurn(context.Background(), "s1")
	r.recordSilentTurn(context.Background(), "s1")

	foundAbort := false
	for _, ty := range types {
		if ty == EventSessionAborted {
			foundAbort = true
		}
	}
	if !foundAbort {
		t.Errorf("events = %v, want VOICE_SESSION_ABORTED after %d silent turns", types, MaxSilentTurns)
	}
	r.mu.Lock()
	_, exists := r.sessions["s1"]
	r.mu.Unlock()
	if exists {
		t.Error("session should be cleared after abort")
	}
}

func TestSilentTurnLadderDoesNotAbortBeforeMax(t *testing.T) {
	r := New(nil, nil, nil, floor.New(), nil)
	var types []EventType
	r.Subscribe(func(e Event) { types = append(types, e.Type) })

	r.recordSilentTurn(context.Background(), "s1")

	for _, ty := range types {
		if ty == EventSessionAborted {
			t.Fatal("should not abort on first silent turn")
		}
	}
}

func TestBargeInHardStopsSpeechAndEntersListening(t *testing.T) {
	synth := &fakeSynth{duration: 5 * time.Second}
	ttsCtl := tts.NewController(synth, nil)
	r := New(nil, nil, ttsCtl, floor.New(), nil)

	go ttsCtl.Speak(context.Background(), "hello")
	for i := 0; i < 100 && !ttsCtl.IsSpeaking(); i++ {
		time.Sleep(time.Millisecond)
	}

	r.onSpeechStarted("s1")

	for i := 0; i < 100 && ttsCtl.IsSpeaking(); i++ {
		time.Sleep(time.Millisecond)
	}
	if ttsCtl.IsSpeaking() {
		t.Error("expected barge-in to stop the in-flight utterance")
	}
}

func TestProviderFailoverSwitchesOnError(t *testing.T) {
	primary := sttclient.NewFallbackClient(time.Millisecond)
	fallback := sttclient.NewFallbackClient(time.Millisecond)
	fc := sttclient.NewFailoverClient(primary, fallback)
	r := New(nil, fc, nil, floor.New(), nil)

	if err := fc.Connect(context.Background(), 16000); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	r.mu.Lock()
	st := r.session("s1")
	st.mode = ModeListening
	r.mu.Unlock()

	r.onSTTError(errors.New("relay closed"))

	if !fc.IsFallbackActive() {
		t.Error("expected failover client to switch to fallback on error")
	}
}

func TestDispatchTouchMutesVoiceOnVoiceOffState(t *testing.T) {
	m := newTestMediator()
	r := New(nil, nil, nil, floor.New(), m)

	r.DispatchTouch(context.Background(), "s1", fsm.ProximityDetected)
	r.DispatchTouch(context.Background(), "s1", fsm.CheckInSelected)

	r.mu.Lock()
	st := r.session("s1")
	allowed := st.voiceAllowed
	r.mu.Unlock()
	if allowed {
		t.Error("expected voice muted after touch transition into SCAN_ID")
	}
}

func TestSetVoiceAllowedFalseStopsListening(t *testing.T) {
	r := New(nil, nil, nil, floor.New(), nil)
	r.mu.Lock()
	st := r.session("s1")
	st.mode = ModeListening
	r.mu.Unlock()

	r.SetVoiceAllowed("s1", false)

	r.mu.Lock()
	mode := r.session("s1").mode
	r.mu.Unlock()
	if mode != ModeIdle {
		t.Errorf("mode = %s, want idle after voice disallowed", mode)
	}
}
