package voiceruntime

import (
	"context"
	"log"
	"time"

	"kiosk/runtime/internal/fsm"
	"kiosk/runtime/internal/intent"
	"kiosk/runtime/internal/tts"
)

// onInterim handles an STT interim result: resets the timer ladder and
// publishes VOICE_TRANSCRIPT_PARTIAL, per spec.md §4.5.
func (r *Runtime) onInterim(sessionID string, text string, confidence float64) {
	r.mu.Lock()
	st := r.session(sessionID)
	st.sawInterim = true
	r.resetActivityLocked(sessionID, st)
	r.mu.Unlock()

	r.publish(Event{Type: EventTranscriptPartial, SessionID: sessionID, Text: text, Confidence: confidence})
}

// onEndOfTurn handles an STT final result: runs the validation gate, and on
// success dispatches the transcript to the intent mediator. An invalid or
// rejected transcript counts as a silent turn.
func (r *Runtime) onEndOfTurn(sessionID string, text string, confidence float64) {
	r.mu.Lock()
	st := r.session(sessionID)
	st.sawFinal = true
	st.turn = TurnProcessing
	r.resetActivityLocked(sessionID, st)
	r.mu.Unlock()

	normalized, ok := validateTranscript(text, confidence)
	if !ok {
		r.recordSilentTurn(context.Background(), sessionID)
		return
	}

	r.mu.Lock()
	st = r.session(sessionID)
	st.silentTurns = 0
	r.mu.Unlock()

	r.publish(Event{Type: EventTranscriptReady, SessionID: sessionID, Text: normalized, Confidence: confidence})

	if r.mediator == nil {
		return
	}
	ctx := context.Background()
	res, err := r.mediator.Dispatch(ctx, sessionID, normalized)
	if err != nil {
		log.Printf("[voiceruntime] session=%s mediator dispatch error=%v", sessionID, err)
		r.publish(Event{Type: EventSessionError, SessionID: sessionID, Err: err})
		return
	}
	if res.RateLimited || res.Deduped {
		return
	}
	r.afterDispatch(ctx, sessionID, res)
}

// afterDispatch reacts to the mediator's Result: speaking any produced
// speech, and muting voice capture if the destination state is voice-off,
// per SPEC_FULL.md §12(a).
func (r *Runtime) afterDispatch(ctx context.Context, sessionID string, res intent.Result) {
	r.mu.Lock()
	st := r.session(sessionID)
	st.turn = TurnSystemResponding
	r.mu.Unlock()

	if res.ShouldSpeak && r.ttsCtl != nil {
		_ = r.ttsCtl.Speak(ctx, res.Speech)
	}

	if !fsm.VoiceAuthority(res.State) {
		r.SetVoiceAllowed(sessionID, false)
	} else {
		r.SetVoiceAllowed(sessionID, true)
	}

	if r.autoAdvanceDispense > 0 && res.Transitioned && res.State == fsm.KeyDispensing {
		time.AfterFunc(r.autoAdvanceDispense, func() {
			r.DispatchTouch(context.Background(), sessionID, fsm.DispenseComplete)
		})
	}

	r.mu.Lock()
	st = r.session(sessionID)
	st.turn = TurnIdle
	r.mu.Unlock()
}

// onSpeechStarted implements barge-in, per spec.md §4.5: consult the floor
// manager, and if it says to stop, cancel the active utterance and switch
// mode to listening.
func (r *Runtime) onSpeechStarted(sessionID string) {
	if r.ttsCtl == nil || !r.ttsCtl.IsSpeaking() {
		return
	}
	if r.floorMgr == nil {
		r.ttsCtl.BargeIn()
		return
	}
	decision := r.floorMgr.OnVADStart(r.now().UnixMilli())
	if decision.ShouldStop {
		r.ttsCtl.BargeIn()
		r.mu.Lock()
		st := r.session(sessionID)
		st.mode = ModeListening
		r.mu.Unlock()
	}
}

// onSTTError implements provider failover, per spec.md §4.5: force a
// switch to the fallback provider if not already on it; a failure while
// already on fallback is unrecoverable for this session.
func (r *Runtime) onSTTError(err error) {
	log.Printf("[voiceruntime] stt error=%v", err)
	if r.stt == nil {
		return
	}
	for _, sessionID := range r.snapshotListeningSessionIDs() {
		if r.stt.IsFallbackActive() {
			r.publish(Event{Type: EventSessionError, SessionID: sessionID, Err: err})
			continue
		}
		sampleRate := 16000
		if r.capture != nil {
			sampleRate = r.capture.SampleRate()
		}
		if !r.stt.ForceFallback(context.Background(), sampleRate) {
			r.publish(Event{Type: EventSessionError, SessionID: sessionID, Err: err})
		}
	}
}

func (r *Runtime) snapshotListeningSessionIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for id, st := range r.sessions {
		if st.mode == ModeListening {
			out = append(out, id)
		}
	}
	return out
}

// onTTSEvent mirrors TTS lifecycle events into the floor manager and mode
// machine, per spec.md §4.5's speaking→idle transition.
func (r *Runtime) onTTSEvent(evt tts.Event) {
	switch evt.Type {
	case tts.EventStarted:
		if r.floorMgr != nil {
			r.floorMgr.OnTTSStarted(evt.Text, r.now().UnixMilli())
		}
		r.setAllSpeaking(ModeSpeaking)
	case tts.EventEnded, tts.EventCancelled, tts.EventError:
		if r.floorMgr != nil {
			r.floorMgr.OnTTSStopped(evt.Text, r.now().UnixMilli(), string(evt.Type))
		}
		r.setAllSpeaking(ModeIdle)
	}
}

func (r *Runtime) setAllSpeaking(mode Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range r.sessions {
		if st.mode == ModeSpeaking || mode == ModeSpeaking {
			st.mode = mode
		}
	}
}
