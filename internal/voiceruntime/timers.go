package voiceruntime

import (
	"context"
	"log"
	"time"
)

// armTimersLocked starts the full timer ladder for a freshly-listening
// session. Caller must hold r.mu.
func (r *Runtime) armTimersLocked(sessionID string, st *sessionState) {
	r.disarmTimersLocked(st)
	st.noSpeechTimer = time.AfterFunc(r.noSpeechTimeout, func() { r.onNoSpeechTimeout(sessionID) })
	st.noResultTimer = time.AfterFunc(r.noResultTimeout, func() { r.onNoResultTimeout(sessionID) })
	st.maxSessionTimer = time.AfterFunc(r.maxSessionDuration, func() { r.onMaxSessionExpired(sessionID) })
	st.watchdogTimer = time.AfterFunc(r.watchdogInterval, func() { r.onWatchdogExpired(sessionID) })
}

// disarmTimersLocked stops every armed timer. Caller must hold r.mu.
func (r *Runtime) disarmTimersLocked(st *sessionState) {
	stopIfSet(st.noSpeechTimer)
	stopIfSet(st.noResultTimer)
	stopIfSet(st.maxSessionTimer)
	stopIfSet(st.watchdogTimer)
	st.noSpeechTimer, st.noResultTimer, st.maxSessionTimer, st.watchdogTimer = nil, nil, nil, nil
}

func stopIfSet(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// resetActivityLocked resets every timer on any interim/final/VAD activity,
// per spec.md §4.5 ("Timers (reset on any activity)"). Caller must hold r.mu.
func (r *Runtime) resetActivityLocked(sessionID string, st *sessionState) {
	if st.mode != ModeListening {
		return
	}
	st.lastActivity = r.now()
	r.armTimersLocked(sessionID, st)
}

// onNoSpeechTimeout and onNoResultTimeout both end the session and count as
// a silent turn, per spec.md §4.5 ("the first two count as silent turns").
func (r *Runtime) onNoSpeechTimeout(sessionID string) {
	r.expireSession(sessionID, "no_speech_timeout", true)
}

func (r *Runtime) onNoResultTimeout(sessionID string) {
	r.expireSession(sessionID, "no_result_timeout", true)
}

func (r *Runtime) onMaxSessionExpired(sessionID string) {
	r.expireSession(sessionID, "max_session_duration", false)
}

func (r *Runtime) onWatchdogExpired(sessionID string) {
	r.expireSession(sessionID, "watchdog_stall", false)
}

// expireSession ends the session for a given reason. countsAsSilent
// threads the expiry into the silence ladder, per spec.md §4.5.
func (r *Runtime) expireSession(sessionID string, reason string, countsAsSilent bool) {
	r.mu.Lock()
	st, ok := r.sessions[sessionID]
	if !ok || st.mode != ModeListening {
		r.mu.Unlock()
		return
	}
	r.stopListeningLocked(sessionID, st)
	r.mu.Unlock()

	log.Printf("[voiceruntime] session=%s expired reason=%s", sessionID, reason)

	if countsAsSilent {
		r.recordSilentTurn(context.Background(), sessionID)
		return
	}
	r.publish(Event{Type: EventSessionEnded, SessionID: sessionID})
}

// recordSilentTurn increments the silent-turn counter and applies the
// two-tier ladder from spec.md §4.5: a TTS nudge at WarnSilentTurns, a hard
// abort plus privacy wipe at MaxSilentTurns.
func (r *Runtime) recordSilentTurn(ctx context.Context, sessionID string) {
	r.mu.Lock()
	st := r.session(sessionID)
	st.silentTurns++
	count := st.silentTurns
	r.mu.Unlock()

	if count >= MaxSilentTurns {
		r.abortSession(ctx, sessionID)
		return
	}
	r.publish(Event{Type: EventSessionEnded, SessionID: sessionID})
	if count >= WarnSilentTurns {
		if r.ttsCtl != nil {
			_ = r.ttsCtl.Speak(ctx, nudgeSpeech)
		}
	}
}

// abortSession implements the MAX_SILENT_TURNS branch of spec.md §4.5:
// emit VOICE_SESSION_ABORTED, hard-stop all audio, clear session data.
func (r *Runtime) abortSession(ctx context.Context, sessionID string) {
	r.hardStopAll(sessionID)
	r.publish(Event{Type: EventSessionAborted, SessionID: sessionID})
	r.clearSessionData(sessionID)
}

// hardStopAll cancels TTS and listening state for a session immediately,
// per spec.md §4.5's "hard-stop all audio".
func (r *Runtime) hardStopAll(sessionID string) {
	if r.ttsCtl != nil {
		r.ttsCtl.HardStop()
	}
	r.mu.Lock()
	st := r.session(sessionID)
	r.stopListeningLocked(sessionID, st)
	r.mu.Unlock()
}

// clearSessionData zeroes the transcript buffer, silent-turn counter, and
// transcript-seen flags, per spec.md §4.5 clearSessionData(). It also wipes
// the intent mediator's session state if one is wired, since a privacy
// wipe must be visible to the next request across both layers.
func (r *Runtime) clearSessionData(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	if r.mediator != nil {
		r.mediator.Wipe(sessionID)
	}
}
