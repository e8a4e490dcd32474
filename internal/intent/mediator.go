package intent

import (
	"context"

	"kiosk/runtime/internal/bookingbrain"
	"kiosk/runtime/internal/chatbrain"
	"kiosk/runtime/internal/fsm"
	"kiosk/runtime/internal/normalizer"
)

// bookingStates are the screens routed to the booking brain rather than
// the general chat brain, per spec.md §4.6 step 3.
func isBookingState(s fsm.UiState) bool {
	return s == fsm.RoomSelect || s == fsm.BookingCollect || s == fsm.BookingSummary
}

// DispatchTouch handles a touch-originated intent. Touch bypasses voice
// authority, rate limiting, dedup, and the LLM entirely, per spec.md §2
// ("Touch events enter IM directly and bypass LLM") and §4.6 ("touch
// authority is absolute").
func (m *Mediator) DispatchTouch(ctx context.Context, sessionID string, touchIntent fsm.Intent) Result {
	m.mu.Lock()
	st := m.session(sessionID)
	st.lastActivity = m.now()
	current := st.state
	m.mu.Unlock()

	if isInterruptIntent(touchIntent) && m.speaker != nil && m.speaker.IsSpeaking() {
		m.speaker.HardStop()
	}

	return m.transitionAndSpeakWithSpeech(ctx, sessionID, current, touchIntent, "")
}

// isInterruptIntent reports whether touchIntent is in the "interrupt"
// class that must preempt in-flight audio immediately, per spec.md §4.6
// ("a designated interrupt intent received as touch immediately hard-stops
// TTS and STT"). Navigation and reset are the interrupt-class intents; a
// forward-flow selection (e.g. ROOM_SELECTED) does not need to preempt
// ongoing speech since nothing should be speaking mid room-selection.
func isInterruptIntent(i fsm.Intent) bool {
	switch i {
	case fsm.BackRequested, fsm.CancelRequested, fsm.Reset, fsm.TouchSelected:
		return true
	default:
		return false
	}
}

// Dispatch handles a final voice transcript, running the full pipeline:
// cancel-confirmation, voice authority, rate limit, dedup, fast path, LLM
// path with guardrails, then transition, per spec.md §4.6.
func (m *Mediator) Dispatch(ctx context.Context, sessionID string, transcript string) (Result, error) {
	normalized := normalizer.Normalize(transcript)

	m.mu.Lock()
	st := m.session(sessionID)
	current := st.state
	pendingCancel := st.pendingCancel
	activeSlot := st.activeSlot
	filled := st.filledSlots
	m.mu.Unlock()

	if pendingCancel {
		return m.resolveCancelConfirmation(ctx, sessionID, current, normalized), nil
	}

	if !fsm.VoiceAuthority(current) {
		// Voice is off in this state: leave state and slots unchanged, per
		// spec.md §8 "voice authority".
		return Result{State: current, Intent: fsm.Unknown}, nil
	}

	if m.limiter != nil {
		allowed, err := m.limiter.Allow(ctx, sessionID)
		if err != nil {
			return Result{}, err
		}
		if !allowed {
			return Result{State: current, RateLimited: true}, nil
		}
		dup, err := m.limiter.Dedup(ctx, sessionID, normalized)
		if err != nil {
			return Result{}, err
		}
		if dup {
			return Result{State: current, Deduped: true}, nil
		}
	}

	m.mu.Lock()
	st.lastActivity = m.now()
	m.mu.Unlock()

	// Cancelling mid-booking would discard slot-filling progress, so it
	// asks for confirmation first (spec.md §8 scenario 3); elsewhere
	// CANCEL_REQUESTED fast-paths directly since there's nothing to lose.
	if isBookingState(current) && cancelPattern.MatchString(normalized) {
		m.mu.Lock()
		st.pendingCancel = true
		m.mu.Unlock()
		speech := m.speak(ctx, "Are you sure you want to cancel?")
		return Result{State: current, ShouldSpeak: true, Speech: speech}, nil
	}

	mapped, speech := m.resolveIntent(ctx, current, normalized, transcript, sessionID, activeSlot, filled)

	return m.transitionAndSpeakWithSpeech(ctx, sessionID, current, mapped, speech), nil
}

// resolveIntent runs the fast path first, falling back to the appropriate
// brain and its guardrails, per spec.md §4.6 steps 2-3.
func (m *Mediator) resolveIntent(ctx context.Context, current fsm.UiState, normalized, rawTranscript, sessionID, activeSlot string, filled bookingbrain.BookingSlots) (fsm.Intent, string) {
	if fi, roomCode, ok := m.fastPath(ctx, current, normalized); ok {
		if roomCode != "" {
			m.mu.Lock()
			if st, exists := m.sessions[sessionID]; exists {
				st.filledSlots.RoomType = &roomCode
			}
			m.mu.Unlock()
		}
		return fi, ""
	}

	if isBookingState(current) {
		resp, err := m.booking.Handle(ctx, bookingbrain.Request{
			Transcript:   rawTranscript,
			CurrentState: string(current),
			SessionID:    sessionID,
			ActiveSlot:   activeSlot,
			ExpectedType: slotExpectedType(activeSlot),
			FilledSlots:  filled,
		})
		if err != nil {
			return fsm.Unknown, "I'm having trouble understanding. Please use the touch screen."
		}
		mapped := MapIntent(resp.Intent)
		mapped = applyGuardrail(activeSlot, mapped, normalized)
		if current == fsm.BookingCollect && resp.IsComplete {
			mapped = fsm.ConfirmBooking
		}
		m.mu.Lock()
		if st, ok := m.sessions[sessionID]; ok {
			st.filledSlots = resp.AccumulatedSlots
			if resp.NextSlotToAsk != "" {
				st.activeSlot = resp.NextSlotToAsk
				st.expectedType = slotExpectedType(resp.NextSlotToAsk)
			} else {
				st.activeSlot = ""
			}
		}
		m.mu.Unlock()
		return mapped, resp.Speech
	}

	resp := m.chat.Handle(ctx, chatbrain.Request{
		Transcript:   rawTranscript,
		CurrentState: string(current),
		SessionID:    sessionID,
	})
	return MapIntent(resp.Intent), resp.Speech
}

// transitionAndSpeakWithSpeech computes the FSM transition and decides
// whether to speak the brain's own speech (conversational, no transition)
// or the destination state's onboarding prompt (transition happened), per
// spec.md §4.6 step 4 ("do not speak the LLM's speech" when a transition
// occurs, since it would be cancelled by state-change audio teardown).
func (m *Mediator) transitionAndSpeakWithSpeech(ctx context.Context, sessionID string, current fsm.UiState, mapped fsm.Intent, brainSpeech string) Result {
	next := computeNext(current, mapped)

	m.mu.Lock()
	st := m.session(sessionID)
	st.state = next
	filled := st.filledSlots
	m.mu.Unlock()

	transitioned := next != current
	if transitioned && (next == fsm.Idle || next == fsm.Welcome) {
		m.Wipe(sessionID)
	}

	var speech string
	if transitioned {
		if m.speaker != nil {
			m.speaker.HardStop()
		}
		speech = m.onboardingSpeech(next, filled)
	} else {
		speech = brainSpeech
	}

	if speech != "" {
		speech = m.speak(ctx, speech)
	}

	return Result{State: next, Intent: mapped, Speech: speech, ShouldSpeak: speech != "", Transitioned: transitioned}
}

// computeNext applies the FSM's transition table with the BACK/CANCEL/RESET
// overrides from spec.md §4.6 step 4.
func computeNext(current fsm.UiState, mapped fsm.Intent) fsm.UiState {
	switch mapped {
	case fsm.BackRequested, fsm.CancelRequested:
		return fsm.GetPreviousState(current)
	case fsm.Reset:
		return fsm.Idle
	default:
		return fsm.Transition(current, mapped)
	}
}

// resolveCancelConfirmation interprets a transcript against the pending
// cancel-confirmation keyword sets, per spec.md §4.6 step 1 and scenario 3.
func (m *Mediator) resolveCancelConfirmation(ctx context.Context, sessionID string, current fsm.UiState, normalized string) Result {
	switch classifyCancelConfirmation(normalized) {
	case cancelAffirmative:
		m.mu.Lock()
		st := m.session(sessionID)
		st.pendingCancel = false
		st.state = fsm.Idle
		m.mu.Unlock()
		m.Wipe(sessionID)
		speech := m.speak(ctx, "Okay, cancelling.")
		return Result{State: fsm.Idle, Intent: fsm.Reset, Speech: speech, ShouldSpeak: speech != "", Transitioned: true}
	case cancelNegative:
		m.mu.Lock()
		st := m.session(sessionID)
		st.pendingCancel = false
		m.mu.Unlock()
		speech := m.speak(ctx, "Okay, continuing.")
		return Result{State: current, Speech: speech, ShouldSpeak: speech != ""}
	default:
		speech := m.speak(ctx, "Sorry, should I cancel your booking? Please say yes or no.")
		return Result{State: current, Speech: speech, ShouldSpeak: speech != ""}
	}
}

// speak calls the Speaker if one is wired, returning text unchanged either
// way so Result always reports what should have been spoken.
func (m *Mediator) speak(ctx context.Context, text string) string {
	if m.speaker != nil {
		_ = m.speaker.Speak(ctx, text)
	}
	return text
}
