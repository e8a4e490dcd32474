// Package intent implements the Intent Mediator: the kiosk's single entry
// point for state change, sitting between an unreliable LLM advisor and the
// strict FSM, per spec.md §4.6. It owns voice-authority policy, touch-
// override authority, rate-limiting/dedup, fast-path deterministic routing,
// slot-context tracking, and transition mediation. The FSM remains the sole
// authority on legal flow; this package never drives a transition directly,
// only through internal/fsm.Transition.
package intent

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"kiosk/runtime/internal/bookingbrain"
	"kiosk/runtime/internal/chatbrain"
	"kiosk/runtime/internal/fsm"
	"kiosk/runtime/internal/ratelimit"
	"kiosk/runtime/internal/storage"
	"kiosk/runtime/internal/tenant"
)

// InactivityTimeout resets a session to IDLE after this long with no
// activity, per spec.md §4.6 step 6.
const InactivityTimeout = 120 * time.Second

// Speaker is the subset of tts.Controller the mediator needs: speaking the
// onboarding prompt for a new state, and the hard-stop half of touch
// preemption and transition-driven audio teardown (spec.md §4.6 step 4,
// §8 "touch preemption"). A nil Speaker is valid for tests that only care
// about the computed Result, not the side effect of actually speaking.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	HardStop()
	IsSpeaking() bool
}

// ChatBrain is the subset of chatbrain.Brain the mediator calls for
// non-booking states.
type ChatBrain interface {
	Handle(ctx context.Context, req chatbrain.Request) chatbrain.Response
}

// BookingBrain is the subset of bookingbrain.Brain the mediator calls for
// ROOM_SELECT/BOOKING_COLLECT/BOOKING_SUMMARY.
type BookingBrain interface {
	Handle(ctx context.Context, req bookingbrain.Request) (bookingbrain.Response, error)
}

// RoomLister is the subset of storage.Store the fast path needs to resolve
// a spoken room reference against the tenant's live inventory.
type RoomLister interface {
	ListRoomTypes(ctx context.Context, tenantID uuid.UUID) ([]storage.RoomType, error)
}

// Result is what the mediator decided for this turn.
type Result struct {
	State        fsm.UiState
	Intent       fsm.Intent
	Speech       string
	ShouldSpeak  bool
	Transitioned bool
	RateLimited  bool
	Deduped      bool
}

// sessionState is the mediator's per-session memory: current screen state,
// active slot context, and pending-cancel flag, per spec.md §4.6.
type sessionState struct {
	state          fsm.UiState
	activeSlot     string
	expectedType   string
	filledSlots    bookingbrain.BookingSlots
	pendingCancel  bool
	lastActivity   time.Time
}

// Mediator is the intent mediator. One Mediator serves every session for a
// tenant; per-session state is isolated by sessionId.
type Mediator struct {
	chat    ChatBrain
	booking BookingBrain
	rooms   RoomLister
	limiter ratelimit.Limiter
	tenant  *tenant.Tenant
	speaker Speaker
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// New constructs a Mediator. speaker may be nil in tests that don't care
// about the audio side effect. rooms may be nil; the ROOM_SELECT fast path
// then always falls through to the booking brain's own room resolution.
func New(chat ChatBrain, booking BookingBrain, rooms RoomLister, limiter ratelimit.Limiter, t *tenant.Tenant, speaker Speaker) *Mediator {
	return &Mediator{
		chat:     chat,
		booking:  booking,
		rooms:    rooms,
		limiter:  limiter,
		tenant:   t,
		speaker:  speaker,
		now:      time.Now,
		sessions: make(map[string]*sessionState),
	}
}

func (m *Mediator) session(id string) *sessionState {
	st, ok := m.sessions[id]
	if !ok {
		st = &sessionState{state: fsm.Idle, lastActivity: m.now()}
		m.sessions[id] = st
	}
	return st
}

// Wipe removes a session's mediator state entirely, per spec.md §8
// "privacy wipe": called whenever a transition lands on IDLE or WELCOME.
func (m *Mediator) Wipe(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// State returns the current UiState for a session without mutating
// anything, creating the session lazily at IDLE if unseen.
func (m *Mediator) State(id string) fsm.UiState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session(id).state
}

// CheckInactivity resets a session to IDLE if it has been idle longer than
// InactivityTimeout, hard-stopping any in-flight speech, per spec.md §4.6
// step 6. It returns true if it performed a reset.
func (m *Mediator) CheckInactivity(id string) bool {
	m.mu.Lock()
	st, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	expired := m.now().Sub(st.lastActivity) >= InactivityTimeout && st.state != fsm.Idle
	if expired {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if expired && m.speaker != nil {
		m.speaker.HardStop()
	}
	return expired
}
