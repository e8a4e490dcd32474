package intent

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"kiosk/runtime/internal/bookingbrain"
	"kiosk/runtime/internal/chatbrain"
	"kiosk/runtime/internal/fsm"
	"kiosk/runtime/internal/ratelimit"
	"kiosk/runtime/internal/storage"
	"kiosk/runtime/internal/tenant"
)

type stubChat struct {
	resp chatbrain.Response
}

func (s stubChat) Handle(ctx context.Context, req chatbrain.Request) chatbrain.Response { return s.resp }

type stubBooking struct {
	resp bookingbrain.Response
	err  error
}

func (s stubBooking) Handle(ctx context.Context, req bookingbrain.Request) (bookingbrain.Response, error) {
	return s.resp, s.err
}

type stubSpeaker struct {
	spoken    []string
	hardStops int
	speaking  bool
}

func (s *stubSpeaker) Speak(ctx context.Context, text string) error {
	s.spoken = append(s.spoken, text)
	return nil
}
func (s *stubSpeaker) HardStop()          { s.hardStops++; s.speaking = false }
func (s *stubSpeaker) IsSpeaking() bool   { return s.speaking }

func newTestTenant() *tenant.Tenant {
	return &tenant.Tenant{ID: uuid.New(), Slug: "grand-hotel", Name: "Grand Hotel"}
}

func newTestMediator(chat ChatBrain, booking BookingBrain, speaker Speaker) *Mediator {
	return New(chat, booking, nil, ratelimit.NewMemoryLimiter(), newTestTenant(), speaker)
}

func TestVoiceAuthorityBlocksVoiceInForbiddenState(t *testing.T) {
	m := newTestMediator(stubChat{}, stubBooking{}, nil)
	m.mu.Lock()
	st := m.session("s1")
	st.state = fsm.ScanID
	m.mu.Unlock()

	res, err := m.Dispatch(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != fsm.ScanID {
		t.Errorf("state = %s, want unchanged SCAN_ID", res.State)
	}
}

func TestDedupSuppressesRepeatWithinWindow(t *testing.T) {
	chat := stubChat{resp: chatbrain.Response{Speech: "ok", Intent: "HELP_SELECTED", Confidence: 0.9}}
	m := newTestMediator(chat, stubBooking{}, nil)
	m.mu.Lock()
	m.session("s1").state = fsm.Welcome
	m.mu.Unlock()

	first, err := m.Dispatch(context.Background(), "s1", "help me please")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Deduped {
		t.Fatal("first dispatch should not be deduped")
	}

	// Wait out MinGap so the rate limiter admits the repeat; at ~650ms the
	// 800ms dedup window is still open.
	time.Sleep(ratelimit.MinGap + 50*time.Millisecond)

	second, err := m.Dispatch(context.Background(), "s1", "help me please")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Deduped {
		t.Error("identical transcript within dedup window should be suppressed")
	}
}

func TestRateLimitRejectsBurstBeyondWindowMax(t *testing.T) {
	chat := stubChat{resp: chatbrain.Response{Speech: "ok", Intent: "GENERAL_QUERY", Confidence: 0.9}}
	m := newTestMediator(chat, stubBooking{}, nil)
	m.mu.Lock()
	m.session("s1").state = fsm.Welcome
	m.mu.Unlock()

	accepted := 0
	for i := 0; i < ratelimit.WindowMax+2; i++ {
		res, err := m.Dispatch(context.Background(), "s1", "unique transcript number "+string(rune('a'+i)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.RateLimited {
			accepted++
		}
	}
	if accepted > ratelimit.WindowMax {
		t.Errorf("accepted %d intents, want at most %d within window", accepted, ratelimit.WindowMax)
	}
}

func TestPrivacyWipeClearsSessionOnReturnToWelcome(t *testing.T) {
	chat := stubChat{resp: chatbrain.Response{Speech: "bye", Intent: "CANCEL_REQUESTED", Confidence: 0.9}}
	m := newTestMediator(chat, stubBooking{}, nil)
	m.mu.Lock()
	st := m.session("s1")
	st.state = fsm.AIChat
	st.filledSlots.Adults = new(int)
	*st.filledSlots.Adults = 2
	m.mu.Unlock()

	res, err := m.Dispatch(context.Background(), "s1", "cancel this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != fsm.Welcome {
		t.Fatalf("state = %s, want WELCOME", res.State)
	}
	m.mu.Lock()
	_, exists := m.sessions["s1"]
	m.mu.Unlock()
	if exists {
		t.Error("session should be wiped after landing on WELCOME")
	}
}

func TestBookingCollectGuardrailOverridesOffSlotIntent(t *testing.T) {
	booking := stubBooking{resp: bookingbrain.Response{
		Speech: "Got it.", Intent: "SELECT_ROOM", Confidence: 0.8,
		AccumulatedSlots: bookingbrain.BookingSlots{Adults: intPtr(2)},
	}}
	m := newTestMediator(stubChat{}, booking, nil)
	m.mu.Lock()
	st := m.session("s1")
	st.state = fsm.BookingCollect
	st.activeSlot = "adults"
	m.mu.Unlock()

	res, err := m.Dispatch(context.Background(), "s1", "two")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Intent != fsm.ProvideGuests {
		t.Errorf("intent = %s, want PROVIDE_GUESTS (guardrail should override SELECT_ROOM)", res.Intent)
	}
}

func TestTouchPreemptionHardStopsSpeechBeforeDispatch(t *testing.T) {
	speaker := &stubSpeaker{speaking: true}
	m := newTestMediator(stubChat{}, stubBooking{}, speaker)
	m.mu.Lock()
	m.session("s1").state = fsm.Welcome
	m.mu.Unlock()

	res := m.DispatchTouch(context.Background(), "s1", fsm.BackRequested)
	if speaker.hardStops == 0 {
		t.Error("expected HardStop to be called for an interrupt-class touch intent while speaking")
	}
	// BACK_REQUESTED is overridden to the previous backbone state, so
	// WELCOME goes back to IDLE.
	if res.State != fsm.Idle {
		t.Errorf("state = %s, want IDLE", res.State)
	}
}

func TestCancelConfirmationFlow(t *testing.T) {
	booking := stubBooking{resp: bookingbrain.Response{Speech: "ok", Intent: "PROVIDE_GUESTS", Confidence: 0.9}}
	m := newTestMediator(stubChat{}, booking, nil)
	m.mu.Lock()
	m.session("s1").state = fsm.BookingCollect
	m.mu.Unlock()

	res, err := m.Dispatch(context.Background(), "s1", "cancel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != fsm.BookingCollect {
		t.Fatalf("state = %s, want unchanged pending confirmation", res.State)
	}

	res, err = m.Dispatch(context.Background(), "s1", "yes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != fsm.Idle {
		t.Errorf("state = %s, want IDLE after affirmative cancel confirmation", res.State)
	}
}

func TestHappyVoiceBookingFastPathRoomSelection(t *testing.T) {
	roomID := uuid.New()
	tn := newTestTenant()
	store := storage.NewMemoryStore(storage.RoomType{
		ID: roomID, TenantID: tn.ID, Code: "DELUXE_OCEAN", Name: "Ocean View Deluxe", Price: 200,
	})
	m := New(stubChat{}, stubBooking{}, store, ratelimit.NewMemoryLimiter(), tn, nil)
	m.mu.Lock()
	m.session("s1").state = fsm.RoomSelect
	m.mu.Unlock()

	res, err := m.Dispatch(context.Background(), "s1", "the ocean view deluxe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Intent != fsm.RoomSelected {
		t.Fatalf("intent = %s, want ROOM_SELECTED from fast path", res.Intent)
	}
	if res.State != fsm.BookingCollect {
		t.Errorf("state = %s, want BOOKING_COLLECT", res.State)
	}
}

func intPtr(n int) *int { return &n }
