package bookingbrain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"kiosk/runtime/internal/llmclient"
	"kiosk/runtime/internal/session"
	"kiosk/runtime/internal/storage"
	"kiosk/runtime/internal/tenant"
)

func newTestSetup(t *testing.T, llmResponse string) (*Brain, *storage.MemoryStore, uuid.UUID) {
	t.Helper()
	tenantID := uuid.New()
	roomID := uuid.New()
	store := storage.NewMemoryStore(storage.RoomType{
		ID: roomID, TenantID: tenantID, Code: "DELUXE_OCEAN", Name: "Ocean View Deluxe", Price: 200,
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": llmResponse}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	llm := llmclient.New(srv.URL, "key", "model")
	sessions := session.NewStore()
	tn := &tenant.Tenant{ID: tenantID, Slug: "grand-hotel", Name: "Grand Hotel"}
	brain := New(llm, sessions, store, tn, "test-secret")
	return brain, store, roomID
}

func TestHandleExtractsAndAccumulatesSlots(t *testing.T) {
	resp := `{"speech":"Got it.","intent":"PROVIDE_GUESTS","confidence":0.9,"extractedSlots":{"adults":2},"isComplete":false}`
	brain, _, _ := newTestSetup(t, resp)

	got, err := brain.Handle(context.Background(), Request{
		Transcript:   "two adults",
		CurrentState: "BOOKING_COLLECT",
		SessionID:    "s1",
		ActiveSlot:   "adults",
		ExpectedType: "number",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AccumulatedSlots.Adults == nil || *got.AccumulatedSlots.Adults != 2 {
		t.Errorf("accumulated adults = %+v, want 2", got.AccumulatedSlots.Adults)
	}
}

func TestHandleGuardrailOverridesOffSlotIntent(t *testing.T) {
	resp := `{"speech":"Sure.","intent":"SELECT_ROOM","confidence":0.7,"extractedSlots":{},"isComplete":false}`
	brain, _, _ := newTestSetup(t, resp)

	got, err := brain.Handle(context.Background(), Request{
		Transcript:   "two",
		CurrentState: "BOOKING_COLLECT",
		SessionID:    "s1",
		ActiveSlot:   "adults",
		ExpectedType: "number",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Intent != "PROVIDE_GUESTS" {
		t.Errorf("intent = %q, want PROVIDE_GUESTS (guardrail should override)", got.Intent)
	}
	if got.ExtractedSlots.Adults == nil || *got.ExtractedSlots.Adults != 2 {
		t.Errorf("expected synthesized adults=2 from transcript, got %+v", got.ExtractedSlots.Adults)
	}
}

func TestHandlePersistsCompleteBooking(t *testing.T) {
	resp := `{"speech":"Booked.","intent":"CONFIRM_BOOKING","confidence":0.95,"extractedSlots":{},"isComplete":true}`
	brain, _, _ := newTestSetup(t, resp)

	got, err := brain.Handle(context.Background(), Request{
		Transcript:   "confirm",
		CurrentState: "BOOKING_SUMMARY",
		SessionID:    "s1",
		FilledSlots: BookingSlots{
			RoomType:     ptrStr("DELUXE_OCEAN"),
			Adults:       ptrInt(2),
			CheckInDate:  ptrStr("2026-02-13"),
			CheckOutDate: ptrStr("2026-02-15"),
			GuestName:    ptrStr("John Smith"),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PersistedBookingID == "" {
		t.Fatal("expected a persisted booking id")
	}
	if got.AccumulatedSlots.Nights == nil || *got.AccumulatedSlots.Nights != 2 {
		t.Errorf("nights = %+v, want 2", got.AccumulatedSlots.Nights)
	}
}

func TestHandleReturnsDateConflict(t *testing.T) {
	resp := `{"speech":"Booked.","intent":"CONFIRM_BOOKING","confidence":0.95,"extractedSlots":{},"isComplete":true}`
	brain, store, roomID := newTestSetup(t, resp)

	_, err := store.PersistBooking(context.Background(), storage.PersistBookingRequest{
		TenantID: brainTenantID(brain), RoomTypeID: roomID,
		GuestName: "Existing Guest", CheckInDate: "2026-02-13", CheckOutDate: "2026-02-16",
		Adults: 1, IdempotencyKey: "seed-key", Confirm: true,
	})
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	_, err = brain.Handle(context.Background(), Request{
		Transcript:   "confirm",
		CurrentState: "BOOKING_SUMMARY",
		SessionID:    "s2",
		FilledSlots: BookingSlots{
			RoomType:     ptrStr("DELUXE_OCEAN"),
			Adults:       ptrInt(2),
			CheckInDate:  ptrStr("2026-02-14"),
			CheckOutDate: ptrStr("2026-02-15"),
			GuestName:    ptrStr("New Guest"),
		},
	})
	if err != storage.ErrDateConflict {
		t.Errorf("err = %v, want ErrDateConflict", err)
	}
}

func ptrStr(s string) *string { return &s }
func ptrInt(n int) *int       { return &n }

func brainTenantID(b *Brain) uuid.UUID { return b.tenant.ID }
