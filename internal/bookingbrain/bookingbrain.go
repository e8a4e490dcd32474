package bookingbrain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"kiosk/runtime/internal/fsm"
	"kiosk/runtime/internal/idempotency"
	"kiosk/runtime/internal/llmclient"
	"kiosk/runtime/internal/session"
	"kiosk/runtime/internal/storage"
	"kiosk/runtime/internal/tenant"
)

const genericErrorSpeech = "I'm having trouble understanding. Please use the touch screen."

// Brain answers booking slot-filling turns for one tenant.
type Brain struct {
	llm      *llmclient.Client
	sessions *session.Store
	store    storage.Store
	tenant   *tenant.Tenant
	secret   string
}

// New constructs a Brain bound to one tenant's room inventory and
// persistence layer.
func New(llm *llmclient.Client, sessions *session.Store, store storage.Store, t *tenant.Tenant, idempotencySecret string) *Brain {
	return &Brain{llm: llm, sessions: sessions, store: store, tenant: t, secret: idempotencySecret}
}

// Handle implements the full §4.9 algorithm. A non-nil error with
// storage.ErrDateConflict is the only expected error the caller must map
// to 409 BOOKING_DATE_CONFLICT; any other error is a 500.
func (b *Brain) Handle(ctx context.Context, req Request) (Response, error) {
	sess := b.sessions.GetOrCreate(req.SessionID)
	accumulated := fromMap(b.sessions.MergeSlots(req.SessionID, toMap(req.FilledSlots)))

	inventory, err := b.store.ListRoomTypes(ctx, b.tenant.ID)
	if err != nil {
		return genericError(), nil
	}

	reply, err := b.llm.Complete(ctx, []llmclient.Message{
		{Role: "system", Content: b.systemPrompt(accumulated, req, inventory)},
		{Role: "user", Content: req.Transcript},
	})
	if err != nil {
		return genericError(), nil
	}

	obj, ok := llmclient.ExtractFirstJSONObject(reply)
	if !ok {
		return genericError(), nil
	}
	raw, err := parseLLMResponse(obj)
	if err != nil {
		return genericError(), nil
	}

	intent := ApplyGuardrail(req.ActiveSlot, raw.Intent, req.Transcript)

	extracted := raw.ExtractedSlots
	if req.ActiveSlot != "" && slotIsEmpty(extracted, req.ActiveSlot) {
		synthesizeSlot(&extracted, req.ActiveSlot, req.ExpectedType, req.Transcript)
	}

	accumulated = mergeNonEmpty(accumulated, extracted)
	accumulated = resolveRoomAndPrice(accumulated, inventory)
	b.sessions.MergeSlots(req.SessionID, toMap(accumulated))

	missing := missingSlots(accumulated)
	isComplete := raw.IsComplete || len(missing) == 0
	nextSlot := ""
	if len(missing) > 0 {
		nextSlot = missing[0]
	}

	resp := Response{
		Speech:           raw.Speech,
		Intent:           intent,
		Confidence:       raw.Confidence,
		ExtractedSlots:   extracted,
		AccumulatedSlots: accumulated,
		MissingSlots:     missing,
		NextSlotToAsk:    nextSlot,
		IsComplete:       isComplete,
	}

	shouldPersist := (isComplete || intent == string(fsm.ConfirmBooking)) && len(missing) == 0
	if !shouldPersist {
		return resp, nil
	}

	room, found := ResolveRoom(derefString(accumulated.RoomType), toRoomTypes(inventory))
	if !found {
		return resp, nil
	}
	roomID := findRoomID(inventory, room.Code)

	key := idempotency.Key(b.secret, b.tenant.ID.String(), req.SessionID, roomID.String(),
		derefString(accumulated.CheckInDate), derefString(accumulated.CheckOutDate), derefString(accumulated.GuestName))

	persistReq := storage.PersistBookingRequest{
		TenantID:       b.tenant.ID,
		RoomTypeID:     roomID,
		GuestName:      derefString(accumulated.GuestName),
		CheckInDate:    derefString(accumulated.CheckInDate),
		CheckOutDate:   derefString(accumulated.CheckOutDate),
		Adults:         derefInt(accumulated.Adults),
		Children:       accumulated.Children,
		TotalPrice:     accumulated.TotalPrice,
		IdempotencyKey: key,
		Confirm:        intent == string(fsm.ConfirmBooking),
	}
	if sess.BookingID != "" {
		if id, err := uuid.Parse(sess.BookingID); err == nil {
			persistReq.ExistingBookingID = &id
		}
	}

	booking, err := b.store.PersistBooking(ctx, persistReq)
	if err != nil {
		if err == storage.ErrDateConflict {
			return resp, storage.ErrDateConflict
		}
		return genericError(), nil
	}

	b.sessions.SetBookingID(req.SessionID, booking.ID.String())
	resp.PersistedBookingID = booking.ID.String()
	return resp, nil
}

func genericError() Response {
	return Response{Speech: genericErrorSpeech, Intent: "UNKNOWN", Confidence: 0, MissingSlots: requiredSlots}
}

func (b *Brain) systemPrompt(current BookingSlots, req Request, inventory []storage.RoomType) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are the booking assistant for %s.\n", b.tenant.Name)
	sb.WriteString("Room inventory:\n")
	for _, rt := range inventory {
		fmt.Fprintf(&sb, "- %s (%s): $%.2f, amenities: %s\n", rt.Code, rt.Name, rt.Price, strings.Join(rt.Amenities, ", "))
	}
	fmt.Fprintf(&sb, "Current known slots: %+v\n", current)
	fmt.Fprintf(&sb, "Missing slots: %v\n", missingSlots(current))
	if req.ActiveSlot != "" {
		fmt.Fprintf(&sb, "Active slot awaiting a value: %s (expected type: %s)\n", req.ActiveSlot, req.ExpectedType)
	}
	if req.LastSystemPrompt != "" {
		fmt.Fprintf(&sb, "Last thing you asked the guest: %q\n", req.LastSystemPrompt)
	}
	sb.WriteString("Respond with exactly one JSON object: {\"speech\": string, \"intent\": string, \"confidence\": number 0..1, " +
		"\"extractedSlots\": {\"roomType\":string|null,\"adults\":number|null,\"children\":number|null," +
		"\"checkInDate\":string|null,\"checkOutDate\":string|null,\"guestName\":string|null}, \"isComplete\": boolean}. No other text.")
	return sb.String()
}

func slotIsEmpty(s BookingSlots, slot string) bool {
	switch slot {
	case "roomType":
		return s.RoomType == nil || *s.RoomType == ""
	case "adults":
		return s.Adults == nil
	case "children":
		return s.Children == nil
	case "checkInDate":
		return s.CheckInDate == nil || *s.CheckInDate == ""
	case "checkOutDate":
		return s.CheckOutDate == nil || *s.CheckOutDate == ""
	case "guestName":
		return s.GuestName == nil || *s.GuestName == ""
	default:
		return true
	}
}

func synthesizeSlot(s *BookingSlots, slot, expectedType, transcript string) {
	val, ok := NormalizeSlotValue(expectedType, transcript)
	if !ok {
		return
	}
	switch slot {
	case "adults":
		if n, ok := val.(int); ok {
			s.Adults = &n
		}
	case "children":
		if n, ok := val.(int); ok {
			s.Children = &n
		}
	case "checkInDate":
		if v, ok := val.(string); ok {
			s.CheckInDate = &v
		}
	case "checkOutDate":
		if v, ok := val.(string); ok {
			s.CheckOutDate = &v
		}
	case "guestName":
		if v, ok := val.(string); ok {
			s.GuestName = &v
		}
	case "roomType":
		if v, ok := val.(string); ok {
			s.RoomType = &v
		}
	}
}

func resolveRoomAndPrice(s BookingSlots, inventory []storage.RoomType) BookingSlots {
	if s.RoomType == nil {
		return s
	}
	room, found := ResolveRoom(*s.RoomType, toRoomTypes(inventory))
	if !found {
		return s
	}
	resolvedCode := room.Code
	s.RoomType = &resolvedCode

	if s.CheckInDate != nil && s.CheckOutDate != nil {
		checkIn, err1 := time.Parse("2006-01-02", *s.CheckInDate)
		checkOut, err2 := time.Parse("2006-01-02", *s.CheckOutDate)
		if err1 == nil && err2 == nil && checkOut.After(checkIn) {
			nights := storage.Nights(checkIn, checkOut)
			s.Nights = &nights
			for _, rt := range inventory {
				if rt.Code == resolvedCode {
					price := float64(nights) * rt.Price
					s.TotalPrice = &price
					break
				}
			}
		}
	}
	return s
}

func toRoomTypes(inventory []storage.RoomType) []roomType {
	out := make([]roomType, len(inventory))
	for i, rt := range inventory {
		out[i] = roomType{Code: rt.Code, Name: rt.Name}
	}
	return out
}

func findRoomID(inventory []storage.RoomType, code string) uuid.UUID {
	for _, rt := range inventory {
		if rt.Code == code {
			return rt.ID
		}
	}
	return uuid.Nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
