// Package bookingbrain implements the Booking Brain: a tenant-scoped,
// slot-filling HTTP endpoint that extracts BookingSlots from a transcript,
// applies guardrails against the active slot, resolves a room from the
// tenant's inventory, and persists drafts with idempotency and overlap
// checks, per spec.md §4.9.
package bookingbrain

// BookingSlots is the partial/complete booking the brain accumulates across
// turns, per spec.md §3.
type BookingSlots struct {
	RoomType     *string  `json:"roomType,omitempty"`
	Adults       *int     `json:"adults,omitempty"`
	Children     *int     `json:"children,omitempty"`
	CheckInDate  *string  `json:"checkInDate,omitempty"`
	CheckOutDate *string  `json:"checkOutDate,omitempty"`
	GuestName    *string  `json:"guestName,omitempty"`
	Nights       *int     `json:"nights,omitempty"`
	TotalPrice   *float64 `json:"totalPrice,omitempty"`
}

// Request is the booking brain's input, extending the general chat
// request with slot-filling context, per spec.md §4.9.
type Request struct {
	Transcript       string
	CurrentState     string
	SessionID        string
	ActiveSlot       string
	ExpectedType     string // "number" | "date" | "string"
	LastSystemPrompt string
	FilledSlots      BookingSlots
}

// Response extends the chat brain's shape with slot-filling bookkeeping,
// per spec.md §4.9/§6.
type Response struct {
	Speech             string       `json:"speech"`
	Intent             string       `json:"intent"`
	Confidence         float64      `json:"confidence"`
	ExtractedSlots     BookingSlots `json:"extractedSlots"`
	AccumulatedSlots   BookingSlots `json:"accumulatedSlots"`
	MissingSlots       []string     `json:"missingSlots"`
	NextSlotToAsk      string       `json:"nextSlotToAsk,omitempty"`
	IsComplete         bool         `json:"isComplete"`
	PersistedBookingID string       `json:"persistedBookingId,omitempty"`
}

// requiredSlots is the fixed set of slots that must be filled (with a
// resolved room) before a booking can be persisted, per spec.md §4.9.
var requiredSlots = []string{"roomType", "adults", "checkInDate", "checkOutDate", "guestName"}

func missingSlots(s BookingSlots) []string {
	var out []string
	if s.RoomType == nil || *s.RoomType == "" {
		out = append(out, "roomType")
	}
	if s.Adults == nil {
		out = append(out, "adults")
	}
	if s.CheckInDate == nil || *s.CheckInDate == "" {
		out = append(out, "checkInDate")
	}
	if s.CheckOutDate == nil || *s.CheckOutDate == "" {
		out = append(out, "checkOutDate")
	}
	if s.GuestName == nil || *s.GuestName == "" {
		out = append(out, "guestName")
	}
	return out
}
