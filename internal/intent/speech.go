package intent

import (
	"strings"

	"kiosk/runtime/internal/bookingbrain"
	"kiosk/runtime/internal/fsm"
)

// stateSpeechMap holds each state's onboarding prompt, spoken whenever a
// transition lands on it, per spec.md §4.6 step 4 ("speak the state's
// onboarding prompt from STATE_SPEECH_MAP with {{TENANT_NAME}}
// substitution"). BOOKING_COLLECT has no static entry: its prompt is
// computed from filled slots by nextSlotPrompt below.
var stateSpeechMap = map[fsm.UiState]string{
	fsm.Welcome:        "Welcome to {{TENANT_NAME}}. Tap the screen or say something to begin.",
	fsm.AIChat:         "I'm listening. How can I help you today?",
	fsm.ManualMenu:     "Please choose an option on the screen.",
	fsm.ScanID:         "Please scan your ID to check in.",
	fsm.RoomSelect:     "Sure. I am fetching available rooms for you.",
	fsm.BookingSummary: "Here's a summary of your booking. Would you like to confirm?",
	fsm.Payment:        "Please complete your payment to continue.",
	fsm.KeyDispensing:  "Dispensing your room key now.",
	fsm.Complete:       "You're all set. Enjoy your stay at {{TENANT_NAME}}.",
	fsm.Error:          "Something went wrong. Please tap the screen to continue.",
}

// onboardingSpeech resolves the spoken prompt for entering state, expanding
// {{TENANT_NAME}} against the mediator's tenant.
func (m *Mediator) onboardingSpeech(state fsm.UiState, slots bookingbrain.BookingSlots) string {
	if state == fsm.BookingCollect {
		_, prompt := nextSlotPrompt(slots)
		return prompt
	}
	prompt, ok := stateSpeechMap[state]
	if !ok {
		return ""
	}
	name := ""
	if m.tenant != nil {
		name = m.tenant.Name
	}
	return strings.ReplaceAll(prompt, "{{TENANT_NAME}}", name)
}

// slotPrompts are the canned fragments the mediator speaks when asking for
// each booking slot, in the fixed order spec.md §4.9 lists required slots.
var slotPrompts = []struct {
	slot   string
	prompt string
}{
	{"roomType", "Which room would you like?"},
	{"adults", "How many adults and children will be staying?"},
	{"checkInDate", "What are your check-in and check-out dates?"},
	{"checkOutDate", "What are your check-in and check-out dates?"},
	{"guestName", "What name should I put the reservation under?"},
}

// nextSlotPrompt picks the first unfilled slot (in fixed order) and its
// prompt fragment, per spec.md §4.6 step 4 ("compute the next-slot prompt
// from filled slots").
func nextSlotPrompt(slots bookingbrain.BookingSlots) (string, string) {
	for _, sp := range slotPrompts {
		if slotIsFilled(slots, sp.slot) {
			continue
		}
		return sp.slot, sp.prompt
	}
	return "", "Let's confirm your booking details."
}

func slotIsFilled(s bookingbrain.BookingSlots, slot string) bool {
	switch slot {
	case "roomType":
		return s.RoomType != nil && *s.RoomType != ""
	case "adults":
		return s.Adults != nil
	case "checkInDate":
		return s.CheckInDate != nil && *s.CheckInDate != ""
	case "checkOutDate":
		return s.CheckOutDate != nil && *s.CheckOutDate != ""
	case "guestName":
		return s.GuestName != nil && *s.GuestName != ""
	default:
		return true
	}
}
