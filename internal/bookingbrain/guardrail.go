package bookingbrain

import (
	"strings"

	"kiosk/runtime/internal/fsm"
)

// topicChangeKeywords are the explicit phrases that let a transcript
// escape the active-slot guardrail even while a slot is pending, per
// spec.md §4.9.
var topicChangeKeywords = []string{
	"cancel", "back", "never mind", "nevermind", "start over", "modify", "change",
}

// IsExplicitTopicChange reports whether the transcript names one of the
// fixed topic-change phrases.
func IsExplicitTopicChange(transcript string) bool {
	lower := strings.ToLower(transcript)
	for _, kw := range topicChangeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// slotIntent maps an active slot name to the intent the guardrail coerces
// toward when the LLM drifts off it, per spec.md §4.9.
var slotIntent = map[string]string{
	"adults":       string(fsm.ProvideGuests),
	"children":     string(fsm.ProvideGuests),
	"checkInDate":  string(fsm.ProvideDates),
	"checkOutDate": string(fsm.ProvideDates),
	"guestName":    string(fsm.ProvideName),
	"roomType":     string(fsm.SelectRoom),
}

// allowedWhileSlotActive is the fixed set of intents the guardrail leaves
// untouched even with an active slot, per spec.md §4.9.
var allowedWhileSlotActive = map[string]bool{
	string(fsm.ProvideGuests):    true,
	string(fsm.ProvideDates):     true,
	string(fsm.ProvideName):      true,
	string(fsm.ModifyBooking):    true,
	string(fsm.CancelBooking):    true,
	string(fsm.BackRequested):    true,
}

// ApplyGuardrail overrides intent to the active slot's expected intent when
// the LLM proposed something else and the transcript is not an explicit
// topic change. Returns the (possibly overridden) intent.
func ApplyGuardrail(activeSlot, llmIntent, transcript string) string {
	if activeSlot == "" {
		return llmIntent
	}
	if allowedWhileSlotActive[llmIntent] {
		return llmIntent
	}
	if IsExplicitTopicChange(transcript) {
		return llmIntent
	}
	if expected, ok := slotIntent[activeSlot]; ok {
		return expected
	}
	return llmIntent
}
