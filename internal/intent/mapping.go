package intent

import (
	"strings"

	"kiosk/runtime/internal/fsm"
)

// knownIntents lists every strict enum value, used both for the exact-match
// pass and as the substring-fallback candidate set, per spec.md §4.6 step 3
// ("first explicit enum match, then substring fallbacks").
var knownIntents = []fsm.Intent{
	fsm.ProximityDetected, fsm.Reset,
	fsm.VoiceStarted, fsm.VoiceTranscriptReceived, fsm.VoiceSilence,
	fsm.BackRequested, fsm.CancelRequested, fsm.TouchSelected,
	fsm.CheckInSelected, fsm.BookRoomSelected, fsm.ScanCompleted, fsm.RoomSelected,
	fsm.ConfirmPayment, fsm.DispenseComplete,
	fsm.SelectRoom, fsm.ProvideGuests, fsm.ProvideDates, fsm.ProvideName,
	fsm.ConfirmBooking, fsm.ModifyBooking, fsm.CancelBooking,
	fsm.AskRoomDetail, fsm.AskPrice, fsm.CompareRooms,
	fsm.HelpSelected, fsm.GeneralQuery, fsm.ExplainCapabilities,
}

// MapIntent maps a fuzzy LLM-proposed intent string to the strict fsm.Intent
// enum: an exact (case-insensitive) match first, then a substring fallback,
// then Unknown, per spec.md §4.6 step 3 and §9 ("LLM as advisor, FSM as
// authority").
func MapIntent(raw string) fsm.Intent {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if trimmed == "" {
		return fsm.Unknown
	}
	for _, known := range knownIntents {
		if string(known) == trimmed {
			return known
		}
	}
	for _, known := range knownIntents {
		if strings.Contains(trimmed, string(known)) || strings.Contains(string(known), trimmed) {
			return known
		}
	}
	return fsm.Unknown
}

// slotIntent is the expected intent for each active booking slot, per
// spec.md §4.6 step 3 guardrail table.
var slotIntent = map[string]fsm.Intent{
	"adults":       fsm.ProvideGuests,
	"children":     fsm.ProvideGuests,
	"checkInDate":  fsm.ProvideDates,
	"checkOutDate": fsm.ProvideDates,
	"guestName":    fsm.ProvideName,
	"roomType":     fsm.SelectRoom,
}

// offSlotIntents are the LLM intents that trigger the BOOKING_COLLECT
// guardrail override when the transcript isn't an explicit topic change,
// per spec.md §4.6 step 3.
var offSlotIntents = map[fsm.Intent]bool{
	fsm.SelectRoom:   true,
	fsm.GeneralQuery: true,
	fsm.Unknown:      true,
}

var topicChangeKeywords = []string{
	"cancel", "back", "never mind", "nevermind", "start over", "modify", "change",
}

// isExplicitTopicChange reports whether a normalized transcript explicitly
// signals the guest wants to leave the active slot, per spec.md §4.6 step 3.
func isExplicitTopicChange(normalized string) bool {
	for _, kw := range topicChangeKeywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// applyGuardrail coerces mapped onto the active slot's expected intent when
// the LLM drifted off-topic without an explicit topic change, per spec.md
// §4.6 step 3 and the testable property "BOOKING_COLLECT guardrail".
func applyGuardrail(activeSlot string, mapped fsm.Intent, normalizedTranscript string) fsm.Intent {
	if activeSlot == "" {
		return mapped
	}
	expected, ok := slotIntent[activeSlot]
	if !ok {
		return mapped
	}
	if !offSlotIntents[mapped] {
		return mapped
	}
	if isExplicitTopicChange(normalizedTranscript) {
		return mapped
	}
	return expected
}

// slotExpectedType reports the BookingSlots normalization type for a slot
// name, per spec.md §4.9.
func slotExpectedType(slot string) string {
	switch slot {
	case "adults", "children":
		return "number"
	case "checkInDate", "checkOutDate":
		return "date"
	default:
		return "string"
	}
}

var affirmativeWords = map[string]bool{
	"yes": true, "yeah": true, "confirm": true, "sure": true, "ok": true,
	"okay": true, "proceed": true, "haan": true, "han": true, "ji": true, "correct": true,
}

var negativeWords = map[string]bool{
	"no": true, "nope": true, "continue": true, "nah": true, "nahi": true,
}

// cancelConfirmationVerdict classifies a transcript against the pending
// cancel-confirmation keyword sets, per spec.md §4.6 step 1.
type cancelConfirmationVerdict int

const (
	cancelUnclear cancelConfirmationVerdict = iota
	cancelAffirmative
	cancelNegative
)

func classifyCancelConfirmation(normalized string) cancelConfirmationVerdict {
	for word := range affirmativeWords {
		if containsWord(normalized, word) {
			return cancelAffirmative
		}
	}
	for word := range negativeWords {
		if containsWord(normalized, word) {
			return cancelNegative
		}
	}
	return cancelUnclear
}

func containsWord(s, word string) bool {
	for _, tok := range strings.Fields(s) {
		if tok == word {
			return true
		}
	}
	return false
}
