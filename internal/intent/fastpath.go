package intent

import (
	"context"
	"regexp"
	"strings"

	"kiosk/runtime/internal/fsm"
)

var (
	backPattern   = regexp.MustCompile(`\b(back|go back|previous)\b`)
	cancelPattern = regexp.MustCompile(`\b(cancel|start over)\b`)

	confirmPaymentPattern = regexp.MustCompile(`\b(confirm|yes|proceed)\b`)
	modifyPattern         = regexp.MustCompile(`\b(modify|change|edit)\b`)
	payPattern            = regexp.MustCompile(`\b(pay|confirm payment|card)\b`)

	bookSignalPattern   = regexp.MustCompile(`\b(book|booking|reserve|reservation)\b`)
	checkInPattern      = regexp.MustCompile(`\b(check.?in|check in)\b`)
	helpPattern         = regexp.MustCompile(`\b(help|human|manager|agent)\b`)
	infoQueryPattern    = regexp.MustCompile(`\b(amenit|price|cost|compare)\b`)
)

// fastPath tries to resolve a normalized transcript to an intent without
// calling the LLM, per spec.md §4.6 step 2. ok is false when no
// deterministic rule matched and the LLM path must be tried instead.
// resolvedRoomCode is set only when ROOM_SELECT resolved a room, so the
// caller can seed the session's RoomType slot before entering
// BOOKING_COLLECT.
func (m *Mediator) fastPath(ctx context.Context, state fsm.UiState, normalized string) (mapped fsm.Intent, resolvedRoomCode string, ok bool) {
	if backPattern.MatchString(normalized) {
		return fsm.BackRequested, "", true
	}
	if state != fsm.Idle && cancelPattern.MatchString(normalized) {
		return fsm.CancelRequested, "", true
	}

	switch state {
	case fsm.BookingSummary:
		if confirmPaymentPattern.MatchString(normalized) {
			return fsm.ConfirmPayment, "", true
		}
		if modifyPattern.MatchString(normalized) {
			return fsm.ModifyBooking, "", true
		}
	case fsm.Payment:
		if payPattern.MatchString(normalized) {
			return fsm.ConfirmPayment, "", true
		}
	case fsm.Welcome, fsm.AIChat, fsm.ManualMenu:
		if helpPattern.MatchString(normalized) {
			return fsm.HelpSelected, "", true
		}
		if checkInPattern.MatchString(normalized) {
			return fsm.CheckInSelected, "", true
		}
		if bookSignalPattern.MatchString(normalized) {
			return fsm.BookRoomSelected, "", true
		}
	case fsm.RoomSelect:
		if infoQueryPattern.MatchString(normalized) {
			return "", "", false
		}
		if code, found := m.resolveRoomFastPath(ctx, normalized); found {
			return fsm.RoomSelected, code, true
		}
		return "", "", false
	}
	return "", "", false
}

// resolveRoomFastPath matches a spoken room reference against the tenant's
// live inventory: exact code, substring of name, or family keyword, per
// spec.md §4.6 step 2 ("exact code/name, keyword class"). It does not
// attempt ordinal/deixis resolution ("the first one") — that ambiguity is
// left to the booking brain's slot-filling turn if the fast path misses.
func (m *Mediator) resolveRoomFastPath(ctx context.Context, normalized string) (string, bool) {
	if m.rooms == nil || m.tenant == nil {
		return "", false
	}
	rooms, err := m.rooms.ListRoomTypes(ctx, m.tenant.ID)
	if err != nil {
		return "", false
	}
	for _, r := range rooms {
		if strings.Contains(normalized, strings.ToLower(r.Code)) {
			return r.Code, true
		}
	}
	for _, r := range rooms {
		if strings.Contains(normalized, strings.ToLower(r.Name)) {
			return r.Code, true
		}
	}
	for _, kw := range []string{"deluxe", "standard", "presidential"} {
		if strings.Contains(normalized, kw) {
			for _, r := range rooms {
				if strings.Contains(strings.ToLower(r.Code), kw) || strings.Contains(strings.ToLower(r.Name), kw) {
					return r.Code, true
				}
			}
		}
	}
	return "", false
}
