package fsm

import "testing"

func TestTransitionCanonicalTable(t *testing.T) {
	cases := []struct {
		from   UiState
		intent Intent
		to     UiState
	}{
		{Idle, ProximityDetected, Welcome},
		{Welcome, TouchSelected, ManualMenu},
		{Welcome, VoiceStarted, AIChat},
		{Welcome, BookRoomSelected, RoomSelect},
		{Welcome, CheckInSelected, ScanID},
		{AIChat, CheckInSelected, ScanID},
		{AIChat, BackRequested, Welcome},
		{AIChat, CancelRequested, Welcome},
		{ManualMenu, BookRoomSelected, RoomSelect},
		{ScanID, ScanCompleted, RoomSelect},
		{ScanID, BackRequested, ManualMenu},
		{ScanID, CancelRequested, Welcome},
		{RoomSelect, RoomSelected, BookingCollect},
		{RoomSelect, BackRequested, ManualMenu},
		{BookingCollect, ProvideGuests, BookingCollect},
		{BookingCollect, ConfirmBooking, BookingSummary},
		{BookingCollect, BackRequested, RoomSelect},
		{BookingCollect, CancelBooking, RoomSelect},
		{BookingCollect, Reset, Idle},
		{BookingSummary, ConfirmPayment, Payment},
		{BookingSummary, ModifyBooking, BookingCollect},
		{BookingSummary, CancelBooking, Welcome},
		{Payment, ConfirmPayment, KeyDispensing},
		{Payment, BackRequested, RoomSelect},
		{Payment, CancelRequested, Welcome},
		{KeyDispensing, DispenseComplete, Complete},
		{Complete, ProximityDetected, Welcome},
		{Complete, Reset, Idle},
		{Error, TouchSelected, Welcome},
		{Error, BackRequested, Welcome},
		{Error, CancelRequested, Welcome},
	}
	for _, c := range cases {
		got := Transition(c.from, c.intent)
		if got != c.to {
			t.Errorf("Transition(%s, %s) = %s, want %s", c.from, c.intent, got, c.to)
		}
	}
}

func TestTransitionNoOpOnUnknownPair(t *testing.T) {
	states := []UiState{Idle, Welcome, AIChat, ManualMenu, ScanID, RoomSelect,
		BookingCollect, BookingSummary, Payment, KeyDispensing, Complete, Error}
	for _, s := range states {
		if got := Transition(s, Intent("NOT_A_REAL_INTENT")); got != s {
			t.Errorf("Transition(%s, unknown) = %s, want no-op %s", s, got, s)
		}
	}
}

func TestTransitionIsPure(t *testing.T) {
	// Repeated calls with the same input must return the same output and
	// must not depend on any prior call's state.
	first := Transition(Welcome, BookRoomSelected)
	for i := 0; i < 5; i++ {
		if got := Transition(Welcome, BookRoomSelected); got != first {
			t.Fatalf("Transition is not pure: got %s on call %d, want %s", got, i, first)
		}
	}
}

func TestKeyDispensingOnlyAdvancesOnDispenseComplete(t *testing.T) {
	others := []Intent{BackRequested, CancelRequested, TouchSelected, Reset, ConfirmPayment}
	for _, intent := range others {
		if got := Transition(KeyDispensing, intent); got != KeyDispensing {
			t.Errorf("KeyDispensing should reject %s, got %s", intent, got)
		}
	}
	if got := Transition(KeyDispensing, DispenseComplete); got != Complete {
		t.Errorf("KeyDispensing + DispenseComplete = %s, want COMPLETE", got)
	}
}

func TestGetPreviousStateBackbone(t *testing.T) {
	cases := map[UiState]UiState{
		Welcome:    Idle,
		ScanID:     Welcome,
		RoomSelect: ScanID,
		Payment:    RoomSelect,
		ManualMenu: Welcome,
		AIChat:     Welcome,
		Error:      Welcome,
	}
	for state, want := range cases {
		if got := GetPreviousState(state); got != want {
			t.Errorf("GetPreviousState(%s) = %s, want %s", state, got, want)
		}
	}
}

func TestGetMetadataCanGoBack(t *testing.T) {
	if GetMetadata(Idle).CanGoBack {
		t.Error("IDLE should not allow back")
	}
	if !GetMetadata(RoomSelect).CanGoBack {
		t.Error("ROOM_SELECT should allow back")
	}
	if GetMetadata(KeyDispensing).CanGoBack {
		t.Error("KEY_DISPENSING should not allow back")
	}
}

func TestVoiceAuthorityMatrix(t *testing.T) {
	allowed := []UiState{Welcome, AIChat, ManualMenu, RoomSelect, BookingCollect, BookingSummary}
	for _, s := range allowed {
		if !VoiceAuthority(s) {
			t.Errorf("VoiceAuthority(%s) = false, want true", s)
		}
	}
	// Stricter reading of the payment voice-authority ambiguity: PAYMENT
	// is treated as voice-off along with the other hardware/security states.
	forbidden := []UiState{Idle, ScanID, Payment, KeyDispensing, Complete, Error}
	for _, s := range forbidden {
		if VoiceAuthority(s) {
			t.Errorf("VoiceAuthority(%s) = true, want false", s)
		}
	}
}
