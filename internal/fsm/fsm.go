package fsm

// transitions is the single authority on legal kiosk flow. Any (state,
// intent) pair absent from this table is a No-Op: Transition returns the
// input state unchanged.
var transitions = map[UiState]map[Intent]UiState{
	Idle: {
		ProximityDetected: Welcome,
	},
	Welcome: {
		TouchSelected:    ManualMenu,
		VoiceStarted:     AIChat,
		BookRoomSelected: RoomSelect,
		CheckInSelected:  ScanID,
	},
	AIChat: {
		CheckInSelected:  ScanID,
		BookRoomSelected: RoomSelect,
		BackRequested:    Welcome,
		CancelRequested:  Welcome,
	},
	ManualMenu: {
		CheckInSelected:  ScanID,
		BookRoomSelected: RoomSelect,
		BackRequested:    Welcome,
		CancelRequested:  Welcome,
	},
	ScanID: {
		ScanCompleted:   RoomSelect,
		BackRequested:   ManualMenu,
		CancelRequested: Welcome,
	},
	RoomSelect: {
		RoomSelected:    BookingCollect,
		BackRequested:   ManualMenu,
		CancelRequested: Welcome,
	},
	BookingCollect: {
		ProvideGuests:   BookingCollect,
		ProvideDates:    BookingCollect,
		ProvideName:     BookingCollect,
		SelectRoom:      BookingCollect,
		AskRoomDetail:   BookingCollect,
		AskPrice:        BookingCollect,
		CompareRooms:    BookingCollect,
		GeneralQuery:    BookingCollect,
		ModifyBooking:   BookingCollect,
		HelpSelected:    BookingCollect,
		ConfirmBooking:  BookingSummary,
		BackRequested:   RoomSelect,
		CancelBooking:   RoomSelect,
		Reset:           Idle,
	},
	BookingSummary: {
		ConfirmPayment: Payment,
		ModifyBooking:  BookingCollect,
		BackRequested:  BookingCollect,
		CancelBooking:  Welcome,
		Reset:          Idle,
	},
	Payment: {
		ConfirmPayment:  KeyDispensing,
		BackRequested:   RoomSelect,
		CancelRequested: Welcome,
	},
	KeyDispensing: {
		DispenseComplete: Complete,
	},
	Complete: {
		ProximityDetected: Welcome,
		Reset:             Idle,
	},
	Error: {
		TouchSelected:   Welcome,
		BackRequested:   Welcome,
		CancelRequested: Welcome,
	},
}

// previousState is the linear backbone used by getPreviousState, with
// non-linear exits for states reached from multiple entry points.
var previousState = map[UiState]UiState{
	Welcome:        Idle,
	ScanID:         Welcome,
	RoomSelect:     ScanID,
	Payment:        RoomSelect,
	ManualMenu:     Welcome,
	AIChat:         Welcome,
	Error:          Welcome,
	BookingCollect: RoomSelect,
	BookingSummary: BookingCollect,
	KeyDispensing:  Payment,
	Complete:       KeyDispensing,
}

var metadata = map[UiState]Metadata{
	Idle:           {CanGoBack: false},
	Welcome:        {CanGoBack: false},
	AIChat:         {CanGoBack: true},
	ManualMenu:     {CanGoBack: true},
	ScanID:         {CanGoBack: true},
	RoomSelect:     {CanGoBack: true},
	BookingCollect: {CanGoBack: true},
	BookingSummary: {CanGoBack: true},
	Payment:        {CanGoBack: true},
	KeyDispensing:  {CanGoBack: false},
	Complete:       {CanGoBack: false},
	Error:          {CanGoBack: false},
}

// Transition computes the next UiState for (state, intent). It is pure:
// no side effects, no shared mutable state. Unknown pairs are a No-Op.
func Transition(state UiState, intent Intent) UiState {
	byIntent, ok := transitions[state]
	if !ok {
		return state
	}
	next, ok := byIntent[intent]
	if !ok {
		return state
	}
	return next
}

// GetMetadata returns UI affordances for state. Unknown states get the
// zero value (no back button).
func GetMetadata(state UiState) Metadata {
	return metadata[state]
}

// GetPreviousState follows the linear backbone for BACK_REQUESTED and
// CANCEL_REQUESTED overrides in the intent mediator.
func GetPreviousState(state UiState) UiState {
	prev, ok := previousState[state]
	if !ok {
		return Idle
	}
	return prev
}

// VoiceAuthority reports whether voice input is accepted while in state.
// States with hardware or security concerns (SCAN_ID, PAYMENT,
// KEY_DISPENSING, COMPLETE, ERROR) and IDLE are voice-off.
func VoiceAuthority(state UiState) bool {
	switch state {
	case Welcome, AIChat, ManualMenu, RoomSelect, BookingCollect, BookingSummary:
		return true
	default:
		return false
	}
}
