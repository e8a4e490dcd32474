// Package fsm implements the kiosk's pure screen-state transition table.
package fsm

// UiState is a kiosk screen state. It is immutable per turn: only the
// transition table in fsm.go ever produces a new one.
type UiState string

const (
	Idle            UiState = "IDLE"
	Welcome         UiState = "WELCOME"
	AIChat          UiState = "AI_CHAT"
	ManualMenu      UiState = "MANUAL_MENU"
	ScanID          UiState = "SCAN_ID"
	RoomSelect      UiState = "ROOM_SELECT"
	BookingCollect  UiState = "BOOKING_COLLECT"
	BookingSummary  UiState = "BOOKING_SUMMARY"
	Payment         UiState = "PAYMENT"
	KeyDispensing   UiState = "KEY_DISPENSING"
	Complete        UiState = "COMPLETE"
	Error           UiState = "ERROR"
)

// Intent is a routed, machine-level intent. The LLM never drives a
// transition directly — every path into the FSM goes through one of these.
type Intent string

const (
	// System
	ProximityDetected Intent = "PROXIMITY_DETECTED"
	Reset             Intent = "RESET"

	// Voice
	VoiceStarted            Intent = "VOICE_STARTED"
	VoiceTranscriptReceived Intent = "VOICE_TRANSCRIPT_RECEIVED"
	VoiceSilence            Intent = "VOICE_SILENCE"

	// Navigation
	BackRequested   Intent = "BACK_REQUESTED"
	CancelRequested Intent = "CANCEL_REQUESTED"
	TouchSelected   Intent = "TOUCH_SELECTED"

	// Core flow
	CheckInSelected Intent = "CHECK_IN_SELECTED"
	BookRoomSelected Intent = "BOOK_ROOM_SELECTED"
	ScanCompleted   Intent = "SCAN_COMPLETED"
	RoomSelected    Intent = "ROOM_SELECTED"
	ConfirmPayment  Intent = "CONFIRM_PAYMENT"
	DispenseComplete Intent = "DISPENSE_COMPLETE"

	// Booking slot-filling
	SelectRoom     Intent = "SELECT_ROOM"
	ProvideGuests  Intent = "PROVIDE_GUESTS"
	ProvideDates   Intent = "PROVIDE_DATES"
	ProvideName    Intent = "PROVIDE_NAME"
	ConfirmBooking Intent = "CONFIRM_BOOKING"
	ModifyBooking  Intent = "MODIFY_BOOKING"
	CancelBooking  Intent = "CANCEL_BOOKING"
	AskRoomDetail  Intent = "ASK_ROOM_DETAIL"
	AskPrice       Intent = "ASK_PRICE"
	CompareRooms   Intent = "COMPARE_ROOMS"

	// Conversational
	HelpSelected        Intent = "HELP_SELECTED"
	GeneralQuery        Intent = "GENERAL_QUERY"
	ExplainCapabilities Intent = "EXPLAIN_CAPABILITIES"

	// Unknown is never produced by the FSM table; it is a valid LLM-mapped
	// intent with no table entry, so Transition treats it as a No-Op.
	Unknown Intent = "UNKNOWN"
)

// Metadata describes UI affordances for a state that the FSM itself doesn't
// encode in the transition table (e.g. whether a back button should render).
type Metadata struct {
	CanGoBack bool
}
