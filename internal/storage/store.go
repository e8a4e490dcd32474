package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrRoomTypeNotFound is returned when a room code/id does not resolve
// within the tenant's inventory.
var ErrRoomTypeNotFound = errors.New("room type not found")

// ErrDateConflict is returned by PersistBooking when the requested range
// overlaps an existing CONFIRMED booking for the same room, per spec.md §8
// scenario 4 (BOOKING_DATE_CONFLICT).
var ErrDateConflict = errors.New("booking date conflict")

// PersistBookingRequest carries everything needed to upsert one slot-filling
// attempt, per spec.md §4.9.
type PersistBookingRequest struct {
	TenantID       uuid.UUID
	RoomTypeID     uuid.UUID
	GuestName      string
	CheckInDate    string // ISO YYYY-MM-DD
	CheckOutDate   string
	Adults         int
	Children       *int
	TotalPrice     *float64
	IdempotencyKey string
	// ExistingBookingID is the session's already-known draft, if any; when
	// set and owned by this tenant, the row is updated in place rather than
	// inserted.
	ExistingBookingID *uuid.UUID
	Confirm           bool
}

// Store is the persistence surface the booking brain depends on. It is
// small enough that an in-memory fake can stand in for tests without a live
// Postgres instance.
type Store interface {
	ListRoomTypes(ctx context.Context, tenantID uuid.UUID) ([]RoomType, error)
	FindRoomType(ctx context.Context, tenantID uuid.UUID, code string) (*RoomType, error)

	// PersistBooking runs the full §4.9 persistence algorithm inside a single
	// transaction: overlap check against CONFIRMED bookings, then
	// update-existing / return-matching-draft / insert-new, in that order.
	PersistBooking(ctx context.Context, req PersistBookingRequest) (*Booking, error)

	Close() error
}
