// Package storage persists room inventory and bookings, enforcing the
// booking invariants from spec.md §3/§6: checkOut > checkIn, adults >= 1,
// nights = ceil(days), a unique (tenantId, idempotencyKey) pair, and no two
// CONFIRMED bookings overlapping on (tenantId, roomTypeId).
package storage

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a persisted booking.
type BookingStatus string

const (
	StatusDraft     BookingStatus = "DRAFT"
	StatusConfirmed BookingStatus = "CONFIRMED"
)

// RoomType is one bookable room category for a tenant.
type RoomType struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Code      string
	Name      string
	Price     float64
	Amenities []string
}

// Booking is a draft or confirmed reservation against a RoomType.
type Booking struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	RoomTypeID     uuid.UUID
	GuestName      string
	CheckInDate    time.Time
	CheckOutDate   time.Time
	Adults         int
	Children       *int
	Nights         int
	TotalPrice     *float64
	Status         BookingStatus
	IdempotencyKey *string
	SessionID      *string
	PaymentRef     *string
}

// Overlaps reports whether two [checkIn, checkOut) ranges intersect.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && bIn.Before(aOut)
}

// Nights computes ceil((checkOut - checkIn) / 24h), per spec.md §3.
func Nights(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	n := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		n++
	}
	return n
}
