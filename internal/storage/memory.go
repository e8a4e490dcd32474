package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and by components that
// don't need real persistence across process restarts.
type MemoryStore struct {
	mu        sync.Mutex
	roomTypes map[uuid.UUID]RoomType
	bookings  map[uuid.UUID]Booking
}

// NewMemoryStore constructs an empty in-memory store, optionally seeded with
// room inventory.
func NewMemoryStore(seed ...RoomType) *MemoryStore {
	m := &MemoryStore{
		roomTypes: make(map[uuid.UUID]RoomType),
		bookings:  make(map[uuid.UUID]Booking),
	}
	for _, rt := range seed {
		m.roomTypes[rt.ID] = rt
	}
	return m
}

func (m *MemoryStore) ListRoomTypes(ctx context.Context, tenantID uuid.UUID) ([]RoomType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RoomType
	for _, rt := range m.roomTypes {
		if rt.TenantID == tenantID {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (m *MemoryStore) FindRoomType(ctx context.Context, tenantID uuid.UUID, code string) (*RoomType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.roomTypes {
		if rt.TenantID == tenantID && rt.Code == code {
			cp := rt
			return &cp, nil
		}
	}
	return nil, ErrRoomTypeNotFound
}

func (m *MemoryStore) PersistBooking(ctx context.Context, req PersistBookingRequest) (*Booking, error) {
	checkIn, err := time.Parse(dateLayout, req.CheckInDate)
	if err != nil {
		return nil, err
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOutDate)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, b := range m.bookings {
		if b.TenantID != req.TenantID || b.RoomTypeID != req.RoomTypeID || b.Status != StatusConfirmed {
			continue
		}
		if req.ExistingBookingID != nil && id == *req.ExistingBookingID {
			continue
		}
		if Overlaps(checkIn, checkOut, b.CheckInDate, b.CheckOutDate) {
			return nil, ErrDateConflict
		}
	}

	status := StatusDraft
	if req.Confirm {
		status = StatusConfirmed
	}
	booking := Booking{
		TenantID:       req.TenantID,
		RoomTypeID:     req.RoomTypeID,
		GuestName:      req.GuestName,
		CheckInDate:    checkIn,
		CheckOutDate:   checkOut,
		Adults:         req.Adults,
		Children:       req.Children,
		Nights:         Nights(checkIn, checkOut),
		TotalPrice:     req.TotalPrice,
		Status:         status,
		IdempotencyKey: nonEmptyPtr(req.IdempotencyKey),
	}

	if req.ExistingBookingID != nil {
		if existing, ok := m.bookings[*req.ExistingBookingID]; ok && existing.TenantID == req.TenantID {
			booking.ID = existing.ID
			m.bookings[booking.ID] = booking
			cp := booking
			return &cp, nil
		}
	}

	if booking.IdempotencyKey != nil {
		for _, b := range m.bookings {
			if b.TenantID == req.TenantID && b.IdempotencyKey != nil && *b.IdempotencyKey == *booking.IdempotencyKey {
				cp := b
				return &cp, nil
			}
		}
	}

	booking.ID = uuid.New()
	m.bookings[booking.ID] = booking
	cp := booking
	return &cp, nil
}

func (m *MemoryStore) Close() error { return nil }
