package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dateLayout = "2006-01-02"

// PostgresStore is the pgx-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and ensures the room_types/bookings schema
// exists, following the teacher's connect-then-initSchema pattern.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS room_types (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			price NUMERIC NOT NULL CHECK (price >= 0),
			amenities TEXT[] NOT NULL DEFAULT '{}',
			UNIQUE (tenant_id, code)
		);`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			room_type_id UUID NOT NULL REFERENCES room_types(id),
			guest_name TEXT NOT NULL,
			check_in_date DATE NOT NULL,
			check_out_date DATE NOT NULL,
			adults INTEGER NOT NULL CHECK (adults >= 1),
			children INTEGER NULL CHECK (children IS NULL OR children >= 0),
			nights INTEGER NOT NULL CHECK (nights >= 1),
			total_price NUMERIC NULL CHECK (total_price IS NULL OR total_price >= 0),
			status TEXT NOT NULL,
			idempotency_key TEXT NULL,
			session_id TEXT NULL,
			payment_ref TEXT NULL,
			CHECK (check_out_date > check_in_date),
			UNIQUE (tenant_id, idempotency_key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_room_status ON bookings (tenant_id, room_type_id, status);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init booking schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) ListRoomTypes(ctx context.Context, tenantID uuid.UUID) ([]RoomType, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, code, name, price, amenities FROM room_types WHERE tenant_id=$1 ORDER BY code`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list room types: %w", err)
	}
	defer rows.Close()

	var out []RoomType
	for rows.Next() {
		var rt RoomType
		if err := rows.Scan(&rt.ID, &rt.TenantID, &rt.Code, &rt.Name, &rt.Price, &rt.Amenities); err != nil {
			return nil, fmt.Errorf("scan room type: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindRoomType(ctx context.Context, tenantID uuid.UUID, code string) (*RoomType, error) {
	var rt RoomType
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, code, name, price, amenities FROM room_types WHERE tenant_id=$1 AND code=$2`,
		tenantID, code,
	).Scan(&rt.ID, &rt.TenantID, &rt.Code, &rt.Name, &rt.Price, &rt.Amenities)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrRoomTypeNotFound
		}
		return nil, fmt.Errorf("find room type: %w", err)
	}
	return &rt, nil
}

// PersistBooking implements the §4.9 transaction: overlap check against
// CONFIRMED rows, then update-existing / return-matching-draft / insert-new.
func (s *PostgresStore) PersistBooking(ctx context.Context, req PersistBookingRequest) (*Booking, error) {
	checkIn, err := time.Parse(dateLayout, req.CheckInDate)
	if err != nil {
		return nil, fmt.Errorf("parse check-in date: %w", err)
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOutDate)
	if err != nil {
		return nil, fmt.Errorf("parse check-out date: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx,
		`SELECT check_in_date, check_out_date FROM bookings
		 WHERE tenant_id=$1 AND room_type_id=$2 AND status=$3
		   AND ($4::uuid IS NULL OR id != $4)`,
		req.TenantID, req.RoomTypeID, StatusConfirmed, req.ExistingBookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("query overlap candidates: %w", err)
	}
	for rows.Next() {
		var in, out time.Time
		if err := rows.Scan(&in, &out); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan overlap candidate: %w", err)
		}
		if Overlaps(checkIn, checkOut, in, out) {
			rows.Close()
			return nil, ErrDateConflict
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overlap candidates: %w", err)
	}
	rows.Close()

	status := StatusDraft
	if req.Confirm {
		status = StatusConfirmed
	}
	nights := Nights(checkIn, checkOut)

	booking := &Booking{
		TenantID:       req.TenantID,
		RoomTypeID:     req.RoomTypeID,
		GuestName:      req.GuestName,
		CheckInDate:    checkIn,
		CheckOutDate:   checkOut,
		Adults:         req.Adults,
		Children:       req.Children,
		Nights:         nights,
		TotalPrice:     req.TotalPrice,
		Status:         status,
		IdempotencyKey: nonEmptyPtr(req.IdempotencyKey),
	}

	if req.ExistingBookingID != nil {
		var owned bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM bookings WHERE id=$1 AND tenant_id=$2)`,
			*req.ExistingBookingID, req.TenantID,
		).Scan(&owned); err != nil {
			return nil, fmt.Errorf("check existing booking ownership: %w", err)
		}
		if owned {
			booking.ID = *req.ExistingBookingID
			_, err := tx.Exec(ctx,
				`UPDATE bookings SET guest_name=$1, check_in_date=$2, check_out_date=$3, adults=$4,
				 children=$5, nights=$6, total_price=$7, status=$8, idempotency_key=$9
				 WHERE id=$10`,
				booking.GuestName, booking.CheckInDate, booking.CheckOutDate, booking.Adults,
				booking.Children, booking.Nights, booking.TotalPrice, booking.Status, booking.IdempotencyKey,
				booking.ID,
			)
			if err != nil {
				return nil, fmt.Errorf("update booking: %w", err)
			}
			if err := tx.Commit(ctx); err != nil {
				return nil, fmt.Errorf("commit tx: %w", err)
			}
			return booking, nil
		}
	}

	if booking.IdempotencyKey != nil {
		var existing Booking
		err := tx.QueryRow(ctx,
			`SELECT id, status FROM bookings WHERE tenant_id=$1 AND idempotency_key=$2`,
			req.TenantID, *booking.IdempotencyKey,
		).Scan(&existing.ID, &existing.Status)
		if err == nil {
			existing.TenantID = req.TenantID
			existing.RoomTypeID = req.RoomTypeID
			existing.GuestName = booking.GuestName
			existing.CheckInDate = checkIn
			existing.CheckOutDate = checkOut
			existing.Adults = booking.Adults
			existing.Nights = nights
			existing.IdempotencyKey = booking.IdempotencyKey
			if err := tx.Commit(ctx); err != nil {
				return nil, fmt.Errorf("commit tx: %w", err)
			}
			return &existing, nil
		}
		if err != pgx.ErrNoRows {
			return nil, fmt.Errorf("query idempotency match: %w", err)
		}
	}

	booking.ID = uuid.New()
	_, err = tx.Exec(ctx,
		`INSERT INTO bookings (id, tenant_id, room_type_id, guest_name, check_in_date, check_out_date,
		 adults, children, nights, total_price, status, idempotency_key, session_id, payment_ref)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		booking.ID, booking.TenantID, booking.RoomTypeID, booking.GuestName, booking.CheckInDate,
		booking.CheckOutDate, booking.Adults, booking.Children, booking.Nights, booking.TotalPrice,
		booking.Status, booking.IdempotencyKey, booking.SessionID, booking.PaymentRef,
	)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return booking, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
