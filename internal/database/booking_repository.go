package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayloop/hotel-booking-backend/internal/models"
)

// BookingRepository persists the Booking aggregate: the booking row, its
// booked_rooms line items and its payment move together.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreatePending inserts a new booking with its line items in one transaction.
// The booking starts in 'pending'; it is never visible to customers as
// confirmed until Confirm succeeds.
func (r *BookingRepository) CreatePending(ctx context.Context, booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.Status = models.BookingStatusPending
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin booking insert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, customer_id, hotel_id, check_in_date, check_out_date,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		booking.ID, booking.CustomerID, booking.HotelID,
		booking.CheckInDate, booking.CheckOutDate,
		booking.Status, booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	for i := range booking.BookedRooms {
		room := &booking.BookedRooms[i]
		if room.ID == uuid.Nil {
			room.ID = uuid.New()
		}
		room.BookingID = booking.ID

		_, err = tx.ExecContext(ctx, `
			INSERT INTO booked_rooms (id, booking_id, room_type, count)
			VALUES ($1, $2, $3, $4)`,
			room.ID, room.BookingID, room.RoomType, room.Count,
		)
		if err != nil {
			return fmt.Errorf("failed to insert booked room: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking insert: %w", err)
	}
	return nil
}

// Confirm attaches the captured payment and flips the booking to 'confirmed'
// with its confirmation number, in one transaction. The guarded status
// predicate means a booking can only be confirmed once, from 'pending'.
func (r *BookingRepository) Confirm(ctx context.Context, bookingID uuid.UUID, confirmationNumber string, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.BookingID = bookingID
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin booking confirmation: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (
			id, booking_id, total_price, currency, method, status,
			transaction_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		payment.ID, payment.BookingID, payment.TotalPrice, payment.Currency,
		payment.Method, payment.Status, payment.TransactionID,
		payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'confirmed', confirmation_number = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		bookingID, confirmationNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("booking %s is not in 'pending' status", bookingID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking confirmation: %w", err)
	}
	return nil
}

// MarkFailed moves a pending booking to 'failed' so it is never exposed to
// the customer as successful. Safe to call after a payment failure.
func (r *BookingRepository) MarkFailed(ctx context.Context, bookingID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'failed', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		bookingID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark booking %s failed: %w", bookingID, err)
	}
	return nil
}

// Cancel moves a confirmed booking to 'cancelled' and marks its payment
// refunded. Returns the number of bookings transitioned (0 when the booking
// was not confirmed).
func (r *BookingRepository) Cancel(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin cancellation: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'confirmed'`,
		bookingID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking %s: %w", bookingID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE payments
		SET status = 'refunded', updated_at = NOW()
		WHERE booking_id = $1 AND status = 'captured'`,
		bookingID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment refunded: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return true, nil
}

// GetByID loads the full aggregate: booking, line items and payment.
// Returns nil when no booking exists.
func (r *BookingRepository) GetByID(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.GetContext(ctx, &booking, `
		SELECT id, customer_id, hotel_id, check_in_date, check_out_date,
		       status, confirmation_number, created_at, updated_at
		FROM bookings
		WHERE id = $1`,
		bookingID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	err = r.db.SelectContext(ctx, &booking.BookedRooms, `
		SELECT id, booking_id, room_type, count
		FROM booked_rooms
		WHERE booking_id = $1
		ORDER BY room_type`,
		bookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get booked rooms: %w", err)
	}

	var payment models.Payment
	err = r.db.GetContext(ctx, &payment, `
		SELECT id, booking_id, total_price, currency, method, status,
		       transaction_id, created_at, updated_at
		FROM payments
		WHERE booking_id = $1`,
		bookingID,
	)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if err == nil {
		booking.Payment = &payment
	}

	return &booking, nil
}

// ListByCustomer returns all bookings for a customer, newest first.
// Line items and payments are loaded per booking.
func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Booking, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `
		SELECT id FROM bookings
		WHERE customer_id = $1
		ORDER BY created_at DESC`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*models.Booking, 0, len(ids))
	for _, id := range ids {
		booking, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if booking != nil {
			bookings = append(bookings, booking)
		}
	}
	return bookings, nil
}
