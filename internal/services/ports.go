package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stayloop/hotel-booking-backend/internal/models"
)

// Collaborator contracts consumed by the booking orchestrator. The core
// consults these and does not implement them; the concrete adapters live in
// internal/database and in this package's gateway clients.

// CustomerDirectory resolves customers by their user identifier.
// A nil customer with a nil error means not found.
type CustomerDirectory interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Customer, error)
}

// HotelCatalog resolves hotels with their per-room-type totals and prices.
// A nil hotel with a nil error means not found.
type HotelCatalog interface {
	FindByID(ctx context.Context, hotelID uuid.UUID) (*models.Hotel, error)
}

// AvailabilityLedger is the authoritative record of remaining room-type
// capacity per hotel per date. Reserve is atomic across every cell it
// touches; Release restores exactly the reserved cells and is idempotent;
// Commit marks the decrement permanent without further state change.
type AvailabilityLedger interface {
	Reserve(ctx context.Context, hotelID uuid.UUID, checkIn, checkOut time.Time, selections []models.RoomSelection) (*models.ReservationToken, error)
	Commit(ctx context.Context, token *models.ReservationToken) error
	Release(ctx context.Context, token *models.ReservationToken) error
	// Restore adds the token's cells back unconditionally. It backs the
	// cancellation path, where the original reservation was committed long ago.
	Restore(ctx context.Context, token *models.ReservationToken) error
}

// BookingStore persists the Booking aggregate.
type BookingStore interface {
	CreatePending(ctx context.Context, booking *models.Booking) error
	Confirm(ctx context.Context, bookingID uuid.UUID, confirmationNumber string, payment *models.Payment) error
	MarkFailed(ctx context.Context, bookingID uuid.UUID) error
	Cancel(ctx context.Context, bookingID uuid.UUID) (bool, error)
	GetByID(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Booking, error)
}

// CaptureRequest describes one payment capture call.
type CaptureRequest struct {
	BookingID     uuid.UUID
	CustomerName  string
	CustomerEmail string
	Amount        float64
	Currency      string
	Method        models.PaymentMethod
}

// CaptureResult is the gateway's record of a captured payment.
type CaptureResult struct {
	TransactionID string
}

// PaymentProcessor captures and refunds payments through an external
// gateway. Capture is invoked synchronously and must honour ctx deadlines.
type PaymentProcessor interface {
	Capture(ctx context.Context, req *CaptureRequest) (*CaptureResult, error)
	Refund(ctx context.Context, transactionID string, amount float64, currency string) error
}

// Pricer computes the total price for a validated request against a
// resolved hotel.
type Pricer interface {
	Quote(hotel *models.Hotel, request *models.BookingRequest) (float64, error)
}

// IdempotencyStore replays previously confirmed results for repeated
// logical requests so retries never double-book or double-charge.
type IdempotencyStore interface {
	Get(ctx context.Context, userID uuid.UUID, key string) (*models.BookingConfirmation, error)
	Put(ctx context.Context, userID uuid.UUID, key string, confirmation *models.BookingConfirmation) error
}
