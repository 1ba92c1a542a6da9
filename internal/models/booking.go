package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// BOOKING TYPES & STATUSES (matches DB ENUMs)
// ============================================================================

// BookingStatus represents the status of a booking
// Matches PostgreSQL ENUM: booking_status
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Persisted, payment not yet captured
	BookingStatusConfirmed BookingStatus = "confirmed" // Payment captured, inventory committed
	BookingStatusFailed    BookingStatus = "failed"    // Payment or persistence failed, holds released
	BookingStatusCancelled BookingStatus = "cancelled" // Cancelled after confirmation, inventory restored
)

// RoomType represents a bookable room category
// Matches PostgreSQL ENUM: room_type
type RoomType string

const (
	RoomTypeSingle RoomType = "single"
	RoomTypeDouble RoomType = "double"
	RoomTypeTwin   RoomType = "twin"
	RoomTypeSuite  RoomType = "suite"
)

// ValidRoomTypes lists every room type accepted in a booking request.
var ValidRoomTypes = []RoomType{RoomTypeSingle, RoomTypeDouble, RoomTypeTwin, RoomTypeSuite}

// IsValid reports whether rt is a known room type.
func (rt RoomType) IsValid() bool {
	for _, v := range ValidRoomTypes {
		if rt == v {
			return true
		}
	}
	return false
}

// ============================================================================
// AGGREGATE
// ============================================================================

// Booking is the persisted aggregate root. It owns its BookedRoom line items
// and its Payment; Customer and Hotel are referenced by ID only.
type Booking struct {
	ID                 uuid.UUID     `db:"id" json:"id"`
	CustomerID         uuid.UUID     `db:"customer_id" json:"customer_id"`
	HotelID            uuid.UUID     `db:"hotel_id" json:"hotel_id"`
	CheckInDate        time.Time     `db:"check_in_date" json:"check_in_date"`
	CheckOutDate       time.Time     `db:"check_out_date" json:"check_out_date"`
	Status             BookingStatus `db:"status" json:"status"`
	ConfirmationNumber *string       `db:"confirmation_number" json:"confirmation_number,omitempty"`
	BookedRooms        []BookedRoom  `db:"-" json:"booked_rooms"`
	Payment            *Payment      `db:"-" json:"payment,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// Nights returns the number of nights in the stay.
func (b *Booking) Nights() int {
	return int(DateOnly(b.CheckOutDate).Sub(DateOnly(b.CheckInDate)).Hours() / 24)
}

// BookedRoom is a line item owned exclusively by one Booking.
type BookedRoom struct {
	ID        uuid.UUID `db:"id" json:"id"`
	BookingID uuid.UUID `db:"booking_id" json:"booking_id"`
	RoomType  RoomType  `db:"room_type" json:"room_type"`
	Count     int       `db:"count" json:"count"`
}

// ============================================================================
// REQUEST / RESPONSE TYPES
// ============================================================================

// RoomSelection is one (room type, count) pair in a booking request.
type RoomSelection struct {
	RoomType RoomType `json:"room_type"`
	Count    int      `json:"count"`
}

// CreateBookingRequest is the JSON body of POST /bookings.
// Dates use the 2006-01-02 form.
type CreateBookingRequest struct {
	HotelID        string          `json:"hotel_id" binding:"required"`
	CheckInDate    string          `json:"check_in_date" binding:"required"`
	CheckOutDate   string          `json:"check_out_date" binding:"required"`
	RoomSelections []RoomSelection `json:"room_selections" binding:"required"`
	PaymentMethod  *PaymentMethod  `json:"payment_method,omitempty"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
}

// DateLayout is the wire format for stay dates.
const DateLayout = "2006-01-02"

// ToBookingRequest parses and normalizes the wire request for the given user.
func (r *CreateBookingRequest) ToBookingRequest(userID uuid.UUID) (*BookingRequest, error) {
	hotelID, err := uuid.Parse(strings.TrimSpace(r.HotelID))
	if err != nil {
		return nil, errors.New("invalid hotel_id: must be a UUID")
	}
	checkIn, err := time.ParseInLocation(DateLayout, r.CheckInDate, time.UTC)
	if err != nil {
		return nil, ErrInvalidDateRange
	}
	checkOut, err := time.ParseInLocation(DateLayout, r.CheckOutDate, time.UTC)
	if err != nil {
		return nil, ErrInvalidDateRange
	}

	method := PaymentMethodCreditCard
	if r.PaymentMethod != nil {
		method = *r.PaymentMethod
	}

	return &BookingRequest{
		HotelID:        hotelID,
		UserID:         userID,
		CheckInDate:    checkIn,
		CheckOutDate:   checkOut,
		RoomSelections: r.RoomSelections,
		PaymentMethod:  method,
		IdempotencyKey: r.IdempotencyKey,
	}, nil
}

// BookingRequest is the validated input to the confirmation orchestrator.
type BookingRequest struct {
	HotelID        uuid.UUID
	UserID         uuid.UUID
	CheckInDate    time.Time
	CheckOutDate   time.Time
	RoomSelections []RoomSelection
	PaymentMethod  PaymentMethod
	IdempotencyKey *string
}

// Validate checks the stay dates and room selections against now.
// Zero-count selections are discarded; check-in today is accepted; check-out
// must be at least one day after check-in.
func (r *BookingRequest) Validate(now time.Time) error {
	today := DateOnly(now)
	checkIn := DateOnly(r.CheckInDate)
	checkOut := DateOnly(r.CheckOutDate)

	if checkIn.Before(today) {
		return ErrInvalidDateRange
	}
	if !checkOut.After(checkIn) {
		return ErrInvalidDateRange
	}

	// Zero counts are dropped; duplicate room types are merged so downstream
	// capacity checks and pricing see one count per room type.
	merged := make([]RoomSelection, 0, len(r.RoomSelections))
	index := make(map[RoomType]int, len(r.RoomSelections))
	for _, sel := range r.RoomSelections {
		if sel.Count < 0 || !sel.RoomType.IsValid() {
			return ErrEmptySelection
		}
		if sel.Count == 0 {
			continue
		}
		if i, ok := index[sel.RoomType]; ok {
			merged[i].Count += sel.Count
			continue
		}
		index[sel.RoomType] = len(merged)
		merged = append(merged, sel)
	}
	r.RoomSelections = merged
	if len(r.RoomSelections) == 0 {
		return ErrEmptySelection
	}

	r.CheckInDate = checkIn
	r.CheckOutDate = checkOut
	return nil
}

// Nights returns the number of nights in the requested stay.
func (r *BookingRequest) Nights() int {
	return int(DateOnly(r.CheckOutDate).Sub(DateOnly(r.CheckInDate)).Hours() / 24)
}

// StayDates returns every date in [check-in, check-out).
func (r *BookingRequest) StayDates() []time.Time {
	dates := make([]time.Time, 0, r.Nights())
	for d := DateOnly(r.CheckInDate); d.Before(DateOnly(r.CheckOutDate)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// DateOnly truncates t to midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BookingConfirmation is returned to the caller on success. It echoes the
// stay and room details along with the confirmation number and final price.
type BookingConfirmation struct {
	BookingID          uuid.UUID       `json:"booking_id"`
	ConfirmationNumber string          `json:"confirmation_number"`
	HotelID            uuid.UUID       `json:"hotel_id"`
	HotelName          string          `json:"hotel_name"`
	CheckInDate        string          `json:"check_in_date"`
	CheckOutDate       string          `json:"check_out_date"`
	RoomSelections     []RoomSelection `json:"room_selections"`
	TotalPrice         float64         `json:"total_price"`
	Currency           string          `json:"currency"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
}
