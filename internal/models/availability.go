package models

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityRecord holds the remaining bookable count for one
// (hotel, date, room type) cell. Remaining is never negative.
type AvailabilityRecord struct {
	HotelID   uuid.UUID `db:"hotel_id" json:"hotel_id"`
	Date      time.Time `db:"date" json:"date"`
	RoomType  RoomType  `db:"room_type" json:"room_type"`
	Remaining int       `db:"remaining" json:"remaining"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ReservationStatus represents the lifecycle of a ledger reservation
// Matches PostgreSQL ENUM: reservation_status
type ReservationStatus string

const (
	ReservationStatusHeld      ReservationStatus = "held"      // Cells decremented, awaiting commit or release
	ReservationStatusCommitted ReservationStatus = "committed" // Decrement is permanent
	ReservationStatusReleased  ReservationStatus = "released"  // Cells restored
)

// ReservedCell records one decremented ledger cell within a reservation.
type ReservedCell struct {
	Date     time.Time `json:"date"`
	RoomType RoomType  `json:"room_type"`
	Count    int       `json:"count"`
}

// ReservationToken identifies an atomic ledger decrement. Release restores
// exactly the cells it names; Commit marks the decrement permanent.
type ReservationToken struct {
	ID        uuid.UUID         `json:"id"`
	HotelID   uuid.UUID         `json:"hotel_id"`
	Cells     []ReservedCell    `json:"cells"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}
