package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stable error taxonomy for the booking confirmation flow. Every failure kind
// maps to a distinct, stable message at the transport boundary.
var (
	ErrInvalidDateRange = errors.New("check-in date must not be in the past and check-out must be after check-in")
	ErrEmptySelection   = errors.New("at least one room with a positive count must be selected")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrHotelNotFound    = errors.New("hotel not found")
	ErrRoomUnavailable  = errors.New("requested rooms are not available")
	ErrPersistence      = errors.New("booking could not be persisted")
	ErrPaymentFailed    = errors.New("payment could not be captured")

	// ErrReservationReleaseFailed means a compensating release did not go
	// through and the ledger may under-report inventory. It must never be
	// swallowed; callers log it at error level and escalate.
	ErrReservationReleaseFailed = errors.New("reservation release failed, inventory may be under-reported")

	// ErrBookingNotFound covers the supplemental read/cancel paths.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrNotBookingOwner is returned when the acting principal does not own
	// the booking being read or cancelled.
	ErrNotBookingOwner = errors.New("booking belongs to another customer")
	// ErrBookingNotCancellable is returned for cancel attempts on bookings
	// that are not in the confirmed state.
	ErrBookingNotCancellable = errors.New("only confirmed bookings can be cancelled")
)

// RoomUnavailableError names the first ledger cell that lacked capacity.
type RoomUnavailableError struct {
	HotelID   uuid.UUID
	Date      time.Time
	RoomType  RoomType
	Requested int
	Remaining int
}

func (e *RoomUnavailableError) Error() string {
	return fmt.Sprintf("insufficient capacity for %s on %s (requested %d, remaining %d)",
		e.RoomType, e.Date.Format(DateLayout), e.Requested, e.Remaining)
}

// Is makes errors.Is(err, ErrRoomUnavailable) match.
func (e *RoomUnavailableError) Is(target error) bool {
	return target == ErrRoomUnavailable
}
