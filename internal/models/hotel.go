package models

import (
	"time"

	"github.com/google/uuid"
)

// Hotel is a read-only projection from the hotel catalog with per-room-type
// total capacity and nightly prices.
type Hotel struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	AddressLine string    `db:"address_line" json:"address_line"`
	City        string    `db:"city" json:"city"`
	Country     string    `db:"country" json:"country"`
	Rooms       []RoomInventory
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RoomInventory is the catalog's total room count and nightly price for one
// room type at a hotel. Remaining counts live in the availability ledger.
type RoomInventory struct {
	HotelID       uuid.UUID `db:"hotel_id" json:"hotel_id"`
	RoomType      RoomType  `db:"room_type" json:"room_type"`
	TotalCount    int       `db:"total_count" json:"total_count"`
	PricePerNight float64   `db:"price_per_night" json:"price_per_night"`
}

// RoomInventoryFor returns the inventory row for rt, if the hotel offers it.
func (h *Hotel) RoomInventoryFor(rt RoomType) (RoomInventory, bool) {
	for _, inv := range h.Rooms {
		if inv.RoomType == rt {
			return inv, true
		}
	}
	return RoomInventory{}, false
}
