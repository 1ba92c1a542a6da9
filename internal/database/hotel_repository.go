package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayloop/hotel-booking-backend/internal/models"
)

// HotelRepository is the read-only hotel catalog adapter. Catalog management
// lives elsewhere; the booking core only resolves hotels and their
// per-room-type totals and nightly prices.
type HotelRepository struct {
	db *sqlx.DB
}

// NewHotelRepository creates a new HotelRepository
func NewHotelRepository(db *sqlx.DB) *HotelRepository {
	return &HotelRepository{db: db}
}

// FindByID returns the hotel with its room inventory, or nil when none exists.
func (r *HotelRepository) FindByID(ctx context.Context, hotelID uuid.UUID) (*models.Hotel, error) {
	var hotel models.Hotel
	err := r.db.GetContext(ctx, &hotel, `
		SELECT id, name, address_line, city, country, created_at
		FROM hotels
		WHERE id = $1`,
		hotelID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find hotel: %w", err)
	}

	err = r.db.SelectContext(ctx, &hotel.Rooms, `
		SELECT hotel_id, room_type, total_count, price_per_night
		FROM hotel_rooms
		WHERE hotel_id = $1
		ORDER BY room_type`,
		hotelID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load hotel rooms: %w", err)
	}

	return &hotel, nil
}
