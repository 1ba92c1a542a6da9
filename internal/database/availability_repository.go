package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayloop/hotel-booking-backend/internal/models"
)

// AvailabilityRepository is the Postgres-backed availability ledger. Every
// (hotel, date, room type) cell is one row; a reservation decrements its cells
// in a single transaction so the capacity check and the decrement are one
// atomic unit. Commit only flips the reservation status - the decrement
// already happened at reserve time.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new AvailabilityRepository
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Reserve atomically decrements every requested (date, room type) cell in
// [checkIn, checkOut). If any cell lacks capacity the whole transaction is
// rolled back and the first violating cell is reported.
func (r *AvailabilityRepository) Reserve(
	ctx context.Context,
	hotelID uuid.UUID,
	checkIn, checkOut time.Time,
	selections []models.RoomSelection,
) (*models.ReservationToken, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reservation: %w", err)
	}
	defer tx.Rollback()

	token := &models.ReservationToken{
		ID:        uuid.New(),
		HotelID:   hotelID,
		Status:    models.ReservationStatusHeld,
		CreatedAt: time.Now(),
	}

	for date := models.DateOnly(checkIn); date.Before(models.DateOnly(checkOut)); date = date.AddDate(0, 0, 1) {
		// Materialize missing cells from the catalog totals so a date that
		// has never been booked starts at full capacity.
		_, err := tx.ExecContext(ctx, `
			INSERT INTO availability (hotel_id, date, room_type, remaining, updated_at)
			SELECT hotel_id, $2, room_type, total_count, NOW()
			FROM hotel_rooms
			WHERE hotel_id = $1
			ON CONFLICT (hotel_id, date, room_type) DO NOTHING`,
			hotelID, date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to materialize availability for %s: %w", date.Format(models.DateLayout), err)
		}

		for _, sel := range selections {
			result, err := tx.ExecContext(ctx, `
				UPDATE availability
				SET remaining = remaining - $4, updated_at = NOW()
				WHERE hotel_id = $1 AND date = $2 AND room_type = $3 AND remaining >= $4`,
				hotelID, date, sel.RoomType, sel.Count,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to decrement availability: %w", err)
			}
			rows, _ := result.RowsAffected()
			if rows == 0 {
				remaining, err := r.remainingInTx(ctx, tx, hotelID, date, sel.RoomType)
				if err != nil {
					remaining = 0
				}
				return nil, &models.RoomUnavailableError{
					HotelID:   hotelID,
					Date:      date,
					RoomType:  sel.RoomType,
					Requested: sel.Count,
					Remaining: remaining,
				}
			}
			token.Cells = append(token.Cells, models.ReservedCell{
				Date:     date,
				RoomType: sel.RoomType,
				Count:    sel.Count,
			})
		}
	}

	cellsJSON, err := json.Marshal(token.Cells)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reservation cells: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_reservations (id, hotel_id, cells, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())`,
		token.ID, hotelID, cellsJSON, token.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}

	return token, nil
}

// Commit marks a held reservation as permanent. The decrement already
// happened at reserve time, so no cell changes. Committing a reservation
// that is no longer held is a no-op.
func (r *AvailabilityRepository) Commit(ctx context.Context, token *models.ReservationToken) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ledger_reservations
		SET status = 'committed', updated_at = NOW()
		WHERE id = $1 AND status = 'held'`,
		token.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to commit reservation %s: %w", token.ID, err)
	}
	token.Status = models.ReservationStatusCommitted
	return nil
}

// Release restores exactly the cells decremented by the token. The guarded
// status transition makes it idempotent: releasing an already-released or
// committed reservation never double-restores.
func (r *AvailabilityRepository) Release(ctx context.Context, token *models.ReservationToken) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin release: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE ledger_reservations
		SET status = 'released', updated_at = NOW()
		WHERE id = $1 AND status = 'held'`,
		token.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to release reservation %s: %w", token.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Already released or committed
		return nil
	}

	for _, cell := range token.Cells {
		_, err := tx.ExecContext(ctx, `
			UPDATE availability
			SET remaining = remaining + $4, updated_at = NOW()
			WHERE hotel_id = $1 AND date = $2 AND room_type = $3`,
			token.HotelID, cell.Date, cell.RoomType, cell.Count,
		)
		if err != nil {
			return fmt.Errorf("failed to restore cell (%s, %s): %w",
				cell.Date.Format(models.DateLayout), cell.RoomType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit release: %w", err)
	}

	token.Status = models.ReservationStatusReleased
	return nil
}

// Restore adds the token's cells back unconditionally. It serves the
// cancellation path, where the original reservation has long been committed
// and no held reservation row exists to release.
func (r *AvailabilityRepository) Restore(ctx context.Context, token *models.ReservationToken) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin restore: %w", err)
	}
	defer tx.Rollback()

	for _, cell := range token.Cells {
		_, err := tx.ExecContext(ctx, `
			UPDATE availability
			SET remaining = remaining + $4, updated_at = NOW()
			WHERE hotel_id = $1 AND date = $2 AND room_type = $3`,
			token.HotelID, cell.Date, cell.RoomType, cell.Count,
		)
		if err != nil {
			return fmt.Errorf("failed to restore cell (%s, %s): %w",
				cell.Date.Format(models.DateLayout), cell.RoomType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}
	return nil
}

// Remaining returns the remaining count for one cell. A cell that was never
// materialized falls back to the catalog total.
func (r *AvailabilityRepository) Remaining(ctx context.Context, hotelID uuid.UUID, date time.Time, roomType models.RoomType) (int, error) {
	var remaining int
	err := r.db.GetContext(ctx, &remaining, `
		SELECT remaining FROM availability
		WHERE hotel_id = $1 AND date = $2 AND room_type = $3`,
		hotelID, models.DateOnly(date), roomType,
	)
	if err == sql.ErrNoRows {
		err = r.db.GetContext(ctx, &remaining, `
			SELECT total_count FROM hotel_rooms
			WHERE hotel_id = $1 AND room_type = $2`,
			hotelID, roomType,
		)
		if err == sql.ErrNoRows {
			return 0, nil
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read availability: %w", err)
	}
	return remaining, nil
}

func (r *AvailabilityRepository) remainingInTx(ctx context.Context, tx *sqlx.Tx, hotelID uuid.UUID, date time.Time, roomType models.RoomType) (int, error) {
	var remaining int
	err := tx.GetContext(ctx, &remaining, `
		SELECT remaining FROM availability
		WHERE hotel_id = $1 AND date = $2 AND room_type = $3`,
		hotelID, date, roomType,
	)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return remaining, err
}
