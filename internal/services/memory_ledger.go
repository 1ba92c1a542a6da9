package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stayloop/hotel-booking-backend/internal/models"
)

type ledgerCell struct {
	hotelID  uuid.UUID
	date     time.Time
	roomType models.RoomType
}

// MemoryLedger is an in-process availability ledger with the same contract
// as the Postgres one. One mutex serializes every reservation, so a reserve
// is atomic across all of its cells: either every cell has capacity and all
// are decremented together, or none are.
type MemoryLedger struct {
	mu sync.Mutex

	// total capacity per (hotel, room type); cells are materialized from it
	capacity map[uuid.UUID]map[models.RoomType]int
	cells    map[ledgerCell]int
	tokens   map[uuid.UUID]models.ReservationStatus
}

// NewMemoryLedger creates an empty in-process ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		capacity: make(map[uuid.UUID]map[models.RoomType]int),
		cells:    make(map[ledgerCell]int),
		tokens:   make(map[uuid.UUID]models.ReservationStatus),
	}
}

// SetCapacity sets the total room count for a (hotel, room type). Dates that
// have never been touched start at this capacity.
func (l *MemoryLedger) SetCapacity(hotelID uuid.UUID, roomType models.RoomType, total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.capacity[hotelID] == nil {
		l.capacity[hotelID] = make(map[models.RoomType]int)
	}
	l.capacity[hotelID][roomType] = total
}

// Reserve atomically decrements every requested cell in [checkIn, checkOut),
// or decrements nothing and reports the first violating cell.
func (l *MemoryLedger) Reserve(
	ctx context.Context,
	hotelID uuid.UUID,
	checkIn, checkOut time.Time,
	selections []models.RoomSelection,
) (*models.ReservationToken, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	token := &models.ReservationToken{
		ID:        uuid.New(),
		HotelID:   hotelID,
		Status:    models.ReservationStatusHeld,
		CreatedAt: time.Now(),
	}

	// Duplicate room types are summed so the capacity check sees the full
	// requested count per cell.
	selections = mergeSelections(selections)

	// First pass: verify capacity without mutating anything
	for date := models.DateOnly(checkIn); date.Before(models.DateOnly(checkOut)); date = date.AddDate(0, 0, 1) {
		for _, sel := range selections {
			remaining := l.remainingLocked(hotelID, date, sel.RoomType)
			if remaining < sel.Count {
				return nil, &models.RoomUnavailableError{
					HotelID:   hotelID,
					Date:      date,
					RoomType:  sel.RoomType,
					Requested: sel.Count,
					Remaining: remaining,
				}
			}
		}
	}

	// Second pass: decrement; still under the same lock, so no interleaving
	for date := models.DateOnly(checkIn); date.Before(models.DateOnly(checkOut)); date = date.AddDate(0, 0, 1) {
		for _, sel := range selections {
			key := ledgerCell{hotelID, date, sel.RoomType}
			l.cells[key] = l.remainingLocked(hotelID, date, sel.RoomType) - sel.Count
			token.Cells = append(token.Cells, models.ReservedCell{
				Date:     date,
				RoomType: sel.RoomType,
				Count:    sel.Count,
			})
		}
	}

	l.tokens[token.ID] = models.ReservationStatusHeld
	return token, nil
}

// Commit marks a held reservation permanent. No cell changes.
func (l *MemoryLedger) Commit(ctx context.Context, token *models.ReservationToken) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tokens[token.ID] == models.ReservationStatusHeld {
		l.tokens[token.ID] = models.ReservationStatusCommitted
		token.Status = models.ReservationStatusCommitted
	}
	return nil
}

// Release restores the token's cells exactly once. Releasing an
// already-released or committed token is a no-op.
func (l *MemoryLedger) Release(ctx context.Context, token *models.ReservationToken) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tokens[token.ID] != models.ReservationStatusHeld {
		return nil
	}
	l.tokens[token.ID] = models.ReservationStatusReleased
	token.Status = models.ReservationStatusReleased
	l.restoreLocked(token)
	return nil
}

// Restore adds the token's cells back unconditionally (cancellation path).
func (l *MemoryLedger) Restore(ctx context.Context, token *models.ReservationToken) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.restoreLocked(token)
	return nil
}

// Remaining reports the remaining count for one cell.
func (l *MemoryLedger) Remaining(hotelID uuid.UUID, date time.Time, roomType models.RoomType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remainingLocked(hotelID, models.DateOnly(date), roomType)
}

func (l *MemoryLedger) remainingLocked(hotelID uuid.UUID, date time.Time, roomType models.RoomType) int {
	key := ledgerCell{hotelID, date, roomType}
	if remaining, ok := l.cells[key]; ok {
		return remaining
	}
	return l.capacity[hotelID][roomType]
}

// mergeSelections sums counts for repeated room types, preserving first
// occurrence order.
func mergeSelections(selections []models.RoomSelection) []models.RoomSelection {
	merged := make([]models.RoomSelection, 0, len(selections))
	index := make(map[models.RoomType]int, len(selections))
	for _, sel := range selections {
		if i, ok := index[sel.RoomType]; ok {
			merged[i].Count += sel.Count
			continue
		}
		index[sel.RoomType] = len(merged)
		merged = append(merged, sel)
	}
	return merged
}

func (l *MemoryLedger) restoreLocked(token *models.ReservationToken) {
	for _, cell := range token.Cells {
		key := ledgerCell{token.HotelID, models.DateOnly(cell.Date), cell.RoomType}
		l.cells[key] = l.remainingLocked(token.HotelID, models.DateOnly(cell.Date), cell.RoomType) + cell.Count
	}
}
