package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayloop/hotel-booking-backend/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestReserve_DecrementsEveryNightInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAvailabilityRepository(db)

	hotelID := uuid.New()
	checkIn := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	for day := 0; day < 2; day++ {
		mock.ExpectExec("INSERT INTO availability").
			WithArgs(hotelID, checkIn.AddDate(0, 0, day)).
			WillReturnResult(sqlmock.NewResult(0, 4))
		mock.ExpectExec("UPDATE availability").
			WithArgs(hotelID, checkIn.AddDate(0, 0, day), models.RoomTypeDouble, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("INSERT INTO ledger_reservations").
		WithArgs(sqlmock.AnyArg(), hotelID, sqlmock.AnyArg(), models.ReservationStatusHeld).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	token, err := repo.Reserve(context.Background(), hotelID, checkIn, checkOut,
		[]models.RoomSelection{{RoomType: models.RoomTypeDouble, Count: 2}})
	require.NoError(t, err)
	require.NotNil(t, token)

	assert.Equal(t, models.ReservationStatusHeld, token.Status)
	assert.Equal(t, hotelID, token.HotelID)
	assert.Len(t, token.Cells, 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserve_InsufficientCapacityRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAvailabilityRepository(db)

	hotelID := uuid.New()
	checkIn := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO availability").
		WithArgs(hotelID, checkIn).
		WillReturnResult(sqlmock.NewResult(0, 4))
	// The guarded update matches no rows: not enough remaining
	mock.ExpectExec("UPDATE availability").
		WithArgs(hotelID, checkIn, models.RoomTypeSuite, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT remaining FROM availability").
		WithArgs(hotelID, checkIn, models.RoomTypeSuite).
		WillReturnRows(sqlmock.NewRows([]string{"remaining"}).AddRow(1))
	mock.ExpectRollback()

	token, err := repo.Reserve(context.Background(), hotelID, checkIn, checkOut,
		[]models.RoomSelection{{RoomType: models.RoomTypeSuite, Count: 3}})
	require.Error(t, err)
	assert.Nil(t, token)

	var unavailable *models.RoomUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 3, unavailable.Requested)
	assert.Equal(t, 1, unavailable.Remaining)
	assert.True(t, unavailable.Date.Equal(checkIn))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommit_FlipsStatusOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAvailabilityRepository(db)

	token := &models.ReservationToken{
		ID:      uuid.New(),
		HotelID: uuid.New(),
		Status:  models.ReservationStatusHeld,
	}

	mock.ExpectExec("UPDATE ledger_reservations").
		WithArgs(token.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Commit(context.Background(), token))
	assert.Equal(t, models.ReservationStatusCommitted, token.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelease_RestoresEveryCell(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAvailabilityRepository(db)

	hotelID := uuid.New()
	date1 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	date2 := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)
	token := &models.ReservationToken{
		ID:      uuid.New(),
		HotelID: hotelID,
		Status:  models.ReservationStatusHeld,
		Cells: []models.ReservedCell{
			{Date: date1, RoomType: models.RoomTypeDouble, Count: 2},
			{Date: date2, RoomType: models.RoomTypeDouble, Count: 2},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ledger_reservations").
		WithArgs(token.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE availability").
		WithArgs(hotelID, date1, models.RoomTypeDouble, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE availability").
		WithArgs(hotelID, date2, models.RoomTypeDouble, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Release(context.Background(), token))
	assert.Equal(t, models.ReservationStatusReleased, token.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelease_AlreadyReleasedIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAvailabilityRepository(db)

	token := &models.ReservationToken{
		ID:      uuid.New(),
		HotelID: uuid.New(),
		Cells: []models.ReservedCell{
			{Date: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), RoomType: models.RoomTypeDouble, Count: 1},
		},
	}

	// Status transition matches no rows: the cells must not be restored again
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ledger_reservations").
		WithArgs(token.ID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	require.NoError(t, repo.Release(context.Background(), token))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestore_IncrementsUnconditionally(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAvailabilityRepository(db)

	hotelID := uuid.New()
	date := time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC)
	token := &models.ReservationToken{
		ID:      uuid.New(),
		HotelID: hotelID,
		Cells: []models.ReservedCell{
			{Date: date, RoomType: models.RoomTypeTwin, Count: 1},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE availability").
		WithArgs(hotelID, date, models.RoomTypeTwin, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Restore(context.Background(), token))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemaining_FallsBackToCatalogTotal(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAvailabilityRepository(db)

	hotelID := uuid.New()
	date := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT remaining FROM availability").
		WithArgs(hotelID, date, models.RoomTypeDouble).
		WillReturnRows(sqlmock.NewRows([]string{"remaining"}))
	mock.ExpectQuery("SELECT total_count FROM hotel_rooms").
		WithArgs(hotelID, models.RoomTypeDouble).
		WillReturnRows(sqlmock.NewRows([]string{"total_count"}).AddRow(7))

	remaining, err := repo.Remaining(context.Background(), hotelID, date, models.RoomTypeDouble)
	require.NoError(t, err)
	assert.Equal(t, 7, remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}
