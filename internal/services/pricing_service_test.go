package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayloop/hotel-booking-backend/internal/models"
)

func pricingHotel() *models.Hotel {
	hotel := &models.Hotel{ID: uuid.New(), Name: "Cinnamon Lake"}
	hotel.Rooms = []models.RoomInventory{
		{HotelID: hotel.ID, RoomType: models.RoomTypeSingle, TotalCount: 10, PricePerNight: 79.99},
		{HotelID: hotel.ID, RoomType: models.RoomTypeDouble, TotalCount: 8, PricePerNight: 120},
		{HotelID: hotel.ID, RoomType: models.RoomTypeSuite, TotalCount: 2, PricePerNight: 412.5},
	}
	return hotel
}

func pricingRequest(nights int, selections ...models.RoomSelection) *models.BookingRequest {
	checkIn := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return &models.BookingRequest{
		CheckInDate:    checkIn,
		CheckOutDate:   checkIn.AddDate(0, 0, nights),
		RoomSelections: selections,
	}
}

func TestQuote(t *testing.T) {
	service := NewPricingService()
	hotel := pricingHotel()

	tests := []struct {
		name    string
		request *models.BookingRequest
		want    float64
	}{
		{
			name:    "single room single night",
			request: pricingRequest(1, models.RoomSelection{RoomType: models.RoomTypeDouble, Count: 1}),
			want:    120,
		},
		{
			name: "mixed selection over three nights",
			request: pricingRequest(3,
				models.RoomSelection{RoomType: models.RoomTypeDouble, Count: 2},
				models.RoomSelection{RoomType: models.RoomTypeSuite, Count: 1},
			),
			// 3*120*2 + 3*412.50*1
			want: 1957.5,
		},
		{
			name:    "fractional prices round to cents",
			request: pricingRequest(3, models.RoomSelection{RoomType: models.RoomTypeSingle, Count: 3}),
			// 3 * 79.99 * 3 = 719.91
			want: 719.91,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.Quote(hotel, tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuote_UnknownRoomType(t *testing.T) {
	service := NewPricingService()
	hotel := pricingHotel()

	_, err := service.Quote(hotel, pricingRequest(2, models.RoomSelection{RoomType: models.RoomTypeTwin, Count: 1}))
	assert.Error(t, err)
}

func TestQuote_ZeroNights(t *testing.T) {
	service := NewPricingService()
	hotel := pricingHotel()

	_, err := service.Quote(hotel, pricingRequest(0, models.RoomSelection{RoomType: models.RoomTypeDouble, Count: 1}))
	assert.Error(t, err)
}
