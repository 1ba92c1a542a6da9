package services

import (
	"fmt"
	"math"

	"github.com/stayloop/hotel-booking-backend/internal/models"
)

// PricingService computes booking totals from the catalog's nightly prices:
// total = sum over selections of nights * price per night * count.
// Implements Pricer.
type PricingService struct{}

// NewPricingService creates a new PricingService
func NewPricingService() *PricingService {
	return &PricingService{}
}

// Quote returns the total price for the requested stay, rounded to cents.
func (s *PricingService) Quote(hotel *models.Hotel, request *models.BookingRequest) (float64, error) {
	nights := request.Nights()
	if nights <= 0 {
		return 0, fmt.Errorf("stay must be at least one night")
	}

	var total float64
	for _, sel := range request.RoomSelections {
		inv, ok := hotel.RoomInventoryFor(sel.RoomType)
		if !ok {
			return 0, fmt.Errorf("hotel %s does not offer room type %s", hotel.ID, sel.RoomType)
		}
		total += float64(nights) * inv.PricePerNight * float64(sel.Count)
	}

	return math.Round(total*100) / 100, nil
}
