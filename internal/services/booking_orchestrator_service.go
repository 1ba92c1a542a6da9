package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayloop/hotel-booking-backend/internal/models"
)

// BookingOrchestratorConfig holds configuration for the orchestrator
type BookingOrchestratorConfig struct {
	PaymentTimeout time.Duration // Upper bound on a payment capture call
	PersistTimeout time.Duration // Upper bound on a persistence call
	Currency       string
}

// DefaultOrchestratorConfig returns default configuration
func DefaultOrchestratorConfig() BookingOrchestratorConfig {
	return BookingOrchestratorConfig{
		PaymentTimeout: 30 * time.Second,
		PersistTimeout: 10 * time.Second,
		Currency:       "USD",
	}
}

// BookingOrchestratorService drives the validate -> resolve -> reserve ->
// persist -> pay -> confirm flow. Failures after the ledger reservation
// compensate by releasing the reserved cells, so a failed request never
// leaves capacity decremented or a booking visible as confirmed.
type BookingOrchestratorService struct {
	customers   CustomerDirectory
	hotels      HotelCatalog
	ledger      AvailabilityLedger
	bookings    BookingStore
	payments    PaymentProcessor
	pricer      Pricer
	idempotency IdempotencyStore
	audit       *AuditService
	config      BookingOrchestratorConfig
	logger      *logrus.Logger

	// now is swapped in tests
	now func() time.Time
}

// NewBookingOrchestratorService creates a new orchestrator service
func NewBookingOrchestratorService(
	customers CustomerDirectory,
	hotels HotelCatalog,
	ledger AvailabilityLedger,
	bookings BookingStore,
	payments PaymentProcessor,
	pricer Pricer,
	idempotency IdempotencyStore,
	audit *AuditService,
	config BookingOrchestratorConfig,
	logger *logrus.Logger,
) *BookingOrchestratorService {
	return &BookingOrchestratorService{
		customers:   customers,
		hotels:      hotels,
		ledger:      ledger,
		bookings:    bookings,
		payments:    payments,
		pricer:      pricer,
		idempotency: idempotency,
		audit:       audit,
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

// ConfirmBooking turns a booking request into a confirmed, paid,
// inventory-adjusted booking, or into exactly one failure from the stable
// taxonomy with the ledger restored to its pre-request state.
func (s *BookingOrchestratorService) ConfirmBooking(
	ctx context.Context,
	req *models.BookingRequest,
	client models.ClientInfo,
) (*models.BookingConfirmation, error) {
	// 0. Replay a previously confirmed result for the same logical request
	if s.idempotency != nil && req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		existing, err := s.idempotency.Get(ctx, req.UserID, *req.IdempotencyKey)
		if err != nil {
			s.logger.WithError(err).Warn("Idempotency lookup failed, continuing without replay")
		}
		if existing != nil {
			return existing, nil
		}
	}

	// 1-2. Date and room-selection validation: no side effects on failure
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}

	// 3. Customer resolution
	customer, err := s.customers.FindByUserID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: customer lookup: %v", models.ErrPersistence, err)
	}
	if customer == nil {
		return nil, models.ErrCustomerNotFound
	}

	// 4. Hotel resolution; every requested room type must exist in the catalog
	hotel, err := s.hotels.FindByID(ctx, req.HotelID)
	if err != nil {
		return nil, fmt.Errorf("%w: hotel lookup: %v", models.ErrPersistence, err)
	}
	if hotel == nil {
		return nil, models.ErrHotelNotFound
	}
	for _, sel := range req.RoomSelections {
		if _, ok := hotel.RoomInventoryFor(sel.RoomType); !ok {
			return nil, &models.RoomUnavailableError{
				HotelID:   hotel.ID,
				Date:      req.CheckInDate,
				RoomType:  sel.RoomType,
				Requested: sel.Count,
				Remaining: 0,
			}
		}
	}

	// Total price is fixed before any durable state changes
	totalPrice, err := s.pricer.Quote(hotel, req)
	if err != nil {
		return nil, fmt.Errorf("%w: pricing: %v", models.ErrPersistence, err)
	}

	// 5. Atomic inventory reservation across the full stay
	token, err := s.ledger.Reserve(ctx, req.HotelID, req.CheckInDate, req.CheckOutDate, req.RoomSelections)
	if err != nil {
		if unavailable, ok := err.(*models.RoomUnavailableError); ok {
			s.logger.WithFields(logrus.Fields{
				"hotel_id":  req.HotelID,
				"date":      unavailable.Date.Format(models.DateLayout),
				"room_type": unavailable.RoomType,
				"requested": unavailable.Requested,
				"remaining": unavailable.Remaining,
			}).Info("Reservation rejected: insufficient capacity")
			return nil, unavailable
		}
		return nil, fmt.Errorf("%w: reservation: %v", models.ErrPersistence, err)
	}

	// 6. Persist the pending aggregate
	booking := &models.Booking{
		CustomerID:   customer.ID,
		HotelID:      hotel.ID,
		CheckInDate:  req.CheckInDate,
		CheckOutDate: req.CheckOutDate,
	}
	for _, sel := range req.RoomSelections {
		booking.BookedRooms = append(booking.BookedRooms, models.BookedRoom{
			RoomType: sel.RoomType,
			Count:    sel.Count,
		})
	}

	persistCtx, cancel := context.WithTimeout(ctx, s.config.PersistTimeout)
	err = s.bookings.CreatePending(persistCtx, booking)
	cancel()
	if err != nil {
		s.compensate(ctx, token, nil, client)
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	// 7. Payment capture, bounded by a timeout; a timeout is a failure
	payCtx, cancel := context.WithTimeout(ctx, s.config.PaymentTimeout)
	capture, err := s.payments.Capture(payCtx, &CaptureRequest{
		BookingID:     booking.ID,
		CustomerName:  customer.FullName(),
		CustomerEmail: customer.Email,
		Amount:        totalPrice,
		Currency:      s.config.Currency,
		Method:        req.PaymentMethod,
	})
	cancel()
	if err != nil {
		s.compensate(ctx, token, &booking.ID, client)
		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"hotel_id":   hotel.ID,
			"amount":     totalPrice,
		}).WithError(err).Warn("Payment capture failed, reservation released")
		return nil, fmt.Errorf("%w: %v", models.ErrPaymentFailed, err)
	}

	// 8. Finalization: attach payment, assign confirmation number, confirm
	payment := &models.Payment{
		TotalPrice:    totalPrice,
		Currency:      s.config.Currency,
		Method:        req.PaymentMethod,
		Status:        models.PaymentStatusCaptured,
		TransactionID: &capture.TransactionID,
	}
	confirmationNumber := newConfirmationNumber()

	persistCtx, cancel = context.WithTimeout(ctx, s.config.PersistTimeout)
	err = s.bookings.Confirm(persistCtx, booking.ID, confirmationNumber, payment)
	cancel()
	if err != nil {
		// Payment was captured but the booking cannot be confirmed: undo
		// everything, including the charge.
		s.compensate(ctx, token, &booking.ID, client)
		if refundErr := s.payments.Refund(ctx, capture.TransactionID, totalPrice, s.config.Currency); refundErr != nil {
			s.logger.WithFields(logrus.Fields{
				"booking_id":     booking.ID,
				"transaction_id": capture.TransactionID,
			}).WithError(refundErr).Error("Refund after failed confirmation did not go through, manual reconciliation required")
		}
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	if err := s.ledger.Commit(ctx, token); err != nil {
		// The decrement is already durable; a failed bookkeeping commit
		// leaves the reservation held and is reconciled offline.
		s.logger.WithFields(logrus.Fields{
			"booking_id":     booking.ID,
			"reservation_id": token.ID,
		}).WithError(err).Error("Ledger commit failed after confirmation")
	}

	confirmation := &models.BookingConfirmation{
		BookingID:          booking.ID,
		ConfirmationNumber: confirmationNumber,
		HotelID:            hotel.ID,
		HotelName:          hotel.Name,
		CheckInDate:        req.CheckInDate.Format(models.DateLayout),
		CheckOutDate:       req.CheckOutDate.Format(models.DateLayout),
		RoomSelections:     req.RoomSelections,
		TotalPrice:         totalPrice,
		Currency:           s.config.Currency,
		PaymentStatus:      models.PaymentStatusCaptured,
	}

	if s.idempotency != nil && req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		if err := s.idempotency.Put(ctx, req.UserID, *req.IdempotencyKey, confirmation); err != nil {
			s.logger.WithError(err).Warn("Failed to store idempotency result")
		}
	}

	s.recordAudit(ctx, &req.UserID, &booking.ID, "booking_confirmed", client, map[string]interface{}{
		"confirmation_number": confirmationNumber,
		"hotel_id":            hotel.ID.String(),
		"total_price":         totalPrice,
		"nights":              req.Nights(),
	})

	s.logger.WithFields(logrus.Fields{
		"booking_id":          booking.ID,
		"confirmation_number": confirmationNumber,
		"hotel_id":            hotel.ID,
		"customer_id":         customer.ID,
		"check_in":            req.CheckInDate.Format(models.DateLayout),
		"check_out":           req.CheckOutDate.Format(models.DateLayout),
		"total_price":         totalPrice,
	}).Info("Booking confirmed")

	return confirmation, nil
}

// GetBooking returns a booking owned by the acting principal.
func (s *BookingOrchestratorService) GetBooking(ctx context.Context, actorUserID, bookingID uuid.UUID) (*models.Booking, error) {
	customer, err := s.customers.FindByUserID(ctx, actorUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: customer lookup: %v", models.ErrPersistence, err)
	}
	if customer == nil {
		return nil, models.ErrCustomerNotFound
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	if booking == nil {
		return nil, models.ErrBookingNotFound
	}
	if booking.CustomerID != customer.ID {
		return nil, models.ErrNotBookingOwner
	}
	return booking, nil
}

// ListBookings returns all bookings owned by the acting principal,
// newest first.
func (s *BookingOrchestratorService) ListBookings(ctx context.Context, actorUserID uuid.UUID) ([]*models.Booking, error) {
	customer, err := s.customers.FindByUserID(ctx, actorUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: customer lookup: %v", models.ErrPersistence, err)
	}
	if customer == nil {
		return nil, models.ErrCustomerNotFound
	}

	bookings, err := s.bookings.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return bookings, nil
}

// CancelBooking cancels a confirmed booking owned by the acting principal:
// the booking moves to cancelled, the stay's remaining nights are restored
// in the ledger, and the captured payment is refunded.
func (s *BookingOrchestratorService) CancelBooking(
	ctx context.Context,
	actorUserID, bookingID uuid.UUID,
	client models.ClientInfo,
) error {
	booking, err := s.GetBooking(ctx, actorUserID, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return models.ErrBookingNotCancellable
	}

	cancelled, err := s.bookings.Cancel(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	if !cancelled {
		return models.ErrBookingNotCancellable
	}

	// Restore capacity for the remaining nights of the stay. Nights already
	// slept are gone either way.
	restoreFrom := models.DateOnly(s.now())
	if booking.CheckInDate.After(restoreFrom) {
		restoreFrom = models.DateOnly(booking.CheckInDate)
	}
	token := &models.ReservationToken{
		ID:      uuid.New(),
		HotelID: booking.HotelID,
		Status:  models.ReservationStatusHeld,
	}
	for date := restoreFrom; date.Before(models.DateOnly(booking.CheckOutDate)); date = date.AddDate(0, 0, 1) {
		for _, room := range booking.BookedRooms {
			token.Cells = append(token.Cells, models.ReservedCell{
				Date:     date,
				RoomType: room.RoomType,
				Count:    room.Count,
			})
		}
	}
	if len(token.Cells) > 0 {
		if err := s.ledger.Restore(ctx, token); err != nil {
			s.logger.WithFields(logrus.Fields{
				"booking_id": bookingID,
			}).WithError(err).Error("Cancellation did not restore ledger capacity, manual reconciliation required")
		}
	}

	if booking.Payment != nil && booking.Payment.TransactionID != nil {
		if err := s.payments.Refund(ctx, *booking.Payment.TransactionID, booking.Payment.TotalPrice, booking.Payment.Currency); err != nil {
			s.logger.WithFields(logrus.Fields{
				"booking_id":     bookingID,
				"transaction_id": *booking.Payment.TransactionID,
			}).WithError(err).Error("Refund for cancelled booking did not go through, manual reconciliation required")
		}
	}

	s.recordAudit(ctx, &actorUserID, &bookingID, "booking_cancelled", client, nil)

	s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"hotel_id":   booking.HotelID,
	}).Info("Booking cancelled")

	return nil
}

// ============================================================================
// HELPER METHODS
// ============================================================================

// compensate releases the ledger reservation and, when a booking row exists,
// marks it failed. A failed release is the one inconsistency this system
// cannot self-correct, so it is escalated loudly.
func (s *BookingOrchestratorService) compensate(
	ctx context.Context,
	token *models.ReservationToken,
	bookingID *uuid.UUID,
	client models.ClientInfo,
) {
	// The release must run even when the caller's request context is already
	// cancelled, e.g. a client disconnect mid-payment.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.PersistTimeout)
	defer cancel()

	if err := s.ledger.Release(ctx, token); err != nil {
		s.logger.WithFields(logrus.Fields{
			"reservation_id": token.ID,
			"hotel_id":       token.HotelID,
		}).WithError(err).Error(models.ErrReservationReleaseFailed.Error())
		s.recordAudit(ctx, nil, bookingID, "reservation_release_failed", client, map[string]interface{}{
			"reservation_id": token.ID.String(),
			"error":          err.Error(),
		})
	}

	if bookingID != nil {
		if err := s.bookings.MarkFailed(ctx, *bookingID); err != nil {
			s.logger.WithField("booking_id", *bookingID).WithError(err).Error("Failed to mark booking as failed")
		}
	}
}

func (s *BookingOrchestratorService) recordAudit(
	ctx context.Context,
	actorUserID, bookingID *uuid.UUID,
	action string,
	client models.ClientInfo,
	details map[string]interface{},
) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogBookingAction(ctx, actorUserID, bookingID, action, client, details); err != nil {
		s.logger.WithError(err).Warn("Failed to write booking audit event")
	}
}

// newConfirmationNumber derives a short, unique, human-readable confirmation
// number from a fresh UUID.
func newConfirmationNumber() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "BK-" + strings.ToUpper(raw[:12])
}
