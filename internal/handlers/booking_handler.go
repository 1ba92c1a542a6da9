package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayloop/hotel-booking-backend/internal/middleware"
	"github.com/stayloop/hotel-booking-backend/internal/models"
	"github.com/stayloop/hotel-booking-backend/internal/services"
	"github.com/stayloop/hotel-booking-backend/internal/utils"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// BookingHandler handles booking-related HTTP requests
type BookingHandler struct {
	orchestrator *services.BookingOrchestratorService
	logger       *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(orchestrator *services.BookingOrchestratorService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	principal, exists := middleware.GetPrincipal(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	bookingReq, err := req.ToBookingRequest(principal.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	client := models.ClientInfo{
		IPAddress: utils.GetRealIP(c),
		UserAgent: c.GetHeader("User-Agent"),
	}

	confirmation, err := h.orchestrator.ConfirmBooking(c.Request.Context(), bookingReq, client)
	if err != nil {
		h.respondBookingError(c, principal.UserID, err)
		return
	}

	c.JSON(http.StatusCreated, confirmation)
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	principal, exists := middleware.GetPrincipal(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid booking ID format",
		})
		return
	}

	booking, err := h.orchestrator.GetBooking(c.Request.Context(), principal.UserID, bookingID)
	if err != nil {
		h.respondBookingError(c, principal.UserID, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ListBookings handles GET /api/v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	principal, exists := middleware.GetPrincipal(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	bookings, err := h.orchestrator.ListBookings(c.Request.Context(), principal.UserID)
	if err != nil {
		h.respondBookingError(c, principal.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	principal, exists := middleware.GetPrincipal(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid booking ID format",
		})
		return
	}

	client := models.ClientInfo{
		IPAddress: utils.GetRealIP(c),
		UserAgent: c.GetHeader("User-Agent"),
	}

	if err := h.orchestrator.CancelBooking(c.Request.Context(), principal.UserID, bookingID, client); err != nil {
		h.respondBookingError(c, principal.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled successfully",
	})
}

// respondBookingError maps booking service errors to HTTP responses.
func (h *BookingHandler) respondBookingError(c *gin.Context, userID uuid.UUID, err error) {
	var unavailable *models.RoomUnavailableError
	if errors.As(err, &unavailable) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "room_unavailable",
			Message: unavailable.Error(),
			Code:    "ROOM_UNAVAILABLE",
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrInvalidDateRange):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    "INVALID_DATE_RANGE",
		})
	case errors.Is(err, models.ErrEmptySelection):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    "EMPTY_SELECTION",
		})
	case errors.Is(err, models.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Customer profile not found",
			Code:    "CUSTOMER_NOT_FOUND",
		})
	case errors.Is(err, models.ErrHotelNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Hotel not found",
			Code:    "HOTEL_NOT_FOUND",
		})
	case errors.Is(err, models.ErrRoomUnavailable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "room_unavailable",
			Message: err.Error(),
			Code:    "ROOM_UNAVAILABLE",
		})
	case errors.Is(err, models.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Booking not found",
			Code:    "BOOKING_NOT_FOUND",
		})
	case errors.Is(err, models.ErrNotBookingOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "You do not have access to this booking",
			Code:    "NOT_BOOKING_OWNER",
		})
	case errors.Is(err, models.ErrBookingNotCancellable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: "Booking cannot be cancelled in its current state",
			Code:    "BOOKING_NOT_CANCELLABLE",
		})
	case errors.Is(err, models.ErrPaymentFailed):
		c.JSON(http.StatusPaymentRequired, ErrorResponse{
			Error:   "payment_failed",
			Message: "Payment could not be processed",
			Code:    "PAYMENT_FAILED",
		})
	default:
		h.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("Booking request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
		})
	}
}
