package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stayloop/hotel-booking-backend/internal/models"
	"github.com/stayloop/hotel-booking-backend/internal/utils"
)

// AuditEventWriter appends booking audit events.
type AuditEventWriter interface {
	Insert(ctx context.Context, event *models.BookingAuditEvent) error
}

// AuditService records who did what to which booking, with the client's
// device info attached.
type AuditService struct {
	events AuditEventWriter
}

// NewAuditService creates a new audit service
func NewAuditService(events AuditEventWriter) *AuditService {
	return &AuditService{events: events}
}

// LogBookingAction appends one audit event for a booking action.
func (s *AuditService) LogBookingAction(
	ctx context.Context,
	actorUserID, bookingID *uuid.UUID,
	action string,
	client models.ClientInfo,
	details map[string]interface{},
) error {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["device_info"] = utils.ParseUserAgent(client.UserAgent)

	return s.events.Insert(ctx, &models.BookingAuditEvent{
		ActorID:   actorUserID,
		BookingID: bookingID,
		Action:    action,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Details:   details,
	})
}
