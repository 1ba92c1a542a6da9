package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stayloop/hotel-booking-backend/internal/models"
)

// BookingAuditRepository writes the append-only booking audit trail.
type BookingAuditRepository struct {
	db *sqlx.DB
}

// NewBookingAuditRepository creates a new BookingAuditRepository
func NewBookingAuditRepository(db *sqlx.DB) *BookingAuditRepository {
	return &BookingAuditRepository{db: db}
}

// Insert appends one audit event. Details are stored as JSONB.
func (r *BookingAuditRepository) Insert(ctx context.Context, event *models.BookingAuditEvent) error {
	var detailsJSON interface{}
	if event.Details != nil {
		data, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
		detailsJSON = data
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO booking_audit_events (
			actor_id, booking_id, action, ip_address, user_agent, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ActorID, event.BookingID, event.Action,
		event.IPAddress, event.UserAgent, detailsJSON, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}
