package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingAuditEvent is one append-only audit trail entry for a booking action.
type BookingAuditEvent struct {
	ID        uuid.UUID              `db:"id" json:"id"`
	ActorID   *uuid.UUID             `db:"actor_id" json:"actor_id,omitempty"`
	BookingID *uuid.UUID             `db:"booking_id" json:"booking_id,omitempty"`
	Action    string                 `db:"action" json:"action"` // booking_confirmed, booking_failed, booking_cancelled
	IPAddress string                 `db:"ip_address" json:"ip_address"`
	UserAgent string                 `db:"user_agent" json:"user_agent"`
	Details   map[string]interface{} `db:"-" json:"details,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// ClientInfo carries transport-level client metadata into the audit trail.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}
