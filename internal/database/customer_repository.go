package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stayloop/hotel-booking-backend/internal/models"
)

// CustomerRepository is the read-only customer directory adapter. The booking
// core looks customers up by their user ID and never writes to this table.
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// FindByUserID returns the customer for a user ID, or nil when none exists.
func (r *CustomerRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.GetContext(ctx, &customer, `
		SELECT id, user_id, first_name, last_name, email, created_at
		FROM customers
		WHERE user_id = $1`,
		userID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer by user id: %w", err)
	}
	return &customer, nil
}
