package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stayloop/hotel-booking-backend/internal/models"
)

// RedisIdempotencyStore keeps confirmed booking results keyed by
// (user, idempotency key) so a retried request replays the original
// confirmation instead of booking and charging twice.
// Implements IdempotencyStore.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyStore creates a new RedisIdempotencyStore
func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func idempotencyKey(userID uuid.UUID, key string) string {
	return fmt.Sprintf("booking:idem:%s:%s", userID, key)
}

// Get returns the stored confirmation, or nil when the key is unseen.
func (s *RedisIdempotencyStore) Get(ctx context.Context, userID uuid.UUID, key string) (*models.BookingConfirmation, error) {
	data, err := s.client.Get(ctx, idempotencyKey(userID, key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency get failed: %w", err)
	}

	var confirmation models.BookingConfirmation
	if err := json.Unmarshal(data, &confirmation); err != nil {
		return nil, fmt.Errorf("failed to decode stored confirmation: %w", err)
	}
	return &confirmation, nil
}

// Put stores the confirmation for the TTL window. SetNX keeps the first
// stored result authoritative if two retries race.
func (s *RedisIdempotencyStore) Put(ctx context.Context, userID uuid.UUID, key string, confirmation *models.BookingConfirmation) error {
	data, err := json.Marshal(confirmation)
	if err != nil {
		return fmt.Errorf("failed to encode confirmation: %w", err)
	}
	if err := s.client.SetNX(ctx, idempotencyKey(userID, key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency put failed: %w", err)
	}
	return nil
}
