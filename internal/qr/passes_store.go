package qr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// BookingPass is the server-side record of an issued QR pass.
type BookingPass struct {
	BookingID string    `json:"booking_id"`
	UserID    int64     `json:"user_id"`
	TokenID   string    `json:"token_id"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Store keeps issued passes in redis until the booking window ends.
// Deleting the pass revokes it.
type Store struct {
	client *redis.Client
}

// NewStore returns redis-backed pass store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) key(bookingID string) string {
	return fmt.Sprintf("bookings:pass:%s", bookingID)
}

// Save caches the pass until expiry.
func (s *Store) Save(ctx context.Context, pass BookingPass, expiry time.Time) error {
	data, err := json.Marshal(pass)
	if err != nil {
		return err
	}
	ttl := time.Until(expiry)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.client.Set(ctx, s.key(pass.BookingID), data, ttl).Err()
}

// Get returns the pass, or nil when it was revoked or expired.
func (s *Store) Get(ctx context.Context, bookingID string) (*BookingPass, error) {
	result, err := s.client.Get(ctx, s.key(bookingID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var pass BookingPass
	if err := json.Unmarshal([]byte(result), &pass); err != nil {
		return nil, err
	}
	return &pass, nil
}

// Delete revokes the pass. Deleting a missing pass is a no-op.
func (s *Store) Delete(ctx context.Context, bookingID string) error {
	return s.client.Del(ctx, s.key(bookingID)).Err()
}
