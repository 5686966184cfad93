package qr

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"evbooking/internal/models"
)

// PassStore persists issued passes; deletion revokes them.
type PassStore interface {
	Save(ctx context.Context, pass BookingPass, expiry time.Time) error
	Get(ctx context.Context, bookingID string) (*BookingPass, error)
	Delete(ctx context.Context, bookingID string) error
}

// BookingGetter loads bookings for validation.
type BookingGetter interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
}

// Service issues HMAC-signed QR passes bound to booking ids and validates
// them at the physical station. The token itself is opaque to the rest of
// the system.
type Service struct {
	secret   []byte
	store    PassStore
	bookings BookingGetter
}

// NewService builds QR pass service.
func NewService(secret string, store PassStore, bookings BookingGetter) *Service {
	return &Service{secret: []byte(secret), store: store, bookings: bookings}
}

// Issue signs a pass for the booking, valid until the booking window ends,
// and records it so it can be revoked later.
func (s *Service) Issue(ctx context.Context, b *models.Booking) (string, error) {
	tokenID := uuid.NewString()
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"booking_id": b.ID,
		"user_id":    b.UserID,
		"jti":        tokenID,
		"iat":        now.Unix(),
		"exp":        b.EndTime.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}

	pass := BookingPass{
		BookingID: b.ID,
		UserID:    b.UserID,
		TokenID:   tokenID,
		IssuedAt:  now,
	}
	if err := s.store.Save(ctx, pass, b.EndTime); err != nil {
		return "", err
	}
	return token, nil
}

// Revoke invalidates any pass issued for the booking.
func (s *Service) Revoke(ctx context.Context, bookingID string) error {
	return s.store.Delete(ctx, bookingID)
}

// Validate verifies the token signature, checks the pass was not revoked and
// rejects passes whose booking is not Approved or InProgress.
func (s *Service) Validate(ctx context.Context, token string) (*models.Booking, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, models.E(models.KindUnauthorized, "invalid qr pass")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.E(models.KindUnauthorized, "invalid qr pass claims")
	}
	bookingID, _ := claims["booking_id"].(string)
	tokenID, _ := claims["jti"].(string)
	if bookingID == "" || tokenID == "" {
		return nil, models.E(models.KindUnauthorized, "invalid qr pass claims")
	}

	pass, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if pass == nil || pass.TokenID != tokenID {
		return nil, models.E(models.KindUnauthorized, "qr pass has been revoked")
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingApproved && booking.Status != models.BookingInProgress {
		return nil, models.E(models.KindUnauthorized, "booking %s is %s", booking.ID, booking.Status)
	}
	return booking, nil
}
