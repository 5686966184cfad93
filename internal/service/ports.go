package service

import (
	"context"
	"time"

	"evbooking/internal/models"
)

// StationStore is the station repository collaborator. AdjustAvailableSlots
// must apply the delta atomically and fail with CapacityExhausted when a
// decrement would drop below zero.
type StationStore interface {
	GetStation(ctx context.Context, id string) (*models.Station, error)
	AdjustAvailableSlots(ctx context.Context, id string, delta int) error
}

// BookingStore is the booking repository collaborator.
type BookingStore interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, b *models.Booking) error
	ListOverlapping(ctx context.Context, stationID string, start, end time.Time) ([]models.Booking, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Booking, error)
	ListOverdue(ctx context.Context, before time.Time, limit int) ([]models.Booking, error)
}

// Notifier is informed after each successful transition. Implementations
// must not block and their failures never roll back a transition.
type Notifier interface {
	NotifyTransition(bookingID string, from, to models.BookingStatus)
}

// PassIssuer issues and revokes QR passes bound to bookings.
type PassIssuer interface {
	Issue(ctx context.Context, b *models.Booking) (string, error)
	Revoke(ctx context.Context, bookingID string) error
}
