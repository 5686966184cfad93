package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"evbooking/internal/models"
)

// BookingRepository handles persistence of bookings.
type BookingRepository struct {
	db *sql.DB
}

// NewBookingRepository returns repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, user_id, station_id, start_time, end_time, status, vehicle_number, vehicle_type, estimated_minutes, qr_token, approved_at, approved_by, started_at, completed_at, completed_by, cancelled_at, cancelled_by, rejected_at, rejected_by, status_reason, total_cost, energy_kwh, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var (
		b           models.Booking
		approvedAt  sql.NullTime
		startedAt   sql.NullTime
		completedAt sql.NullTime
		cancelledAt sql.NullTime
		rejectedAt  sql.NullTime
	)
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.StationID,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.VehicleNumber,
		&b.VehicleType,
		&b.EstimatedMins,
		&b.QRToken,
		&approvedAt,
		&b.ApprovedBy,
		&startedAt,
		&completedAt,
		&b.CompletedBy,
		&cancelledAt,
		&b.CancelledBy,
		&rejectedAt,
		&b.RejectedBy,
		&b.StatusReason,
		&b.TotalCost,
		&b.EnergyKWh,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.ApprovedAt = timePtr(approvedAt)
	b.StartedAt = timePtr(startedAt)
	b.CompletedAt = timePtr(completedAt)
	b.CancelledAt = timePtr(cancelledAt)
	b.RejectedAt = timePtr(rejectedAt)
	return &b, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// CreateBooking inserts a new booking row.
func (r *BookingRepository) CreateBooking(ctx context.Context, b *models.Booking) error {
	const query = `
		INSERT INTO bookings (id, user_id, station_id, start_time, end_time, status, vehicle_number, vehicle_type, estimated_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		b.ID,
		b.UserID,
		b.StationID,
		b.StartTime,
		b.EndTime,
		b.Status,
		b.VehicleNumber,
		b.VehicleType,
		b.EstimatedMins,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// GetBooking returns a booking by id.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.E(models.KindNotFound, "booking %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// UpdateBooking persists all mutable booking state.
func (r *BookingRepository) UpdateBooking(ctx context.Context, b *models.Booking) error {
	const query = `
		UPDATE bookings
		SET start_time = $2,
		    end_time = $3,
		    status = $4,
		    qr_token = $5,
		    approved_at = $6,
		    approved_by = $7,
		    started_at = $8,
		    completed_at = $9,
		    completed_by = $10,
		    cancelled_at = $11,
		    cancelled_by = $12,
		    rejected_at = $13,
		    rejected_by = $14,
		    status_reason = $15,
		    total_cost = $16,
		    energy_kwh = $17,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		b.ID,
		b.StartTime,
		b.EndTime,
		b.Status,
		b.QRToken,
		nullTime(b.ApprovedAt),
		b.ApprovedBy,
		nullTime(b.StartedAt),
		nullTime(b.CompletedAt),
		b.CompletedBy,
		nullTime(b.CancelledAt),
		b.CancelledBy,
		nullTime(b.RejectedAt),
		b.RejectedBy,
		b.StatusReason,
		b.TotalCost,
		b.EnergyKWh,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.E(models.KindNotFound, "booking %s not found", b.ID)
	}
	return nil
}

// ListByUser returns last N bookings for a user.
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE user_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, bookingColumns)
	return r.queryBookings(ctx, query, userID, limit)
}

// ListOverlapping returns slot-occupying bookings on the station whose
// [start_time, end_time) window overlaps [start, end). Half-open overlap:
// boundary-touching bookings do not match.
func (r *BookingRepository) ListOverlapping(ctx context.Context, stationID string, start, end time.Time) ([]models.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE station_id = $1
		  AND start_time < $3
		  AND $2 < end_time
		  AND status IN ('Pending', 'Approved', 'InProgress', 'Completed')
		ORDER BY start_time
	`, bookingColumns)
	return r.queryBookings(ctx, query, stationID, start, end)
}

// ListOverdue returns Pending/Approved bookings whose start time passed
// before the given instant. Used by the no-show sweep.
func (r *BookingRepository) ListOverdue(ctx context.Context, before time.Time, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE status IN ('Pending', 'Approved')
		  AND start_time < $1
		ORDER BY start_time
		LIMIT $2
	`, bookingColumns)
	return r.queryBookings(ctx, query, before, limit)
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
