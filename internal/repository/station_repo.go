package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"evbooking/internal/models"
)

// StationRepository handles persistence of charging stations.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository returns repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

const stationColumns = `id, name, location, connector_type, power_kw, price_per_kwh, total_slots, available_slots, status, max_booking_minutes, created_at, updated_at`

func scanStation(row interface{ Scan(...any) error }) (*models.Station, error) {
	var s models.Station
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Location,
		&s.ConnectorType,
		&s.PowerKW,
		&s.PricePerKWh,
		&s.TotalSlots,
		&s.AvailableSlots,
		&s.Status,
		&s.MaxBookingMins,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetStation returns a station by id.
func (r *StationRepository) GetStation(ctx context.Context, id string) (*models.Station, error) {
	query := fmt.Sprintf(`SELECT %s FROM stations WHERE id = $1`, stationColumns)
	station, err := scanStation(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.E(models.KindNotFound, "station %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get station: %w", err)
	}
	return station, nil
}

// ListStations returns all stations.
func (r *StationRepository) ListStations(ctx context.Context) ([]models.Station, error) {
	query := fmt.Sprintf(`SELECT %s FROM stations ORDER BY name`, stationColumns)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}

// CreateStation inserts a station with available slots equal to total slots.
func (r *StationRepository) CreateStation(ctx context.Context, station *models.Station) error {
	const query = `
		INSERT INTO stations (id, name, location, connector_type, power_kw, price_per_kwh, total_slots, available_slots, status, max_booking_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	station.AvailableSlots = station.TotalSlots
	err := r.db.QueryRowContext(ctx, query,
		station.ID,
		station.Name,
		station.Location,
		station.ConnectorType,
		station.PowerKW,
		station.PricePerKWh,
		station.TotalSlots,
		station.Status,
		station.MaxBookingMins,
	).Scan(&station.CreatedAt, &station.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create station: %w", err)
	}
	return nil
}

// UpdateStation persists mutable station metadata. Slot counts are excluded:
// only AdjustAvailableSlots touches capacity.
func (r *StationRepository) UpdateStation(ctx context.Context, station *models.Station) error {
	const query = `
		UPDATE stations
		SET name = $2,
		    location = $3,
		    connector_type = $4,
		    power_kw = $5,
		    price_per_kwh = $6,
		    status = $7,
		    max_booking_minutes = $8,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		station.ID,
		station.Name,
		station.Location,
		station.ConnectorType,
		station.PowerKW,
		station.PricePerKWh,
		station.Status,
		station.MaxBookingMins,
	)
	if err != nil {
		return fmt.Errorf("update station: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.E(models.KindNotFound, "station %s not found", station.ID)
	}
	return nil
}

// AdjustAvailableSlots atomically applies delta to available_slots, refusing
// any update that would leave the count outside [0, total_slots]. The guard
// and the write are a single statement so concurrent adjustments cannot race
// past capacity.
func (r *StationRepository) AdjustAvailableSlots(ctx context.Context, id string, delta int) error {
	const query = `
		UPDATE stations
		SET available_slots = available_slots + $2,
		    updated_at = NOW()
		WHERE id = $1
		  AND available_slots + $2 >= 0
		  AND available_slots + $2 <= total_slots
	`
	result, err := r.db.ExecContext(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("adjust slots: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := r.GetStation(ctx, id); err != nil {
			return err
		}
		if delta < 0 {
			return models.E(models.KindCapacityExhausted, "station %s has no available slots", id)
		}
		return fmt.Errorf("adjust slots: station %s already at capacity bound", id)
	}
	return nil
}
