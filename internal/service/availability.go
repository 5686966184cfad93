package service

import (
	"context"
	"time"

	"evbooking/internal/models"
)

// AvailabilityChecker answers whether a station window is free of
// conflicting reservations. Pure read, safe for concurrent use.
type AvailabilityChecker struct {
	stations StationStore
	bookings BookingStore
}

// NewAvailabilityChecker builds checker.
func NewAvailabilityChecker(stations StationStore, bookings BookingStore) *AvailabilityChecker {
	return &AvailabilityChecker{stations: stations, bookings: bookings}
}

// Check validates the window against the station and scans occupying
// bookings for overlap. excludeBookingID, when non-empty, removes that
// booking from the conflict set so a modification can re-check without
// self-conflicting.
func (c *AvailabilityChecker) Check(ctx context.Context, stationID string, start, end time.Time, excludeBookingID string) (*models.Availability, error) {
	station, err := c.stations.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}

	start, end = start.UTC(), end.UTC()
	if err := validateWindow(station, start, end); err != nil {
		return nil, err
	}

	overlapping, err := c.bookings.ListOverlapping(ctx, stationID, start, end)
	if err != nil {
		return nil, err
	}

	var conflicts []models.Booking
	for _, b := range overlapping {
		if excludeBookingID != "" && b.ID == excludeBookingID {
			continue
		}
		conflicts = append(conflicts, b)
	}

	return &models.Availability{
		Available: len(conflicts) == 0 && station.AvailableSlots > 0 && station.Status == models.StationActive,
		Conflicts: conflicts,
	}, nil
}

// validateWindow enforces the shape of a requested window: ordered, within
// one calendar day (UTC), and no longer than the station's cap.
// Cross-midnight windows are rejected; the schedule is same-day only.
func validateWindow(station *models.Station, start, end time.Time) error {
	if !start.Before(end) {
		return models.E(models.KindInvalidWindow, "start time must be before end time")
	}
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy != ey || sm != em || sd != ed {
		return models.E(models.KindInvalidWindow, "booking window must not cross midnight")
	}
	if max := station.MaxBookingDuration(); max > 0 && end.Sub(start) > max {
		return models.E(models.KindInvalidWindow, "duration exceeds station limit of %d minutes", station.MaxBookingMins)
	}
	return nil
}
