package service

import (
	"context"
	"testing"
	"time"

	"evbooking/internal/models"
)

func seedBooking(t *testing.T, bookings *memBookings, id, stationID string, start, end time.Time, status models.BookingStatus) {
	t.Helper()
	bookings.bookings[id] = &models.Booking{
		ID:        id,
		UserID:    1,
		StationID: stationID,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
}

func TestCheckReportsConflicts(t *testing.T) {
	stations := newMemStations(testStation("st-1", 2))
	bookings := newMemBookings()
	checker := NewAvailabilityChecker(stations, bookings)

	day := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	seedBooking(t, bookings, "b-1", "st-1", day.Add(10*time.Hour), day.Add(11*time.Hour), models.BookingApproved)

	result, err := checker.Check(context.Background(), "st-1", day.Add(10*time.Hour+30*time.Minute), day.Add(11*time.Hour+30*time.Minute), "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Available {
		t.Fatal("expected unavailable for overlapping window")
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].ID != "b-1" {
		t.Fatalf("expected booking b-1 as conflict, got %+v", result.Conflicts)
	}
}

func TestCheckBoundaryTouchingIsFree(t *testing.T) {
	stations := newMemStations(testStation("st-1", 2))
	bookings := newMemBookings()
	checker := NewAvailabilityChecker(stations, bookings)

	day := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	seedBooking(t, bookings, "b-1", "st-1", day.Add(10*time.Hour), day.Add(11*time.Hour), models.BookingApproved)

	result, err := checker.Check(context.Background(), "st-1", day.Add(11*time.Hour), day.Add(12*time.Hour), "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Available {
		t.Fatalf("window starting at the other's end must be free, conflicts=%+v", result.Conflicts)
	}
}

func TestCheckIgnoresNonOccupyingStatuses(t *testing.T) {
	stations := newMemStations(testStation("st-1", 2))
	bookings := newMemBookings()
	checker := NewAvailabilityChecker(stations, bookings)

	day := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	seedBooking(t, bookings, "b-1", "st-1", day.Add(10*time.Hour), day.Add(11*time.Hour), models.BookingCancelled)
	seedBooking(t, bookings, "b-2", "st-1", day.Add(10*time.Hour), day.Add(11*time.Hour), models.BookingRejected)
	seedBooking(t, bookings, "b-3", "st-1", day.Add(10*time.Hour), day.Add(11*time.Hour), models.BookingNoShow)

	result, err := checker.Check(context.Background(), "st-1", day.Add(10*time.Hour), day.Add(11*time.Hour), "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Available {
		t.Fatalf("terminal non-occupying bookings must not conflict, conflicts=%+v", result.Conflicts)
	}
}

func TestCheckCompletedStillOccupies(t *testing.T) {
	stations := newMemStations(testStation("st-1", 2))
	bookings := newMemBookings()
	checker := NewAvailabilityChecker(stations, bookings)

	day := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	seedBooking(t, bookings, "b-1", "st-1", day.Add(10*time.Hour), day.Add(11*time.Hour), models.BookingCompleted)

	result, err := checker.Check(context.Background(), "st-1", day.Add(10*time.Hour), day.Add(11*time.Hour), "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Available {
		t.Fatal("completed bookings keep occupying their window")
	}
}

func TestCheckExcludesBookingBeingMoved(t *testing.T) {
	stations := newMemStations(testStation("st-1", 2))
	bookings := newMemBookings()
	checker := NewAvailabilityChecker(stations, bookings)

	day := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	seedBooking(t, bookings, "b-1", "st-1", day.Add(10*time.Hour), day.Add(11*time.Hour), models.BookingPending)

	result, err := checker.Check(context.Background(), "st-1", day.Add(10*time.Hour+15*time.Minute), day.Add(11*time.Hour+15*time.Minute), "b-1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Available {
		t.Fatalf("excluded booking must not self-conflict, conflicts=%+v", result.Conflicts)
	}
}

func TestCheckRequiresActiveStationWithCapacity(t *testing.T) {
	inactive := testStation("st-1", 2)
	inactive.Status = models.StationMaintenance
	full := testStation("st-2", 2)
	full.AvailableSlots = 0
	stations := newMemStations(inactive, full)
	bookings := newMemBookings()
	checker := NewAvailabilityChecker(stations, bookings)

	day := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)

	result, err := checker.Check(context.Background(), "st-1", day.Add(10*time.Hour), day.Add(11*time.Hour), "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Available {
		t.Fatal("station in maintenance must not be available")
	}

	result, err = checker.Check(context.Background(), "st-2", day.Add(10*time.Hour), day.Add(11*time.Hour), "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Available {
		t.Fatal("station without free slots must not be available")
	}
}

func TestCheckRejectsMalformedWindows(t *testing.T) {
	stations := newMemStations(testStation("st-1", 2))
	checker := NewAvailabilityChecker(stations, newMemBookings())

	day := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)

	_, err := checker.Check(context.Background(), "st-1", day.Add(11*time.Hour), day.Add(10*time.Hour), "")
	if !models.IsKind(err, models.KindInvalidWindow) {
		t.Fatalf("expected InvalidWindow for reversed range, got %v", err)
	}

	_, err = checker.Check(context.Background(), "st-1", day.Add(23*time.Hour+30*time.Minute), day.Add(24*time.Hour+30*time.Minute), "")
	if !models.IsKind(err, models.KindInvalidWindow) {
		t.Fatalf("expected InvalidWindow for cross-midnight range, got %v", err)
	}

	_, err = checker.Check(context.Background(), "st-1", day.Add(10*time.Hour), day.Add(15*time.Hour), "")
	if !models.IsKind(err, models.KindInvalidWindow) {
		t.Fatalf("expected InvalidWindow for oversized range, got %v", err)
	}
}

func TestCheckUnknownStation(t *testing.T) {
	checker := NewAvailabilityChecker(newMemStations(), newMemBookings())
	day := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)

	_, err := checker.Check(context.Background(), "missing", day.Add(10*time.Hour), day.Add(11*time.Hour), "")
	if !models.IsKind(err, models.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
