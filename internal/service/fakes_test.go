package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"evbooking/internal/models"
)

type memStations struct {
	mu       sync.Mutex
	stations map[string]*models.Station
}

func newMemStations(stations ...*models.Station) *memStations {
	m := &memStations{stations: make(map[string]*models.Station)}
	for _, s := range stations {
		copied := *s
		m.stations[s.ID] = &copied
	}
	return m
}

func (m *memStations) GetStation(_ context.Context, id string) (*models.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stations[id]
	if !ok {
		return nil, models.E(models.KindNotFound, "station %s not found", id)
	}
	copied := *s
	return &copied, nil
}

func (m *memStations) AdjustAvailableSlots(_ context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stations[id]
	if !ok {
		return models.E(models.KindNotFound, "station %s not found", id)
	}
	next := s.AvailableSlots + delta
	if next < 0 {
		return models.E(models.KindCapacityExhausted, "station %s has no available slots", id)
	}
	if next > s.TotalSlots {
		return fmt.Errorf("adjust slots: station %s already at capacity bound", id)
	}
	s.AvailableSlots = next
	return nil
}

func (m *memStations) availableSlots(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stations[id].AvailableSlots
}

type memBookings struct {
	mu         sync.Mutex
	bookings   map[string]*models.Booking
	createErr  error
	updateErr  error
}

func newMemBookings() *memBookings {
	return &memBookings{bookings: make(map[string]*models.Booking)}
}

func (m *memBookings) CreateBooking(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	copied := *b
	m.bookings[b.ID] = &copied
	return nil
}

func (m *memBookings) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, models.E(models.KindNotFound, "booking %s not found", id)
	}
	copied := *b
	return &copied, nil
}

func (m *memBookings) UpdateBooking(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.bookings[b.ID]; !ok {
		return models.E(models.KindNotFound, "booking %s not found", b.ID)
	}
	b.UpdatedAt = time.Now().UTC()
	copied := *b
	m.bookings[b.ID] = &copied
	return nil
}

func (m *memBookings) ListOverlapping(_ context.Context, stationID string, start, end time.Time) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Booking
	for _, b := range m.bookings {
		if b.StationID != stationID || !b.Status.OccupiesSlot() {
			continue
		}
		if b.Overlaps(start, end) {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *memBookings) ListByUser(_ context.Context, userID int64, _ int) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *memBookings) ListOverdue(_ context.Context, before time.Time, _ int) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Booking
	for _, b := range m.bookings {
		if (b.Status == models.BookingPending || b.Status == models.BookingApproved) && b.StartTime.Before(before) {
			result = append(result, *b)
		}
	}
	return result, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeNotifier) NotifyTransition(bookingID string, from, to models.BookingStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fmt.Sprintf("%s:%s->%s", bookingID, from, to))
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakePasses struct {
	mu       sync.Mutex
	issued   map[string]string
	expiries map[string]time.Time
	issues   int
	revoked  []string
}

func newFakePasses() *fakePasses {
	return &fakePasses{
		issued:   make(map[string]string),
		expiries: make(map[string]time.Time),
	}
}

func (f *fakePasses) Issue(_ context.Context, b *models.Booking) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues++
	token := fmt.Sprintf("pass-%s-%d", b.ID, f.issues)
	f.issued[b.ID] = token
	f.expiries[b.ID] = b.EndTime
	return token, nil
}

func (f *fakePasses) Revoke(_ context.Context, bookingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.issued, bookingID)
	f.revoked = append(f.revoked, bookingID)
	return nil
}

func (f *fakePasses) issueCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issues
}

func (f *fakePasses) expiryFor(bookingID string) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expiries[bookingID]
}

func (f *fakePasses) wasRevoked(bookingID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.revoked {
		if id == bookingID {
			return true
		}
	}
	return false
}
