package qr

import (
	"context"
	"strings"
	"testing"
	"time"

	"evbooking/internal/models"
)

type memStore struct {
	passes map[string]BookingPass
}

func newMemStore() *memStore {
	return &memStore{passes: make(map[string]BookingPass)}
}

func (m *memStore) Save(_ context.Context, pass BookingPass, _ time.Time) error {
	m.passes[pass.BookingID] = pass
	return nil
}

func (m *memStore) Get(_ context.Context, bookingID string) (*BookingPass, error) {
	pass, ok := m.passes[bookingID]
	if !ok {
		return nil, nil
	}
	return &pass, nil
}

func (m *memStore) Delete(_ context.Context, bookingID string) error {
	delete(m.passes, bookingID)
	return nil
}

type bookingGetter struct {
	booking *models.Booking
}

func (g *bookingGetter) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	if g.booking == nil || g.booking.ID != id {
		return nil, models.E(models.KindNotFound, "booking %s not found", id)
	}
	copied := *g.booking
	return &copied, nil
}

func approvedBooking() *models.Booking {
	return &models.Booking{
		ID:        "b-1",
		UserID:    7,
		StationID: "st-1",
		StartTime: time.Now().UTC().Add(2 * time.Hour),
		EndTime:   time.Now().UTC().Add(3 * time.Hour),
		Status:    models.BookingApproved,
	}
}

func TestIssueAndValidate(t *testing.T) {
	booking := approvedBooking()
	svc := NewService("test-secret", newMemStore(), &bookingGetter{booking: booking})

	token, err := svc.Issue(context.Background(), booking)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	validated, err := svc.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validated.ID != booking.ID {
		t.Fatalf("expected booking %s, got %s", booking.ID, validated.ID)
	}
}

func TestValidateRejectsRevokedPass(t *testing.T) {
	booking := approvedBooking()
	svc := NewService("test-secret", newMemStore(), &bookingGetter{booking: booking})

	token, err := svc.Issue(context.Background(), booking)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := svc.Revoke(context.Background(), booking.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	_, err = svc.Validate(context.Background(), token)
	if !models.IsKind(err, models.KindUnauthorized) {
		t.Fatalf("expected Unauthorized after revocation, got %v", err)
	}
}

func TestValidateRejectsNonApprovedBooking(t *testing.T) {
	booking := approvedBooking()
	getter := &bookingGetter{booking: booking}
	svc := NewService("test-secret", newMemStore(), getter)

	token, err := svc.Issue(context.Background(), booking)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cancelled := *booking
	cancelled.Status = models.BookingCancelled
	getter.booking = &cancelled

	_, err = svc.Validate(context.Background(), token)
	if !models.IsKind(err, models.KindUnauthorized) {
		t.Fatalf("expected Unauthorized for cancelled booking, got %v", err)
	}
}

func TestValidateAcceptsInProgress(t *testing.T) {
	booking := approvedBooking()
	getter := &bookingGetter{booking: booking}
	svc := NewService("test-secret", newMemStore(), getter)

	token, err := svc.Issue(context.Background(), booking)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	inProgress := *booking
	inProgress.Status = models.BookingInProgress
	getter.booking = &inProgress

	if _, err := svc.Validate(context.Background(), token); err != nil {
		t.Fatalf("in-progress booking must validate: %v", err)
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	booking := approvedBooking()
	svc := NewService("test-secret", newMemStore(), &bookingGetter{booking: booking})

	token, err := svc.Issue(context.Background(), booking)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA"
	_, err = svc.Validate(context.Background(), tampered)
	if !models.IsKind(err, models.KindUnauthorized) {
		t.Fatalf("expected Unauthorized for tampered token, got %v", err)
	}

	other := NewService("other-secret", newMemStore(), &bookingGetter{booking: booking})
	_, err = other.Validate(context.Background(), token)
	if !models.IsKind(err, models.KindUnauthorized) {
		t.Fatalf("expected Unauthorized for wrong secret, got %v", err)
	}
}

func TestReissueInvalidatesPreviousToken(t *testing.T) {
	booking := approvedBooking()
	svc := NewService("test-secret", newMemStore(), &bookingGetter{booking: booking})

	first, err := svc.Issue(context.Background(), booking)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := svc.Issue(context.Background(), booking)
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}

	if _, err := svc.Validate(context.Background(), second); err != nil {
		t.Fatalf("latest token must validate: %v", err)
	}
	_, err = svc.Validate(context.Background(), first)
	if !models.IsKind(err, models.KindUnauthorized) {
		t.Fatalf("expected Unauthorized for superseded token, got %v", err)
	}
}
