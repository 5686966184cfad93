package models

import (
	"testing"
	"time"
)

func TestStatusClassification(t *testing.T) {
	terminal := []BookingStatus{BookingCompleted, BookingCancelled, BookingRejected, BookingNoShow}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	active := []BookingStatus{BookingPending, BookingApproved, BookingInProgress}
	for _, s := range active {
		if s.IsTerminal() {
			t.Errorf("%s must not be terminal", s)
		}
		if !s.OccupiesSlot() {
			t.Errorf("%s must occupy a slot", s)
		}
	}

	if !BookingCompleted.OccupiesSlot() {
		t.Error("Completed keeps occupying its window")
	}
	for _, s := range []BookingStatus{BookingCancelled, BookingRejected, BookingNoShow} {
		if s.OccupiesSlot() {
			t.Errorf("%s must not occupy a slot", s)
		}
	}
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	base := time.Date(2025, time.March, 11, 10, 0, 0, 0, time.UTC)
	booking := &Booking{StartTime: base, EndTime: base.Add(time.Hour)}

	if !booking.Overlaps(base.Add(30*time.Minute), base.Add(90*time.Minute)) {
		t.Error("partial overlap not detected")
	}
	if !booking.Overlaps(base.Add(-time.Hour), base.Add(2*time.Hour)) {
		t.Error("containing window not detected")
	}
	if booking.Overlaps(base.Add(time.Hour), base.Add(2*time.Hour)) {
		t.Error("window starting at end must not overlap")
	}
	if booking.Overlaps(base.Add(-time.Hour), base) {
		t.Error("window ending at start must not overlap")
	}
}

func TestKindOf(t *testing.T) {
	err := E(KindSlotConflict, "window overlaps booking %s", "b-1")
	kind, ok := KindOf(err)
	if !ok || kind != KindSlotConflict {
		t.Fatalf("expected SlotConflict kind, got %v %v", kind, ok)
	}
	if _, ok := KindOf(nil); ok {
		t.Fatal("nil error must have no kind")
	}
}
