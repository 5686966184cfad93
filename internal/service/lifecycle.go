package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"evbooking/internal/models"
)

// Defaults for the temporal business rules.
const (
	DefaultBookingWindow      = 7 * 24 * time.Hour
	DefaultModificationCutoff = 12 * time.Hour
)

// LifecycleConfig carries the temporal rule settings.
type LifecycleConfig struct {
	BookingWindow      time.Duration
	ModificationCutoff time.Duration
}

// Lifecycle owns the booking state machine and capacity accounting.
// All capacity-affecting operations on one station are serialized through a
// per-station lock; the station store's conditional slot adjust is the
// second line of defense against over-allocation.
type Lifecycle struct {
	stations StationStore
	bookings BookingStore
	passes   PassIssuer
	notifier Notifier
	checker  *AvailabilityChecker
	locks    *stationLocks
	logger   *zap.Logger

	window time.Duration
	cutoff time.Duration
	now    func() time.Time
}

// NewLifecycle builds the lifecycle manager.
func NewLifecycle(
	stations StationStore,
	bookings BookingStore,
	passes PassIssuer,
	notifier Notifier,
	logger *zap.Logger,
	cfg LifecycleConfig,
) *Lifecycle {
	if cfg.BookingWindow <= 0 {
		cfg.BookingWindow = DefaultBookingWindow
	}
	if cfg.ModificationCutoff <= 0 {
		cfg.ModificationCutoff = DefaultModificationCutoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{
		stations: stations,
		bookings: bookings,
		passes:   passes,
		notifier: notifier,
		checker:  NewAvailabilityChecker(stations, bookings),
		locks:    newStationLocks(),
		logger:   logger,
		window:   cfg.BookingWindow,
		cutoff:   cfg.ModificationCutoff,
		now:      time.Now,
	}
}

// Checker exposes the availability checker sharing this manager's stores.
func (l *Lifecycle) Checker() *AvailabilityChecker {
	return l.checker
}

// CreateInput is a booking creation request.
type CreateInput struct {
	StationID     string
	StartTime     time.Time
	EndTime       time.Time
	VehicleNumber string
	VehicleType   string
	EstimatedMins int
}

// Create places a new Pending booking, decrementing the station's available
// slots. The guard checks and the decrement run under the station lock; if
// the insert fails after the decrement the slot is restored.
func (l *Lifecycle) Create(ctx context.Context, actor models.Actor, in CreateInput) (*models.Booking, error) {
	start, end := in.StartTime.UTC(), in.EndTime.UTC()

	unlock := l.locks.lock(in.StationID)
	defer unlock()

	station, err := l.stations.GetStation(ctx, in.StationID)
	if err != nil {
		return nil, err
	}
	if err := validateWindow(station, start, end); err != nil {
		return nil, err
	}
	now := l.now().UTC()
	if !start.After(now) {
		return nil, models.E(models.KindOutOfBookingWindow, "start time must be in the future")
	}
	if start.Sub(now) > l.window {
		return nil, models.E(models.KindOutOfBookingWindow, "start time is more than %s ahead", l.window)
	}
	if station.Status != models.StationActive {
		return nil, models.E(models.KindInvalidArgument, "station %s is %s", station.ID, station.Status)
	}

	conflicts, err := l.bookings.ListOverlapping(ctx, in.StationID, start, end)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, models.E(models.KindSlotConflict, "window overlaps %d existing booking(s)", len(conflicts))
	}

	if err := l.stations.AdjustAvailableSlots(ctx, in.StationID, -1); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:            uuid.NewString(),
		UserID:        actor.UserID,
		StationID:     in.StationID,
		StartTime:     start,
		EndTime:       end,
		Status:        models.BookingPending,
		VehicleNumber: in.VehicleNumber,
		VehicleType:   in.VehicleType,
		EstimatedMins: in.EstimatedMins,
	}
	if err := l.bookings.CreateBooking(ctx, booking); err != nil {
		if rbErr := l.stations.AdjustAvailableSlots(ctx, in.StationID, 1); rbErr != nil {
			l.logger.Error("failed to restore slot after create failure",
				zap.String("station_id", in.StationID), zap.Error(rbErr))
		}
		return nil, err
	}

	l.notify(booking.ID, "", models.BookingPending)
	return booking, nil
}

// Update moves a Pending or Approved booking to a new window. The owner may
// update only before the modification cutoff; privileged actors anytime.
// Capacity is unchanged: the booking already holds its slot. An Approved
// booking gets its pass reissued so the token tracks the new window.
func (l *Lifecycle) Update(ctx context.Context, actor models.Actor, bookingID string, newStart, newEnd time.Time) (*models.Booking, error) {
	booking, unlock, err := l.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if booking.Status.IsTerminal() {
		return nil, models.E(models.KindAlreadyTerminal, "booking %s is %s", booking.ID, booking.Status)
	}
	if booking.Status != models.BookingPending && booking.Status != models.BookingApproved {
		return nil, models.E(models.KindInvalidArgument, "booking %s cannot be modified while %s", booking.ID, booking.Status)
	}
	if err := l.authorizeOwnerAction(actor, booking); err != nil {
		return nil, err
	}

	start, end := newStart.UTC(), newEnd.UTC()
	station, err := l.stations.GetStation(ctx, booking.StationID)
	if err != nil {
		return nil, err
	}
	if err := validateWindow(station, start, end); err != nil {
		return nil, err
	}
	now := l.now().UTC()
	if !start.After(now) {
		return nil, models.E(models.KindOutOfBookingWindow, "start time must be in the future")
	}
	if start.Sub(now) > l.window {
		return nil, models.E(models.KindOutOfBookingWindow, "start time is more than %s ahead", l.window)
	}

	overlapping, err := l.bookings.ListOverlapping(ctx, booking.StationID, start, end)
	if err != nil {
		return nil, err
	}
	for _, other := range overlapping {
		if other.ID != booking.ID {
			return nil, models.E(models.KindSlotConflict, "window overlaps booking %s", other.ID)
		}
	}

	booking.StartTime = start
	booking.EndTime = end
	reissued := false
	if booking.Status == models.BookingApproved && l.passes != nil {
		token, err := l.passes.Issue(ctx, booking)
		if err != nil {
			return nil, err
		}
		booking.QRToken = token
		reissued = true
	}
	if err := l.bookings.UpdateBooking(ctx, booking); err != nil {
		if reissued {
			l.revokePass(ctx, booking)
		}
		return nil, err
	}
	return booking, nil
}

// Approve transitions Pending → Approved and issues the QR pass.
func (l *Lifecycle) Approve(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	if !actor.Role.Privileged() {
		return nil, models.E(models.KindUnauthorized, "role %s may not approve bookings", actor.Role)
	}

	booking, unlock, err := l.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if booking.Status.IsTerminal() {
		return nil, models.E(models.KindAlreadyTerminal, "booking %s is %s", booking.ID, booking.Status)
	}
	if booking.Status != models.BookingPending {
		return nil, models.E(models.KindInvalidArgument, "only pending bookings can be approved, booking %s is %s", booking.ID, booking.Status)
	}

	var token string
	if l.passes != nil {
		token, err = l.passes.Issue(ctx, booking)
		if err != nil {
			return nil, err
		}
	}

	now := l.now().UTC()
	booking.Status = models.BookingApproved
	booking.QRToken = token
	booking.ApprovedAt = &now
	booking.ApprovedBy = actor.UserID
	if err := l.bookings.UpdateBooking(ctx, booking); err != nil {
		if l.passes != nil {
			if rvErr := l.passes.Revoke(ctx, booking.ID); rvErr != nil {
				l.logger.Warn("failed to revoke pass after approve failure",
					zap.String("booking_id", booking.ID), zap.Error(rvErr))
			}
		}
		return nil, err
	}

	l.notify(booking.ID, models.BookingPending, models.BookingApproved)
	return booking, nil
}

// Reject transitions Pending → Rejected and restores the slot.
func (l *Lifecycle) Reject(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error) {
	if !actor.Role.Privileged() {
		return nil, models.E(models.KindUnauthorized, "role %s may not reject bookings", actor.Role)
	}
	if reason == "" {
		return nil, models.E(models.KindInvalidArgument, "rejection reason is required")
	}

	booking, unlock, err := l.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if booking.Status.IsTerminal() {
		return nil, models.E(models.KindAlreadyTerminal, "booking %s is %s", booking.ID, booking.Status)
	}
	if booking.Status != models.BookingPending {
		return nil, models.E(models.KindInvalidArgument, "only pending bookings can be rejected, booking %s is %s", booking.ID, booking.Status)
	}

	from := booking.Status
	now := l.now().UTC()
	booking.Status = models.BookingRejected
	booking.RejectedAt = &now
	booking.RejectedBy = actor.UserID
	booking.StatusReason = reason

	if err := l.releaseAndUpdate(ctx, booking); err != nil {
		return nil, err
	}

	l.notify(booking.ID, from, models.BookingRejected)
	return booking, nil
}

// Cancel transitions Pending/Approved → Cancelled and restores the slot.
// Owners may cancel only while more than the cutoff remains before start;
// privileged actors anytime. Idempotent: a second cancel reports
// AlreadyInTerminalState and never double-increments.
func (l *Lifecycle) Cancel(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error) {
	if reason == "" {
		return nil, models.E(models.KindInvalidArgument, "cancellation reason is required")
	}

	booking, unlock, err := l.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if booking.Status.IsTerminal() {
		return nil, models.E(models.KindAlreadyTerminal, "booking %s is %s", booking.ID, booking.Status)
	}
	if booking.Status != models.BookingPending && booking.Status != models.BookingApproved {
		return nil, models.E(models.KindInvalidArgument, "booking %s cannot be cancelled while %s", booking.ID, booking.Status)
	}
	if err := l.authorizeOwnerAction(actor, booking); err != nil {
		return nil, err
	}

	from := booking.Status
	now := l.now().UTC()
	booking.Status = models.BookingCancelled
	booking.CancelledAt = &now
	booking.CancelledBy = actor.UserID
	booking.StatusReason = reason

	if err := l.releaseAndUpdate(ctx, booking); err != nil {
		return nil, err
	}
	l.revokePass(ctx, booking)

	l.notify(booking.ID, from, models.BookingCancelled)
	return booking, nil
}

// Start transitions Approved → InProgress when charging begins.
func (l *Lifecycle) Start(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	if !actor.Role.Privileged() {
		return nil, models.E(models.KindUnauthorized, "role %s may not start bookings", actor.Role)
	}

	booking, unlock, err := l.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if booking.Status.IsTerminal() {
		return nil, models.E(models.KindAlreadyTerminal, "booking %s is %s", booking.ID, booking.Status)
	}
	if booking.Status != models.BookingApproved {
		return nil, models.E(models.KindInvalidArgument, "only approved bookings can start, booking %s is %s", booking.ID, booking.Status)
	}

	now := l.now().UTC()
	booking.Status = models.BookingInProgress
	booking.StartedAt = &now
	if err := l.bookings.UpdateBooking(ctx, booking); err != nil {
		return nil, err
	}

	l.notify(booking.ID, models.BookingApproved, models.BookingInProgress)
	return booking, nil
}

// Complete transitions Approved/InProgress → Completed, stamping the energy
// delivered and the cost at the station's tariff. The slot stays consumed:
// capacity returns only on cancellation, rejection or no-show.
func (l *Lifecycle) Complete(ctx context.Context, actor models.Actor, bookingID string, energyKWh float64) (*models.Booking, error) {
	if !actor.Role.Privileged() {
		return nil, models.E(models.KindUnauthorized, "role %s may not complete bookings", actor.Role)
	}
	if energyKWh < 0 {
		return nil, models.E(models.KindInvalidArgument, "energy must not be negative")
	}

	booking, unlock, err := l.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if booking.Status.IsTerminal() {
		return nil, models.E(models.KindAlreadyTerminal, "booking %s is %s", booking.ID, booking.Status)
	}
	if booking.Status != models.BookingApproved && booking.Status != models.BookingInProgress {
		return nil, models.E(models.KindInvalidArgument, "booking %s cannot complete while %s", booking.ID, booking.Status)
	}

	station, err := l.stations.GetStation(ctx, booking.StationID)
	if err != nil {
		return nil, err
	}

	from := booking.Status
	now := l.now().UTC()
	booking.Status = models.BookingCompleted
	booking.CompletedAt = &now
	booking.CompletedBy = actor.UserID
	booking.EnergyKWh = energyKWh
	booking.TotalCost = energyKWh * station.PricePerKWh
	if err := l.bookings.UpdateBooking(ctx, booking); err != nil {
		return nil, err
	}
	l.revokePass(ctx, booking)

	l.notify(booking.ID, from, models.BookingCompleted)
	return booking, nil
}

// MarkNoShow transitions Pending/Approved → NoShow once the start time has
// passed without charging starting, restoring the slot. This is an explicit
// external trigger; the core runs no scheduler of its own.
func (l *Lifecycle) MarkNoShow(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	if !actor.Role.Privileged() {
		return nil, models.E(models.KindUnauthorized, "role %s may not mark no-shows", actor.Role)
	}

	booking, unlock, err := l.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if booking.Status.IsTerminal() {
		return nil, models.E(models.KindAlreadyTerminal, "booking %s is %s", booking.ID, booking.Status)
	}
	if booking.Status != models.BookingPending && booking.Status != models.BookingApproved {
		return nil, models.E(models.KindInvalidArgument, "booking %s cannot be a no-show while %s", booking.ID, booking.Status)
	}
	if l.now().UTC().Before(booking.StartTime) {
		return nil, models.E(models.KindInvalidArgument, "booking %s has not reached its start time", booking.ID)
	}

	from := booking.Status
	booking.Status = models.BookingNoShow
	booking.StatusReason = "no-show"

	if err := l.releaseAndUpdate(ctx, booking); err != nil {
		return nil, err
	}
	l.revokePass(ctx, booking)

	l.notify(booking.ID, from, models.BookingNoShow)
	return booking, nil
}

// SweepNoShows marks every Pending/Approved booking whose start time passed
// more than grace ago as NoShow. Returns how many transitions succeeded.
func (l *Lifecycle) SweepNoShows(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := l.now().UTC().Add(-grace)
	overdue, err := l.bookings.ListOverdue(ctx, cutoff, 100)
	if err != nil {
		return 0, err
	}

	actor := models.Actor{Role: models.RoleSystem}
	swept := 0
	for _, b := range overdue {
		if _, err := l.MarkNoShow(ctx, actor, b.ID); err != nil {
			if _, rule := models.KindOf(err); rule {
				continue // raced with another transition
			}
			l.logger.Warn("no-show sweep failed", zap.String("booking_id", b.ID), zap.Error(err))
			continue
		}
		swept++
	}
	return swept, nil
}

// GetBooking returns a booking by id.
func (l *Lifecycle) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return l.bookings.GetBooking(ctx, id)
}

// ListByUser returns a user's booking history.
func (l *Lifecycle) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Booking, error) {
	return l.bookings.ListByUser(ctx, userID, limit)
}

// lockBooking loads the booking, acquires its station lock and reloads the
// booking under the lock so status checks cannot race a concurrent
// transition.
func (l *Lifecycle) lockBooking(ctx context.Context, id string) (*models.Booking, func(), error) {
	booking, err := l.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	unlock := l.locks.lock(booking.StationID)
	booking, err = l.bookings.GetBooking(ctx, id)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return booking, unlock, nil
}

// authorizeOwnerAction checks who may alter the booking now. Owners are
// blocked once the modification cutoff is reached; privileged actors never.
func (l *Lifecycle) authorizeOwnerAction(actor models.Actor, booking *models.Booking) error {
	if actor.Role.Privileged() {
		return nil
	}
	if actor.UserID != booking.UserID {
		return models.E(models.KindUnauthorized, "booking %s belongs to another user", booking.ID)
	}
	if booking.StartTime.Sub(l.now().UTC()) <= l.cutoff {
		return models.E(models.KindCutoffExceeded, "less than %s remain before start", l.cutoff)
	}
	return nil
}

// releaseAndUpdate restores the slot and persists the terminal transition.
// The increment runs first under the station lock; if the booking update
// fails the increment is compensated so the restoration stays exactly-once.
func (l *Lifecycle) releaseAndUpdate(ctx context.Context, booking *models.Booking) error {
	if err := l.stations.AdjustAvailableSlots(ctx, booking.StationID, 1); err != nil {
		return err
	}
	if err := l.bookings.UpdateBooking(ctx, booking); err != nil {
		if rbErr := l.stations.AdjustAvailableSlots(ctx, booking.StationID, -1); rbErr != nil {
			l.logger.Error("failed to compensate slot after update failure",
				zap.String("station_id", booking.StationID), zap.Error(rbErr))
		}
		return err
	}
	return nil
}

// revokePass invalidates any issued QR pass. Best effort: the booking is
// already terminal and the validator rejects by status regardless.
func (l *Lifecycle) revokePass(ctx context.Context, booking *models.Booking) {
	if l.passes == nil || booking.QRToken == "" {
		return
	}
	if err := l.passes.Revoke(ctx, booking.ID); err != nil {
		l.logger.Warn("failed to revoke pass", zap.String("booking_id", booking.ID), zap.Error(err))
	}
}

func (l *Lifecycle) notify(bookingID string, from, to models.BookingStatus) {
	if l.notifier == nil {
		return
	}
	l.notifier.NotifyTransition(bookingID, from, to)
}
