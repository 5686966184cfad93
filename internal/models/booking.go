package models

import "time"

// BookingStatus is a booking lifecycle state.
type BookingStatus string

const (
	BookingPending    BookingStatus = "Pending"
	BookingApproved   BookingStatus = "Approved"
	BookingInProgress BookingStatus = "InProgress"
	BookingCompleted  BookingStatus = "Completed"
	BookingCancelled  BookingStatus = "Cancelled"
	BookingRejected   BookingStatus = "Rejected"
	BookingNoShow     BookingStatus = "NoShow"
)

// IsTerminal reports whether no further transition is possible.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingCompleted, BookingCancelled, BookingRejected, BookingNoShow:
		return true
	}
	return false
}

// OccupiesSlot reports whether the booking counts against the station's
// capacity for conflict checking. Completed keeps occupying: the slot was
// physically consumed for that period.
func (s BookingStatus) OccupiesSlot() bool {
	switch s {
	case BookingPending, BookingApproved, BookingInProgress, BookingCompleted:
		return true
	}
	return false
}

// Role classifies the actor performing a lifecycle action.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleOperator   Role = "operator"
	RoleBackoffice Role = "backoffice"
	RoleSystem     Role = "system"
)

// Privileged reports whether the role may bypass the modification cutoff.
func (r Role) Privileged() bool {
	return r == RoleOperator || r == RoleBackoffice || r == RoleSystem
}

// Actor identifies who requests a lifecycle action. Always passed explicitly,
// never taken from ambient state.
type Actor struct {
	UserID int64
	Role   Role
}

// Booking is a reservation of one charging slot for a time window.
// Bookings are never deleted; cancellation is a status transition.
type Booking struct {
	ID            string        `db:"id" json:"id"`
	UserID        int64         `db:"user_id" json:"user_id"`
	StationID     string        `db:"station_id" json:"station_id"`
	StartTime     time.Time     `db:"start_time" json:"start_time"`
	EndTime       time.Time     `db:"end_time" json:"end_time"`
	Status        BookingStatus `db:"status" json:"status"`
	VehicleNumber string        `db:"vehicle_number" json:"vehicle_number"`
	VehicleType   string        `db:"vehicle_type" json:"vehicle_type"`
	EstimatedMins int           `db:"estimated_minutes" json:"estimated_minutes"`
	QRToken       string        `db:"qr_token" json:"qr_token,omitempty"`

	ApprovedAt   *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy   int64      `db:"approved_by" json:"approved_by,omitempty"`
	StartedAt    *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CompletedBy  int64      `db:"completed_by" json:"completed_by,omitempty"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelledBy  int64      `db:"cancelled_by" json:"cancelled_by,omitempty"`
	RejectedAt   *time.Time `db:"rejected_at" json:"rejected_at,omitempty"`
	RejectedBy   int64      `db:"rejected_by" json:"rejected_by,omitempty"`
	StatusReason string     `db:"status_reason" json:"status_reason,omitempty"`

	TotalCost float64 `db:"total_cost" json:"total_cost,omitempty"`
	EnergyKWh float64 `db:"energy_kwh" json:"energy_kwh,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Overlaps reports half-open interval overlap with [start, end).
// Boundary-touching windows do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}

// Availability is the result of a conflict check for a station window.
type Availability struct {
	Available bool      `json:"available"`
	Conflicts []Booking `json:"conflicts,omitempty"`
}
