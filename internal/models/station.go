package models

import "time"

// ConnectorType enumerates supported charging connectors.
type ConnectorType string

const (
	ConnectorType1   ConnectorType = "Type1"
	ConnectorType2   ConnectorType = "Type2"
	ConnectorCHAdeMO ConnectorType = "CHAdeMO"
	ConnectorCCS     ConnectorType = "CCS"
	ConnectorTesla   ConnectorType = "Tesla"
)

// Valid reports whether the connector type is a known value.
func (c ConnectorType) Valid() bool {
	switch c {
	case ConnectorType1, ConnectorType2, ConnectorCHAdeMO, ConnectorCCS, ConnectorTesla:
		return true
	}
	return false
}

// StationStatus is the operational state of a station.
type StationStatus string

const (
	StationActive       StationStatus = "Active"
	StationInactive     StationStatus = "Inactive"
	StationMaintenance  StationStatus = "Maintenance"
	StationOutOfService StationStatus = "OutOfService"
)

// Valid reports whether the station status is a known value.
func (s StationStatus) Valid() bool {
	switch s {
	case StationActive, StationInactive, StationMaintenance, StationOutOfService:
		return true
	}
	return false
}

// Station is a physical charging location with finite concurrent slots.
// AvailableSlots is mutated only by the booking lifecycle, never by callers.
type Station struct {
	ID             string        `db:"id" json:"id"`
	Name           string        `db:"name" json:"name"`
	Location       string        `db:"location" json:"location"`
	ConnectorType  ConnectorType `db:"connector_type" json:"connector_type"`
	PowerKW        float64       `db:"power_kw" json:"power_kw"`
	PricePerKWh    float64       `db:"price_per_kwh" json:"price_per_kwh"`
	TotalSlots     int           `db:"total_slots" json:"total_slots"`
	AvailableSlots int           `db:"available_slots" json:"available_slots"`
	Status         StationStatus `db:"status" json:"status"`
	MaxBookingMins int           `db:"max_booking_minutes" json:"max_booking_minutes"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// MaxBookingDuration returns the station's booking duration cap.
func (s *Station) MaxBookingDuration() time.Duration {
	return time.Duration(s.MaxBookingMins) * time.Minute
}
