package models

import (
	"errors"
	"fmt"
)

// Kind classifies a business-rule rejection. Storage failures are plain
// wrapped errors and carry no Kind, so callers can tell a rule rejection
// from a transient fault.
type Kind string

const (
	KindInvalidWindow        Kind = "invalid_window"
	KindOutOfBookingWindow   Kind = "out_of_booking_window"
	KindSlotConflict         Kind = "slot_conflict"
	KindCapacityExhausted    Kind = "capacity_exhausted"
	KindCutoffExceeded       Kind = "cutoff_exceeded"
	KindUnauthorized         Kind = "unauthorized"
	KindAlreadyTerminal      Kind = "already_in_terminal_state"
	KindNotFound             Kind = "not_found"
	KindInvalidArgument      Kind = "invalid_argument"
)

// Error is a structured business-rule rejection.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// E builds a rule rejection of the given kind.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the rejection kind from an error chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a rejection of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
