package simulator

import "errors"

var (
	// ErrNotFound is returned when a requested booking does not exist.
	ErrNotFound = errors.New("booking not found")

	// ErrBookingNotRequested is returned when accepting a booking that
	// is not in the requested state.
	ErrBookingNotRequested = errors.New("booking not in requested state")

	// ErrInvalidPassengerID is returned when the passenger ID is empty.
	ErrInvalidPassengerID = errors.New("invalid passenger id")
)
