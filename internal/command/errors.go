package command

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBookingID is returned when the booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrUnreachable is wrapped around transport-level failures
	// reaching the command API.
	ErrUnreachable = errors.New("command api unreachable")
)

// RejectedError reports a server-side rejection of a command. It
// carries the human-readable message from the response so callers can
// surface it directly.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("command rejected: %s", e.Message)
	}
	return fmt.Sprintf("command rejected with status %d", e.StatusCode)
}
