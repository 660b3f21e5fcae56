package transport

import (
	"context"
	"errors"

	"bookingfeed/internal/domain"
)

var (
	// ErrNotConnected is returned when a command is sent on a channel
	// that has no live connection.
	ErrNotConnected = errors.New("channel not connected")
)

// EventType discriminates the events a channel can emit.
type EventType int

const (
	// EventConnected is emitted once per successful dial, before any
	// feed data.
	EventConnected EventType = iota

	// EventDisconnected is emitted when the connection drops or is
	// closed. It is the last event before the events channel closes.
	EventDisconnected

	// EventSnapshot carries a full replacement list of bookings.
	EventSnapshot

	// EventDelta carries a single created/status-updated booking.
	EventDelta
)

func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventSnapshot:
		return "snapshot"
	case EventDelta:
		return "delta"
	default:
		return "unknown"
	}
}

// Event is a validated, typed message from the transport channel.
// Payload fields are set according to Type: Bookings for snapshots,
// Action and Booking for deltas, Err for disconnects.
type Event struct {
	Type     EventType
	Err      error
	Bookings []domain.Booking
	Action   domain.DeltaAction
	Booking  domain.Booking
}

// Channel is a persistent bidirectional connection to the booking
// feed. Implementations validate and decode inbound frames before
// they reach the core: malformed frames are logged and skipped, never
// surfaced as events.
//
// The events channel returned by Events is created fresh on each
// successful Dial and is closed after the final EventDisconnected.
type Channel interface {
	// Dial establishes the connection. Any prior connection is
	// released first.
	Dial(ctx context.Context) error

	// Events returns the event stream for the current connection.
	Events() <-chan Event

	// RequestSnapshot asks the server for a full booking list.
	// Returns ErrNotConnected when there is no live connection.
	RequestSnapshot() error

	// Close releases the connection. Safe to call when not connected.
	Close() error
}
