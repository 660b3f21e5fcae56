package domain

import "time"

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "requested"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the known booking statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusRequested, BookingStatusAccepted,
		BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// Location is a geographic point with a display address.
type Location struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// Booking represents a single ride request tracked by the feed.
// ID is stable across updates and is the merge key: the feed holds
// exactly one booking per ID at any time.
type Booking struct {
	ID          string
	Status      BookingStatus
	CreatedAt   time.Time
	Fare        float64 // absent on the wire is treated as 0
	Pickup      *Location
	Dropoff     *Location
	PassengerID string
	BookingType string
}

// DeltaAction identifies the kind of incremental feed event.
type DeltaAction string

const (
	// DeltaCreated announces a booking newly created on the server.
	DeltaCreated DeltaAction = "created"

	// DeltaStatusUpdated announces a status transition for an
	// existing booking. The payload carries the full record, not a
	// patch.
	DeltaStatusUpdated DeltaAction = "status-updated"
)

// Valid reports whether a is a known delta action.
func (a DeltaAction) Valid() bool {
	return a == DeltaCreated || a == DeltaStatusUpdated
}
