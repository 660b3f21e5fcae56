package domain

import (
	"errors"
	"time"
)

// ErrMissingBookingID is returned when a wire record has no "_id".
// Such records are malformed and must be dropped at the boundary.
var ErrMissingBookingID = errors.New("booking record missing _id")

// WireLocation is the JSON shape for a location on the wire.
type WireLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// WireBooking is the JSON shape for a booking as delivered by the
// backend, both on the push channel and in command responses.
// CreatedAt is unix milliseconds.
type WireBooking struct {
	ID          string        `json:"_id"`
	Status      string        `json:"status"`
	CreatedAt   int64         `json:"created_at"`
	Fare        float64       `json:"fare,omitempty"`
	Pickup      *WireLocation `json:"pickup_location,omitempty"`
	Dropoff     *WireLocation `json:"dropoff_location,omitempty"`
	PassengerID string        `json:"passenger_id,omitempty"`
	BookingType string        `json:"booking_type,omitempty"`
}

// Booking converts the wire record to the domain entity. Fields the
// feed does not interpret pass through opaquely; only the ID is
// required.
func (w WireBooking) Booking() (Booking, error) {
	if w.ID == "" {
		return Booking{}, ErrMissingBookingID
	}

	b := Booking{
		ID:          w.ID,
		Status:      BookingStatus(w.Status),
		CreatedAt:   time.UnixMilli(w.CreatedAt),
		Fare:        w.Fare,
		PassengerID: w.PassengerID,
		BookingType: w.BookingType,
	}
	if w.Pickup != nil {
		b.Pickup = &Location{
			Latitude:  w.Pickup.Latitude,
			Longitude: w.Pickup.Longitude,
			Address:   w.Pickup.Address,
		}
	}
	if w.Dropoff != nil {
		b.Dropoff = &Location{
			Latitude:  w.Dropoff.Latitude,
			Longitude: w.Dropoff.Longitude,
			Address:   w.Dropoff.Address,
		}
	}
	return b, nil
}

// WireFromBooking converts a domain booking to its wire shape.
func WireFromBooking(b Booking) WireBooking {
	w := WireBooking{
		ID:          b.ID,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt.UnixMilli(),
		Fare:        b.Fare,
		PassengerID: b.PassengerID,
		BookingType: b.BookingType,
	}
	if b.Pickup != nil {
		w.Pickup = &WireLocation{
			Latitude:  b.Pickup.Latitude,
			Longitude: b.Pickup.Longitude,
			Address:   b.Pickup.Address,
		}
	}
	if b.Dropoff != nil {
		w.Dropoff = &WireLocation{
			Latitude:  b.Dropoff.Latitude,
			Longitude: b.Dropoff.Longitude,
			Address:   b.Dropoff.Address,
		}
	}
	return w
}
