package domain

import (
	"testing"
	"time"
)

func TestWireBooking_MapsFields(t *testing.T) {
	w := WireBooking{
		ID:          "b1",
		Status:      "requested",
		CreatedAt:   1700000000000,
		Fare:        12.5,
		Pickup:      &WireLocation{Latitude: 1.3, Longitude: 103.8, Address: "Orchard Rd"},
		PassengerID: "p1",
		BookingType: "standard",
	}

	b, err := w.Booking()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ID != "b1" {
		t.Errorf("expected _id mapped to ID, got %q", b.ID)
	}
	if b.CreatedAt != time.UnixMilli(1700000000000) {
		t.Errorf("expected created_at mapped from unix millis, got %v", b.CreatedAt)
	}
	if b.Pickup == nil || b.Pickup.Address != "Orchard Rd" {
		t.Errorf("expected pickup location mapped, got %+v", b.Pickup)
	}
	if b.Dropoff != nil {
		t.Errorf("expected absent dropoff to stay nil, got %+v", b.Dropoff)
	}
}

func TestWireBooking_MissingID(t *testing.T) {
	w := WireBooking{Status: "requested", CreatedAt: 100}
	if _, err := w.Booking(); err != ErrMissingBookingID {
		t.Fatalf("expected ErrMissingBookingID, got %v", err)
	}
}

func TestWireFromBooking_RoundTrip(t *testing.T) {
	b := Booking{
		ID:        "b2",
		Status:    BookingStatusAccepted,
		CreatedAt: time.UnixMilli(42),
		Fare:      3,
		Dropoff:   &Location{Latitude: -6.2, Longitude: 106.8, Address: "Jakarta"},
	}

	got, err := WireFromBooking(b).Booking()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != b.ID || got.Status != b.Status || !got.CreatedAt.Equal(b.CreatedAt) {
		t.Errorf("round trip changed the record: %+v", got)
	}
	if got.Dropoff == nil || got.Dropoff.Address != "Jakarta" {
		t.Errorf("round trip lost dropoff: %+v", got.Dropoff)
	}
}
