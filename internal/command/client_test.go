package command

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookingfeed/internal/domain"
)

func TestAcceptBooking_Success(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"booking": {"_id": "b1", "status": "accepted", "created_at": 100}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, StaticToken("tok-123"), 0)
	result, err := client.AcceptBooking(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v1/bookings/b1/accept" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if result.Booking == nil || result.Booking.ID != "b1" {
		t.Fatalf("expected booking in result, got %+v", result)
	}
	if result.Booking.Status != domain.BookingStatusAccepted {
		t.Errorf("expected status accepted, got %q", result.Booking.Status)
	}
}

func TestAcceptBooking_ServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success": false, "message": "booking not requested"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, 0)
	_, err := client.AcceptBooking(context.Background(), "b1")

	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rejected.StatusCode != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rejected.StatusCode)
	}
	if rejected.Message != "booking not requested" {
		t.Errorf("expected server message to surface, got %q", rejected.Message)
	}
}

func TestAcceptBooking_SuccessFalseWith200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "already taken"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, 0)
	_, err := client.AcceptBooking(context.Background(), "b1")

	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rejected.Message != "already taken" {
		t.Errorf("expected message passthrough, got %q", rejected.Message)
	}
}

func TestAcceptBooking_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, 0)
	_, err := client.AcceptBooking(context.Background(), "b1")

	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rejected.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", rejected.StatusCode)
	}
}

func TestAcceptBooking_NetworkFailure(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil, 0)
	_, err := client.AcceptBooking(context.Background(), "b1")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestAcceptBooking_EmptyID(t *testing.T) {
	client := NewClient("http://example.invalid", nil, 0)
	_, err := client.AcceptBooking(context.Background(), "")
	if err != ErrInvalidBookingID {
		t.Fatalf("expected ErrInvalidBookingID, got %v", err)
	}
}
