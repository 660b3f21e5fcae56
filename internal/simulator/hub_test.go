package simulator

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"bookingfeed/internal/domain"
)

func dialFeed(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(httpURL, "http") + "/ws/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial feed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) feedFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var f feedFrame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("unmarshal frame %s: %v", data, err)
	}
	return f
}

func TestHub_SnapshotOnRequest(t *testing.T) {
	srv, store := newTestServer(t)
	seedBooking(t, store, "b1", domain.BookingStatusRequested)
	seedBooking(t, store, "b2", domain.BookingStatusAccepted)

	conn := dialFeed(t, srv.URL)
	if err := conn.WriteJSON(feedFrame{Type: "request-snapshot"}); err != nil {
		t.Fatalf("write request-snapshot: %v", err)
	}

	f := readFrame(t, conn)
	if f.Type != "snapshot" {
		t.Fatalf("expected snapshot frame, got %q", f.Type)
	}
	if len(f.Bookings) != 2 {
		t.Errorf("expected 2 bookings in snapshot, got %d", len(f.Bookings))
	}
}

func TestHub_BroadcastsCreateAndAccept(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialFeed(t, srv.URL)

	// Create a booking over HTTP; the hub pushes a created delta.
	body, _ := json.Marshal(CreateBookingRequest{PassengerID: "p1"})
	resp, err := http.Post(srv.URL+"/v1/bookings", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	var created domain.WireBooking
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	resp.Body.Close()

	f := readFrame(t, conn)
	if f.Type != "update" || f.Action != string(domain.DeltaCreated) {
		t.Fatalf("expected created update, got type=%q action=%q", f.Type, f.Action)
	}
	if f.Booking == nil || f.Booking.ID != created.ID {
		t.Fatalf("expected broadcast for %q, got %+v", created.ID, f.Booking)
	}

	// Accept it; the hub pushes a status-updated delta.
	token, _ := DevToken(testSecret, "tester", time.Minute)
	acceptResp := acceptRequest(t, srv, created.ID, token)
	acceptResp.Body.Close()
	if acceptResp.StatusCode != http.StatusOK {
		t.Fatalf("accept failed with %d", acceptResp.StatusCode)
	}

	f = readFrame(t, conn)
	if f.Type != "update" || f.Action != string(domain.DeltaStatusUpdated) {
		t.Fatalf("expected status-updated update, got type=%q action=%q", f.Type, f.Action)
	}
	if f.Booking == nil || f.Booking.Status != string(domain.BookingStatusAccepted) {
		t.Fatalf("expected accepted booking in broadcast, got %+v", f.Booking)
	}
}

func TestHub_IgnoresUnknownFrames(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialFeed(t, srv.URL)

	// Unknown frames are dropped without killing the connection.
	if err := conn.WriteJSON(feedFrame{Type: "presence"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if err := conn.WriteJSON(feedFrame{Type: "request-snapshot"}); err != nil {
		t.Fatalf("write request-snapshot: %v", err)
	}
	f := readFrame(t, conn)
	if f.Type != "snapshot" {
		t.Fatalf("expected snapshot after unknown frame, got %q", f.Type)
	}
}
