package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bookingfeed/internal/domain"
)

const (
	// pongWait is how long the connection survives without traffic
	// from the server. The server pings well inside this window.
	pongWait = 60 * time.Second

	// writeWait bounds every outbound write.
	writeWait = 10 * time.Second

	// eventBuffer sizes the per-connection event channel. The feed
	// loop drains continuously; the buffer only absorbs bursts.
	eventBuffer = 32
)

// frame is the envelope for every message on the feed socket.
type frame struct {
	Type     string               `json:"type"`
	Bookings []domain.WireBooking `json:"bookings,omitempty"`
	Action   string               `json:"action,omitempty"`
	Booking  *domain.WireBooking  `json:"booking,omitempty"`
}

const (
	frameSnapshot        = "snapshot"
	frameUpdate          = "update"
	frameRequestSnapshot = "request-snapshot"
)

// WSChannel implements Channel over a WebSocket connection.
type WSChannel struct {
	url    string
	dialer *websocket.Dialer
	logger *log.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	events chan Event
}

var _ Channel = (*WSChannel)(nil)

// NewWSChannel creates a channel that connects to the given ws:// or
// wss:// URL. A nil logger falls back to the default logger.
func NewWSChannel(url string, logger *log.Logger) *WSChannel {
	if logger == nil {
		logger = log.Default()
	}
	return &WSChannel{
		url:    url,
		dialer: websocket.DefaultDialer,
		logger: logger,
	}
}

// Dial establishes the WebSocket connection, releasing any prior one
// first. On success the new event stream starts with EventConnected.
func (c *WSChannel) Dial(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial feed channel: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	events := make(chan Event, eventBuffer)
	events <- Event{Type: EventConnected}

	c.mu.Lock()
	c.conn = conn
	c.events = events
	c.mu.Unlock()

	go c.readLoop(conn, events)
	return nil
}

// Events returns the event stream for the current connection.
func (c *WSChannel) Events() <-chan Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// RequestSnapshot sends the request-snapshot command.
func (c *WSChannel) RequestSnapshot() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(frame{Type: frameRequestSnapshot}); err != nil {
		return fmt.Errorf("request snapshot: %w", err)
	}
	return nil
}

// Close releases the connection. The read loop emits the final
// EventDisconnected and closes the event stream.
func (c *WSChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// readLoop reads and decodes frames until the connection drops, then
// emits EventDisconnected and closes the event stream.
func (c *WSChannel) readLoop(conn *websocket.Conn, events chan Event) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()

			events <- Event{Type: EventDisconnected, Err: err}
			close(events)
			return
		}

		ev, ok := c.decode(data)
		if !ok {
			continue
		}
		events <- ev
	}
}

// decode validates a raw frame and converts it to a typed event.
// Malformed frames are logged and dropped; they never corrupt the
// stream.
func (c *WSChannel) decode(data []byte) (Event, bool) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.logger.Printf("feed channel: dropping unparseable frame: %v", err)
		return Event{}, false
	}

	switch f.Type {
	case frameSnapshot:
		bookings := make([]domain.Booking, 0, len(f.Bookings))
		dropped := 0
		for _, w := range f.Bookings {
			b, err := w.Booking()
			if err != nil {
				dropped++
				continue
			}
			bookings = append(bookings, b)
		}
		if dropped > 0 {
			c.logger.Printf("feed channel: dropped %d malformed record(s) from snapshot", dropped)
		}
		return Event{Type: EventSnapshot, Bookings: bookings}, true

	case frameUpdate:
		action := domain.DeltaAction(f.Action)
		if !action.Valid() {
			c.logger.Printf("feed channel: dropping update with unknown action %q", f.Action)
			return Event{}, false
		}
		if f.Booking == nil {
			c.logger.Printf("feed channel: dropping update without booking payload")
			return Event{}, false
		}
		b, err := f.Booking.Booking()
		if err != nil {
			c.logger.Printf("feed channel: dropping malformed update: %v", err)
			return Event{}, false
		}
		return Event{Type: EventDelta, Action: action, Booking: b}, true

	default:
		c.logger.Printf("feed channel: dropping frame with unknown type %q", f.Type)
		return Event{}, false
	}
}
