package simulator

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"bookingfeed/internal/domain"
)

const (
	// pingInterval is how often the hub pings each client.
	pingInterval = 30 * time.Second

	// writeWait bounds every outbound write.
	writeWait = 10 * time.Second

	// readWait is how long a client may stay silent. Clients answer
	// pings, so a healthy connection never hits it.
	readWait = 90 * time.Second

	// sendBuffer sizes the per-client outbound queue. A client that
	// cannot keep up gets dropped rather than blocking the hub.
	sendBuffer = 16
)

// feedFrame is the envelope for every message on the feed socket.
type feedFrame struct {
	Type     string               `json:"type"`
	Bookings []domain.WireBooking `json:"bookings,omitempty"`
	Action   string               `json:"action,omitempty"`
	Booking  *domain.WireBooking  `json:"booking,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The simulator serves local development only.
		return true
	},
}

// Hub manages the WebSocket feed connections: it answers
// request-snapshot commands from the booking store and broadcasts
// update events to every connected client.
type Hub struct {
	store  BookingStore
	logger *log.Logger

	mu      sync.Mutex
	clients map[*feedClient]struct{}
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub that answers snapshot requests from the given
// store.
func NewHub(store BookingStore, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		store:   store,
		logger:  logger,
		clients: make(map[*feedClient]struct{}),
	}
}

// Serve upgrades the request and services the connection until it
// drops.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Printf("feed hub: upgrade failed: %v", err)
		return
	}

	client := &feedClient{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go h.writePump(client)
	h.readPump(c.Request.Context(), client)
}

// Broadcast pushes an update event to every connected client.
func (h *Hub) Broadcast(action domain.DeltaAction, b domain.Booking) {
	w := domain.WireFromBooking(b)
	data, err := json.Marshal(feedFrame{
		Type:    "update",
		Action:  string(action),
		Booking: &w,
	})
	if err != nil {
		h.logger.Printf("feed hub: marshal update: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Slow client: drop the frame. It can recover with a
			// request-snapshot.
			h.logger.Printf("feed hub: dropping update for slow client")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// readPump reads inbound commands until the connection drops.
func (h *Hub) readPump(ctx context.Context, client *feedClient) {
	defer h.remove(client)

	conn := client.conn
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var f feedFrame
		if err := json.Unmarshal(data, &f); err != nil {
			h.logger.Printf("feed hub: dropping unparseable client frame: %v", err)
			continue
		}
		if f.Type != "request-snapshot" {
			h.logger.Printf("feed hub: dropping client frame with type %q", f.Type)
			continue
		}
		h.sendSnapshot(ctx, client)
	}
}

// sendSnapshot queues the full booking list on the client.
func (h *Hub) sendSnapshot(ctx context.Context, client *feedClient) {
	bookings, err := h.store.List(ctx)
	if err != nil {
		h.logger.Printf("feed hub: list bookings: %v", err)
		return
	}

	wire := make([]domain.WireBooking, len(bookings))
	for i, b := range bookings {
		wire[i] = domain.WireFromBooking(b)
	}
	data, err := json.Marshal(feedFrame{Type: "snapshot", Bookings: wire})
	if err != nil {
		h.logger.Printf("feed hub: marshal snapshot: %v", err)
		return
	}

	select {
	case client.send <- data:
	default:
		h.logger.Printf("feed hub: dropping snapshot for slow client")
	}
}

// writePump drains the client's queue and keeps the connection alive
// with pings.
func (h *Hub) writePump(client *feedClient) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	conn := client.conn
	for {
		select {
		case data, ok := <-client.send:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

// remove unregisters the client and releases its connection.
func (h *Hub) remove(client *feedClient) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	h.mu.Unlock()

	if ok {
		close(client.send)
		_ = client.conn.Close()
	}
}
