package simulator

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookingfeed/internal/domain"
)

// acceptLockTTL bounds how long a crashed accept can hold a booking.
const acceptLockTTL = 10 * time.Second

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	store BookingStore
	lock  BookingLock
	hub   *Hub
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(store BookingStore, lock BookingLock, hub *Hub) *BookingHandler {
	return &BookingHandler{store: store, lock: lock, hub: hub}
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	PassengerID string               `json:"passenger_id"`
	BookingType string               `json:"booking_type,omitempty"`
	Fare        float64              `json:"fare,omitempty"`
	Pickup      *domain.WireLocation `json:"pickup_location,omitempty"`
	Dropoff     *domain.WireLocation `json:"dropoff_location,omitempty"`
}

// AcceptBookingResponse is the HTTP response for the accept command.
type AcceptBookingResponse struct {
	Success bool                `json:"success"`
	Booking *domain.WireBooking `json:"booking,omitempty"`
	Message string              `json:"message,omitempty"`
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateBooking handles POST /v1/bookings. The new booking enters the
// feed as a created delta.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if req.PassengerID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrInvalidPassengerID.Error()})
		return
	}

	booking := domain.Booking{
		ID:          uuid.New().String(),
		Status:      domain.BookingStatusRequested,
		CreatedAt:   time.Now(),
		Fare:        req.Fare,
		PassengerID: req.PassengerID,
		BookingType: req.BookingType,
	}
	if req.Pickup != nil {
		booking.Pickup = &domain.Location{
			Latitude:  req.Pickup.Latitude,
			Longitude: req.Pickup.Longitude,
			Address:   req.Pickup.Address,
		}
	}
	if req.Dropoff != nil {
		booking.Dropoff = &domain.Location{
			Latitude:  req.Dropoff.Latitude,
			Longitude: req.Dropoff.Longitude,
			Address:   req.Dropoff.Address,
		}
	}

	if err := h.store.Create(c.Request.Context(), &booking); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	h.hub.Broadcast(domain.DeltaCreated, booking)
	c.JSON(http.StatusCreated, domain.WireFromBooking(booking))
}

// ListBookings handles GET /v1/bookings.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	bookings, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	wire := make([]domain.WireBooking, len(bookings))
	for i, b := range bookings {
		wire[i] = domain.WireFromBooking(b)
	}
	c.JSON(http.StatusOK, wire)
}

// AcceptBooking handles POST /v1/bookings/:id/accept. Only bookings in
// the requested state can be accepted; the transition is pushed to all
// feed clients as a status-updated delta.
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	// Lock the booking so only one accept can read and transition it.
	locked, err := h.lock.Acquire(ctx, id, acceptLockTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, AcceptBookingResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	if !locked {
		// Another accept is in flight for this booking.
		c.JSON(http.StatusConflict, AcceptBookingResponse{
			Success: false,
			Message: ErrBookingNotRequested.Error(),
		})
		return
	}
	defer func() { _ = h.lock.Release(ctx, id) }()

	booking, err := h.store.Get(ctx, id)
	if err != nil {
		c.JSON(mapErrorToHTTPStatus(err), AcceptBookingResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	if booking.Status != domain.BookingStatusRequested {
		c.JSON(http.StatusConflict, AcceptBookingResponse{
			Success: false,
			Message: ErrBookingNotRequested.Error(),
		})
		return
	}

	booking.Status = domain.BookingStatusAccepted
	if err := h.store.Update(ctx, booking); err != nil {
		c.JSON(http.StatusInternalServerError, AcceptBookingResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	h.hub.Broadcast(domain.DeltaStatusUpdated, *booking)

	wire := domain.WireFromBooking(*booking)
	c.JSON(http.StatusOK, AcceptBookingResponse{Success: true, Booking: &wire})
}

// mapErrorToHTTPStatus maps store errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBookingNotRequested):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidPassengerID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
