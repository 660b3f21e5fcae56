package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bookingfeed/internal/domain"
)

// TokenSource supplies the bearer credential for command calls. The
// credential comes from an external auth collaborator; the client
// only attaches it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}

// Result is the outcome of a successful command.
type Result struct {
	Booking *domain.Booking
	Message string
}

// API is the command surface the feed depends on.
type API interface {
	// AcceptBooking asks the server to transition the booking to
	// accepted. Exactly one outcome is produced per call and the call
	// is never retried.
	AcceptBooking(ctx context.Context, bookingID string) (*Result, error)
}

// Client calls the booking command API over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

var _ API = (*Client)(nil)

// NewClient creates a command client for the given base URL. A zero
// timeout defaults to 10 seconds; tokens may be nil for unauthenticated
// backends.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// acceptResponse is the wire shape of the accept-booking response.
type acceptResponse struct {
	Success bool                `json:"success"`
	Booking *domain.WireBooking `json:"booking,omitempty"`
	Message string              `json:"message,omitempty"`
}

// AcceptBooking implements API.
func (c *Client) AcceptBooking(ctx context.Context, bookingID string) (*Result, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	url := fmt.Sprintf("%s/v1/bookings/%s/accept", c.baseURL, bookingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build accept request: %w", err)
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch bearer token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnreachable, err)
	}

	var parsed acceptResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, fmt.Errorf("decode accept response: %w", err)
		}
		// Non-JSON error body: report the status alone.
		return nil, &RejectedError{StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !parsed.Success {
		return nil, &RejectedError{StatusCode: resp.StatusCode, Message: parsed.Message}
	}

	result := &Result{Message: parsed.Message}
	if parsed.Booking != nil {
		b, err := parsed.Booking.Booking()
		if err == nil {
			result.Booking = &b
		}
	}
	return result, nil
}
