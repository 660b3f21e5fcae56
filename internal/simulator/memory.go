package simulator

import (
	"context"
	"sync"

	"bookingfeed/internal/domain"
)

// MemoryStore is an in-memory BookingStore for tests and single-node
// development without Redis.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
}

var _ BookingStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: make(map[string]domain.Booking)}
}

func (s *MemoryStore) Create(ctx context.Context, b *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = *b
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, b *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[b.ID]; !ok {
		return ErrNotFound
	}
	s.bookings[b.ID] = *b
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	out := b
	return &out, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	return out, nil
}
