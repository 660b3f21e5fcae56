package simulator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// BookingLock serializes status transitions on a single booking so
// that concurrent accepts cannot both observe the requested state.
type BookingLock interface {
	// Acquire attempts to take the lock for the given booking.
	// Returns true if the lock was acquired, false if already held.
	Acquire(ctx context.Context, bookingID string, ttl time.Duration) (bool, error)

	// Release releases the lock for the given booking.
	Release(ctx context.Context, bookingID string) error
}

// RedisLock implements BookingLock with SetNX so the exclusion holds
// across simulator instances sharing one Redis.
type RedisLock struct {
	client *redis.Client
}

var _ BookingLock = (*RedisLock)(nil)

// NewRedisLock creates a Redis-backed booking lock.
func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (l *RedisLock) Acquire(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("feed:lock:booking:%s", bookingID)

	ok, err := l.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context, bookingID string) error {
	key := fmt.Sprintf("feed:lock:booking:%s", bookingID)

	return l.client.Del(ctx, key).Err()
}

// MemoryLock is an in-process BookingLock for tests and single-node
// development without Redis. The TTL is ignored; locks live until
// released.
type MemoryLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

var _ BookingLock = (*MemoryLock)(nil)

// NewMemoryLock creates an empty in-process booking lock.
func NewMemoryLock() *MemoryLock {
	return &MemoryLock{held: make(map[string]struct{})}
}

func (l *MemoryLock) Acquire(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[bookingID]; ok {
		return false, nil
	}
	l.held[bookingID] = struct{}{}
	return true, nil
}

func (l *MemoryLock) Release(ctx context.Context, bookingID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, bookingID)
	return nil
}
