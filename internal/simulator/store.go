package simulator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"bookingfeed/internal/config"
	"bookingfeed/internal/domain"
)

// BookingStore defines the persistence operations for the live
// booking set.
type BookingStore interface {
	// Create persists a new booking.
	Create(ctx context.Context, b *domain.Booking) error

	// Update replaces an existing booking.
	Update(ctx context.Context, b *domain.Booking) error

	// Get retrieves a booking by ID.
	Get(ctx context.Context, id string) (*domain.Booking, error)

	// List retrieves all bookings, in no particular order.
	List(ctx context.Context) ([]domain.Booking, error)
}

// Key layout
const (
	bookingKeyPrefix = "feed:booking:"
	bookingIndexKey  = "feed:bookings"
)

// NewRedisClient connects to Redis and verifies the connection. When
// a New Relic application is supplied, every command against the
// booking set is reported as a datastore segment.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, nrApp *newrelic.Application) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if nrApp != nil {
		client.AddHook(redisSegmentHook{})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// redisSegmentHook reports Redis commands on the booking set as New
// Relic datastore segments.
type redisSegmentHook struct{}

func (redisSegmentHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (redisSegmentHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		seg := bookingSegment(ctx, cmd.Name())
		defer seg.End()
		return next(ctx, cmd)
	}
}

func (redisSegmentHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		seg := bookingSegment(ctx, "pipeline")
		defer seg.End()
		return next(ctx, cmds)
	}
}

// bookingSegment starts a datastore segment for the current
// transaction, if any. End on the zero segment is a no-op.
func bookingSegment(ctx context.Context, operation string) *newrelic.DatastoreSegment {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return &newrelic.DatastoreSegment{}
	}
	return &newrelic.DatastoreSegment{
		StartTime:  txn.StartSegmentNow(),
		Product:    newrelic.DatastoreRedis,
		Collection: "bookings",
		Operation:  operation,
	}
}

// RedisStore keeps the booking set in Redis: one JSON value per
// booking plus a set index of IDs for listing.
type RedisStore struct {
	client *redis.Client
}

var _ BookingStore = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed booking store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, b *domain.Booking) error {
	return s.put(ctx, b)
}

func (s *RedisStore) Update(ctx context.Context, b *domain.Booking) error {
	return s.put(ctx, b)
}

func (s *RedisStore) put(ctx context.Context, b *domain.Booking) error {
	data, err := json.Marshal(domain.WireFromBooking(*b))
	if err != nil {
		return fmt.Errorf("marshal booking: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, bookingKeyPrefix+b.ID, data, 0)
	pipe.SAdd(ctx, bookingIndexKey, b.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store booking: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Booking, error) {
	data, err := s.client.Get(ctx, bookingKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var w domain.WireBooking
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("unmarshal booking: %w", err)
	}
	b, err := w.Booking()
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List fetches all indexed bookings with a pipeline. Entries whose
// value has expired or gone corrupt are skipped.
func (s *RedisStore) List(ctx context.Context) ([]domain.Booking, error) {
	ids, err := s.client.SMembers(ctx, bookingIndexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(ids))
	for _, id := range ids {
		cmds[id] = pipe.Get(ctx, bookingKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	bookings := make([]domain.Booking, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			continue
		}
		var w domain.WireBooking
		if err := json.Unmarshal(data, &w); err != nil {
			continue
		}
		b, err := w.Booking()
		if err != nil {
			continue
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}
