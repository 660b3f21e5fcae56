package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	idempotencyKeyPrefix = "feed:idempotency:"
	idempotencyTTL       = 24 * time.Hour
)

// IdempotencyCache stores captured responses keyed by Idempotency-Key.
type IdempotencyCache interface {
	// Fetch returns the stored payload, or nil on a miss.
	Fetch(ctx context.Context, key string) ([]byte, error)

	// Store saves the payload for the given key.
	Store(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// RedisIdempotencyCache keeps idempotency entries in Redis so replays
// work across simulator instances.
type RedisIdempotencyCache struct {
	client *redis.Client
}

var _ IdempotencyCache = (*RedisIdempotencyCache)(nil)

// NewRedisIdempotencyCache creates a Redis-backed idempotency cache.
func NewRedisIdempotencyCache(client *redis.Client) *RedisIdempotencyCache {
	return &RedisIdempotencyCache{client: client}
}

func (c *RedisIdempotencyCache) Fetch(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (c *RedisIdempotencyCache) Store(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, idempotencyKeyPrefix+key, data, ttl).Err()
}

// MemoryIdempotencyCache is an in-process IdempotencyCache for tests
// and single-node development without Redis. The TTL is ignored.
type MemoryIdempotencyCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

var _ IdempotencyCache = (*MemoryIdempotencyCache)(nil)

// NewMemoryIdempotencyCache creates an empty in-process cache.
func NewMemoryIdempotencyCache() *MemoryIdempotencyCache {
	return &MemoryIdempotencyCache{entries: make(map[string][]byte)}
}

func (c *MemoryIdempotencyCache) Fetch(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[key], nil
}

func (c *MemoryIdempotencyCache) Store(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

// cachedResponse stores the response for idempotent requests.
type cachedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
}

// captureWriter wraps gin.ResponseWriter to capture the response body.
type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the cached response for a repeated
// Idempotency-Key, so retried create-booking posts do not flood the
// feed with duplicate bookings.
func IdempotencyMiddleware(cache IdempotencyCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		data, err := cache.Fetch(ctx, key)
		if err != nil {
			// Cache error: proceed without idempotency.
			c.Next()
			return
		}
		if data != nil {
			var cached cachedResponse
			if json.Unmarshal(data, &cached) == nil {
				c.Data(cached.StatusCode, "application/json", cached.Body)
				c.Abort()
				return
			}
		}

		w := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w
		c.Next()

		if status := c.Writer.Status(); status >= 200 && status < 500 {
			payload, err := json.Marshal(cachedResponse{
				StatusCode: status,
				Body:       w.body.Bytes(),
			})
			if err == nil {
				_ = cache.Store(ctx, key, payload, idempotencyTTL)
			}
		}
	}
}
