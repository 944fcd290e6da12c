package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProgressSnapshot is the lightweight status view kept in Redis for UI
// polling, so per-second status checks never touch Postgres.
type ProgressSnapshot struct {
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProgressCache is a best-effort Redis cache. All operations are no-ops on
// a nil cache and failures are logged, never returned: the durable store
// remains the source of truth.
type ProgressCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProgressCache connects to Redis at addr. Returns nil (cache disabled)
// when addr is empty or the server is unreachable.
func NewProgressCache(ctx context.Context, addr, password string, db int) *ProgressCache {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		fmt.Printf("[CACHE] Warning: Redis unavailable at %s (%v), progress cache disabled\n", addr, err)
		client.Close()
		return nil
	}
	return &ProgressCache{client: client, ttl: 24 * time.Hour}
}

func (c *ProgressCache) key(reportID string) string {
	return "valuation:progress:" + reportID
}

// Put stores the latest snapshot for a report.
func (c *ProgressCache) Put(ctx context.Context, reportID string, snapshot ProgressSnapshot) {
	if c == nil {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(reportID), data, c.ttl).Err(); err != nil {
		fmt.Printf("[CACHE] Warning: failed to cache progress for %s: %v\n", reportID, err)
	}
}

// Get returns the cached snapshot, or (nil, false) on miss or any error.
func (c *ProgressCache) Get(ctx context.Context, reportID string) (*ProgressSnapshot, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, c.key(reportID)).Bytes()
	if err != nil {
		return nil, false
	}
	var snapshot ProgressSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, false
	}
	return &snapshot, true
}

// Close releases the Redis connection.
func (c *ProgressCache) Close() {
	if c != nil && c.client != nil {
		c.client.Close()
	}
}
