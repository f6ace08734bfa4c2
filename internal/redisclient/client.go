package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const settingsKey = "settings:all"

// Client caches the settings map and holds idempotency markers for payment
// callbacks. Everything here is best-effort: the database stays the source of
// truth and callers treat cache errors as misses.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client.
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client.
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetSettings returns the cached settings map, or (nil, nil) on a miss.
func (c *Client) GetSettings(ctx context.Context) (map[string]string, error) {
	raw, err := c.rdb.Get(ctx, settingsKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var settings map[string]string
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, fmt.Errorf("corrupt settings cache: %w", err)
	}
	return settings, nil
}

// SetSettings caches the settings map.
func (c *Client) SetSettings(ctx context.Context, settings map[string]string, ttl time.Duration) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, settingsKey, raw, ttl).Err()
}

// InvalidateSettings drops the cached settings map.
func (c *Client) InvalidateSettings(ctx context.Context) error {
	return c.rdb.Del(ctx, settingsKey).Err()
}

// ClaimVerification marks a payment transaction reference as being processed.
// Returns false when another callback already claimed it.
func (c *Client) ClaimVerification(ctx context.Context, tranRef string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("payment:verify:%s", tranRef), "1", ttl).Result()
}

// ReleaseVerification drops a claim so a failed verification can be retried.
func (c *Client) ReleaseVerification(ctx context.Context, tranRef string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("payment:verify:%s", tranRef)).Err()
}
