package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const itemNamesKey = "items:names"

type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis client for the canonical-name cache
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
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

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetItemNames retrieves the cached canonical name list. The second return
// is false on a cache miss. Names are stored in a sorted list, so cache hits
// preserve the matcher's deterministic candidate order.
func (c *Client) GetItemNames(ctx context.Context) ([]string, bool, error) {
	names, err := c.rdb.LRange(ctx, itemNamesKey, 0, -1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read name cache: %w", err)
	}
	if len(names) == 0 {
		// An empty list is indistinguishable from a missing key; treat
		// both as a miss and let the store answer.
		return nil, false, nil
	}
	return names, true, nil
}

// SetItemNames replaces the cached name list
func (c *Client) SetItemNames(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return c.InvalidateItemNames(ctx)
	}

	args := make([]interface{}, len(names))
	for i, name := range names {
		args[i] = name
	}

	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, itemNamesKey)
	pipe.RPush(ctx, itemNamesKey, args...)
	pipe.Expire(ctx, itemNamesKey, c.ttl)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to write name cache: %w", err)
	}
	return nil
}

// InvalidateItemNames drops the cached name list. Called whenever a
// canonical item is created or the ledger is cleared.
func (c *Client) InvalidateItemNames(ctx context.Context) error {
	return c.rdb.Del(ctx, itemNamesKey).Err()
}
