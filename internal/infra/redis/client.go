package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for stake seed reservation.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func seedKey(base, seed string) string {
	return fmt.Sprintf("stake_seed:%s:%s", base, seed)
}

// ReserveSeed claims seed for the base key. It returns false if another
// process already holds the reservation.
func (c *Client) ReserveSeed(ctx context.Context, base, seed string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, seedKey(base, seed), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}

// ReleaseSeed drops a reservation, used when a build fails before submission.
func (c *Client) ReleaseSeed(ctx context.Context, base, seed string) error {
	return c.rdb.Del(ctx, seedKey(base, seed)).Err()
}
