package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

type Client struct {
	rdb *redis.Client
}

// TableSession is a per-table credential proving a customer-facing
// order request originates from an active table session.
type TableSession struct {
	TableID   uint      `json:"table_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Underlying exposes the raw client for callers that need pub/sub.
func (c *Client) Underlying() *redis.Client {
	return c.rdb
}

// Table session management

func (c *Client) StartTableSession(tableID uint, ttl time.Duration) (*TableSession, error) {
	session := &TableSession{
		TableID:   tableID,
		Token:     uuid.NewString(),
		CreatedAt: time.Now(),
	}

	ctx := context.Background()
	jsonData, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := c.rdb.Set(ctx, "table_session:"+session.Token, jsonData, ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

func (c *Client) GetTableSession(token string) (*TableSession, error) {
	ctx := context.Background()
	val, err := c.rdb.Get(ctx, "table_session:"+token).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session TableSession
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	return &session, nil
}

func (c *Client) EndTableSession(token string) error {
	ctx := context.Background()
	return c.rdb.Del(ctx, "table_session:"+token).Err()
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
