package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes status events to a Redis stream
type RedisPublisher struct {
	client *redis.Client
	stream string
}

// newRedisPublisher connects to redis and binds the stream
func newRedisPublisher(url, password string, db int, stream string) (*RedisPublisher, error) {
	// Parse URL or use defaults
	opts, err := redis.ParseURL(url)
	if err != nil {
		// Fallback to simple options
		opts = &redis.Options{
			Addr:     url,
			Password: password,
			DB:       db,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisPublisher{client: client, stream: stream}, nil
}

// Publish appends one event to the stream
func (p *RedisPublisher) Publish(ctx context.Context, data []byte) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		ID:     "*", // Auto-generate ID
		Values: map[string]interface{}{"data": data},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}
	return nil
}

// Close closes the client
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
