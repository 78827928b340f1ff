package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// RedisChannel is the pub/sub channel notifications are published on
	RedisChannel = "backoffice:notifications"
)

// RedisSink publishes notifications to Redis pub/sub
type RedisSink struct {
	client  *redis.Client
	channel string
	timeout time.Duration
}

// NewRedisSink creates a sink publishing on RedisChannel
func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{
		client:  client,
		channel: RedisChannel,
		timeout: 5 * time.Second,
	}
}

// Send publishes one notification
func (s *RedisSink) Send(ctx context.Context, n Notification) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}

	return nil
}

// Subscribe delivers notifications to handler until ctx is done
func (s *RedisSink) Subscribe(ctx context.Context, handler func(Notification)) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var n Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				continue
			}
			handler(n)
		}
	}
}
