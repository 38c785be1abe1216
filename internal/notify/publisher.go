// Package notify delivers dispatcher payloads to connected clients over
// Redis pub/sub. The dispatcher produces a payload and target set; this
// package owns the actual fan-out.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channels for real-time alert delivery.
const (
	ChannelLocationAlerts = "alerts:location"
	ChannelTargeted       = "alerts:targeted"
	ChannelBroadcast      = "alerts:broadcast"
)

// Publisher is the transport the alert handlers hand notifications to.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// RedisPublisher publishes notification payloads as JSON on Redis channels.
type RedisPublisher struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

// NewRedisPublisher connects to Redis using a URL of the form
// redis://host:port and verifies connectivity.
func NewRedisPublisher(ctx context.Context, redisURL string, logger *zap.SugaredLogger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisPublisher{client: client, logger: logger}, nil
}

// Publish marshals payload and publishes it on channel.
func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}

	p.logger.Debugw("Notification published", "channel", channel, "bytes", len(data))
	return nil
}

// Close releases the underlying Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
