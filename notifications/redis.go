package notifications

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes on Redis pub/sub. The channel key is prefixed so several
// deployments can share one Redis.
type RedisNotifier struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisNotifier wraps an existing client.
func NewRedisNotifier(client redis.UniversalClient, prefix string) *RedisNotifier {
	return &RedisNotifier{client: client, prefix: prefix}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, prefix string) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewRedisNotifier(client, prefix), nil
}

func (r *RedisNotifier) Notify(ctx context.Context, channelKey string, payload Payload) error {
	body, err := encode(channelKey, payload)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.prefix+channelKey, body).Err(); err != nil {
		return fmt.Errorf("redis publish to %s: %w", channelKey, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *RedisNotifier) Close() error {
	return r.client.Close()
}
