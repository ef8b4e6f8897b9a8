package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes events on Redis pub/sub channels named after the
// topic, for deployments that already run Redis instead of a broker.
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier builds a notifier against the given Redis address.
func NewRedisNotifier(addr, password string) *RedisNotifier {
	return &RedisNotifier{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

// Publish sends the payload as JSON on the topic channel.
func (n *RedisNotifier) Publish(ctx context.Context, topic string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, topic, b).Err()
}

// Close releases the client.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
