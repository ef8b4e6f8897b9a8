package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// Test RedisNotifier against miniredis
func TestRedisNotifier_Publish(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	ctx := context.Background()

	sub := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer sub.Close()

	pubsub := sub.Subscribe(ctx, "position:pos1")
	defer pubsub.Close()
	_, err := pubsub.Receive(ctx) // wait for the subscription to be live
	require.NoError(t, err)

	n := NewRedisNotifier(srv.Addr(), "")
	defer n.Close()

	payload := map[string]string{"kind": "bid.accepted", "position_id": "pos1"}
	require.NoError(t, n.Publish(ctx, "position:pos1", payload))

	select {
	case msg := <-pubsub.Channel():
		require.Equal(t, "position:pos1", msg.Channel)
		var got map[string]string
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		require.Equal(t, payload, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received from redis channel")
	}
}
