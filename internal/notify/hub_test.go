package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Test Hub publish/subscribe
func TestHub_PublishSubscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := NewHub()

	ch, cancel := hub.Subscribe("position:pos1")
	defer cancel()

	require.NoError(t, hub.Publish(ctx, "position:pos1", "first"))
	require.NoError(t, hub.Publish(ctx, "position:pos1", "second"))
	require.NoError(t, hub.Publish(ctx, "position:other", "elsewhere"))

	got := []any{(<-ch).Payload, (<-ch).Payload}
	require.Equal(t, []any{"first", "second"}, got, "events arrive in publish order")

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event from other topic: %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHub_MultipleSubscribersSeeSameOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := NewHub()

	chA, cancelA := hub.Subscribe("room:r1")
	defer cancelA()
	chB, cancelB := hub.Subscribe("room:r1")
	defer cancelB()

	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, hub.Publish(ctx, "room:r1", p))
	}

	for _, ch := range []<-chan Event{chA, chB} {
		var got []any
		for i := 0; i < 3; i++ {
			got = append(got, (<-ch).Payload)
		}
		require.Equal(t, []any{"a", "b", "c"}, got)
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ch, cancel := hub.Subscribe("room:r1")
	cancel()
	cancel() // cancelling twice is safe

	_, open := <-ch
	require.False(t, open)

	// Publishing after unsubscribe reaches no one and does not panic.
	require.NoError(t, hub.Publish(context.Background(), "room:r1", "late"))
}

func TestHub_SlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := NewHub()
	_, cancel := hub.Subscribe("room:r1")
	defer cancel()

	// Overfill the subscriber buffer; publishes must still return promptly.
	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultSubscriberBuffer*2; i++ {
			_ = hub.Publish(ctx, "room:r1", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
