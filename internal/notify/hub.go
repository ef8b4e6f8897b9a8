package notify

import (
	"context"
	"sync"

	"position-auction/utils"
)

// Event is what hub subscribers receive.
type Event struct {
	Topic   string
	Payload any
}

const defaultSubscriberBuffer = 64

// Hub is the in-process fan-out used by SSE streams and tests. A slow
// subscriber whose buffer is full has the event dropped rather than blocking
// the publisher; reconnecting clients recover through the history cursor.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a listener for a topic and returns the event channel
// plus an unsubscribe function. Unsubscribe closes the channel.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, defaultSubscriberBuffer)

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[chan Event]struct{})
	}
	h.subs[topic][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[topic], ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the payload to every current subscriber of topic.
func (h *Hub) Publish(ctx context.Context, topic string, payload any) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[topic] {
		select {
		case ch <- Event{Topic: topic, Payload: payload}:
		default:
			utils.Warn("hub: dropping event for slow subscriber", map[string]any{"topic": topic})
		}
	}
	return nil
}
