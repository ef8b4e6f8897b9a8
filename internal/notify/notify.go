// Package notify pushes position and room deltas to subscribed clients.
// Delivery is at-least-once; clients deduplicate by message/bid id.
package notify

import (
	"context"
	"errors"
)

// Notifier publishes a payload on a topic ("position:{id}" or "room:{id}").
type Notifier interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Multi fans a publish out to several notifiers (e.g. the in-process hub for
// SSE subscribers plus a broker for other services).
type Multi []Notifier

// Publish sends to every notifier and joins their errors.
func (m Multi) Publish(ctx context.Context, topic string, payload any) error {
	var errs []error
	for _, n := range m {
		if err := n.Publish(ctx, topic, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
