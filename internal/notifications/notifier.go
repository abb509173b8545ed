// Package notifications publishes and consumes data-service change events over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"circles/internal/models"
	"circles/internal/observability"

	"github.com/redis/go-redis/v9"
)

// EventsChannel carries every change event.
const EventsChannel = "circles:events"

// CircleChannel carries the change events of one circle.
func CircleChannel(slug string) string {
	return fmt.Sprintf("%s:circle:%s", EventsChannel, slug)
}

// Notifier provides helpers to publish change events into Redis channels.
// A nil client turns every call into a no-op.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends ev on EventsChannel and, when it names a circle, on that
// circle's channel too.
func (n *Notifier) Publish(ctx context.Context, ev models.ChangeEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := n.rdb.Pipeline()
	pipe.Publish(ctx, EventsChannel, payload)
	if ev.CircleSlug != "" {
		pipe.Publish(ctx, CircleChannel(ev.CircleSlug), payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	observability.ChangeEventsTotal.WithLabelValues(string(ev.Type), "published").Inc()
	return nil
}

// Subscribe delivers events from channel to onEvent until ctx is done.
// The subscription is confirmed before Subscribe returns. Undecodable
// payloads are logged and skipped; a panicking handler does not stop the loop.
func (n *Notifier) Subscribe(ctx context.Context, channel string, onEvent func(models.ChangeEvent)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev models.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					observability.GlobalLogger.WarnContext(ctx, "dropping malformed change event",
						slog.String("channel", msg.Channel), slog.String("error", err.Error()))
					continue
				}
				observability.ChangeEventsTotal.WithLabelValues(string(ev.Type), "received").Inc()
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.GlobalLogger.ErrorContext(ctx, "panic in change event handler",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onEvent(ev)
				}()
			}
		}
	}()

	return nil
}
