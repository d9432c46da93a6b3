package pubsub

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
)

// EventPublisher emits activity lifecycle events (uploaded, processed,
// failed) on Pub/Sub topics. The broker message ID is returned for log
// correlation with downstream consumers.
type EventPublisher struct {
	Client *pubsub.Client
}

func (p *EventPublisher) Publish(ctx context.Context, topicID string, data []byte) (string, error) {
	res := p.Client.Topic(topicID).Publish(ctx, &pubsub.Message{Data: data})
	return res.Get(ctx)
}

// LogPublisher stands in for Pub/Sub when publishing is disabled (local
// recipe debugging); events are logged instead of delivered.
type LogPublisher struct{}

func (p *LogPublisher) Publish(ctx context.Context, topicID string, data []byte) (string, error) {
	slog.Info("Event publish suppressed", "topic", topicID, "payload", string(data))
	return "local-msg-id", nil
}
