package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

// broker delivers one resolved outbox row to topic.
type broker interface {
	Name() string
	Ping(ctx context.Context) error
	Publish(ctx context.Context, topic string, event models.OutboxEvent, envelope outbox.PayloadEnvelope) error
}

func messageAttributes(event models.OutboxEvent, envelope outbox.PayloadEnvelope) map[string]string {
	return map[string]string{
		"event_id":       envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
	}
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type pubsubBroker struct {
	client pubSubClient
}

func newPubSubBroker(client pubSubClient) broker {
	return &pubsubBroker{client: client}
}

func (b *pubsubBroker) Name() string { return "pubsub" }

func (b *pubsubBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}

func (b *pubsubBroker) Publish(ctx context.Context, topic string, event models.OutboxEvent, envelope outbox.PayloadEnvelope) error {
	pub := b.client.Publisher(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}
	result := pub.Publish(ctx, &gcppubsub.Message{
		Data:       event.Payload,
		Attributes: messageAttributes(event, envelope),
	})
	if result == nil {
		return errors.New("publish result is nil")
	}
	_, err := result.Get(ctx)
	return err
}

type amqpPublisher interface {
	Ping(context.Context) error
	Publish(ctx context.Context, routingKey, messageID string, body []byte, headers map[string]string) error
}

type rabbitBroker struct {
	publisher amqpPublisher
}

func newRabbitBroker(publisher amqpPublisher) broker {
	return &rabbitBroker{publisher: publisher}
}

func (b *rabbitBroker) Name() string { return "rabbitmq" }

func (b *rabbitBroker) Ping(ctx context.Context) error {
	return b.publisher.Ping(ctx)
}

// Publish uses the topic as routing key and the envelope event id as the
// AMQP message id.
func (b *rabbitBroker) Publish(ctx context.Context, topic string, event models.OutboxEvent, envelope outbox.PayloadEnvelope) error {
	messageID := envelope.EventID
	if messageID == "" {
		messageID = event.ID.String()
	}
	return b.publisher.Publish(ctx, topic, messageID, event.Payload, messageAttributes(event, envelope))
}
