package events

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubConfig holds configuration for Google Cloud Pub/Sub.
type PubSubConfig struct {
	ProjectID        string
	Topic            string
	SubscriptionName string
	Logger           zerolog.Logger
}

// PubSubPublisher publishes events to a Pub/Sub topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    zerolog.Logger
}

// NewPubSubPublisher creates a publisher for the configured topic.
func NewPubSubPublisher(ctx context.Context, cfg PubSubConfig) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubPublisher{
		client:    client,
		publisher: client.Publisher(cfg.Topic),
		logger:    cfg.Logger,
	}, nil
}

// Publish sends the event and waits for the server acknowledgement.
func (p *PubSubPublisher) Publish(ctx context.Context, e Event) error {
	data, err := e.Encode()
	if err != nil {
		return err
	}
	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"type": string(e.Type), "session_id": e.SessionID},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing %s: %w", e.Type, err)
	}
	p.logger.Debug().
		Str("event_type", string(e.Type)).
		Str("message_id", id).
		Msg("published trip event")
	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}

// Handler processes one decoded event.
type Handler func(ctx context.Context, e Event) error

// PubSubConsumer receives trip events from a subscription.
type PubSubConsumer struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	handler          Handler
	logger           zerolog.Logger
}

// NewPubSubConsumer creates a consumer for the configured subscription.
func NewPubSubConsumer(ctx context.Context, cfg PubSubConfig, handler Handler) (*PubSubConsumer, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubConsumer{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		handler:          handler,
		logger:           cfg.Logger,
	}, nil
}

// Start receives messages until ctx is cancelled.
func (c *PubSubConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("subscription", c.subscriptionName).
		Msg("starting trip event consumer")

	return c.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if Dispatch(ctx, c.logger.With().Str("message_id", msg.ID).Logger(), msg.Data, c.handler) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Close closes the Pub/Sub client.
func (c *PubSubConsumer) Close() error {
	return c.client.Close()
}

// Dispatch decodes a payload and runs the handler. It reports whether the
// message should be acknowledged: undecodable payloads are acknowledged so
// they are not redelivered, handler failures are not.
func Dispatch(ctx context.Context, logger zerolog.Logger, data []byte, handler Handler) bool {
	e, err := Decode(data)
	if err != nil {
		logger.Warn().Err(err).Msg("dropping undecodable trip event")
		return true
	}
	if err := handler(ctx, e); err != nil {
		logger.Error().Err(err).Str("event_type", string(e.Type)).Msg("trip event handler failed")
		return false
	}
	return true
}
