package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

const (
	// StreamName is the JetStream stream holding trip events.
	StreamName = "TRIPS"

	// SubjectPrefix prefixes every trip event subject.
	SubjectPrefix = "TRIPS"
)

// NATSConfig holds NATS connection configuration.
type NATSConfig struct {
	URL    string
	Token  string
	Logger zerolog.Logger
}

// NATSPublisher publishes events to JetStream.
type NATSPublisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger zerolog.Logger
}

// Subject returns the subject an event type is published on.
func Subject(t Type) string {
	return SubjectPrefix + "." + string(t)
}

// ConnectNATS connects to NATS and makes sure the trip stream exists.
func ConnectNATS(ctx context.Context, cfg NATSConfig) (*NATSPublisher, error) {
	log := cfg.Logger
	opts := []nats.Option{
		nats.Name("tripweaver"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Description: "Trip lifecycle events",
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensuring %s stream: %w", StreamName, err)
	}

	return &NATSPublisher{conn: nc, js: js, logger: log}, nil
}

// Publish sends the event to its subject.
func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	data, err := e.Encode()
	if err != nil {
		return err
	}
	ack, err := p.js.Publish(ctx, Subject(e.Type), data, jetstream.WithMsgID(e.ID))
	if err != nil {
		return fmt.Errorf("publishing %s: %w", e.Type, err)
	}
	p.logger.Debug().
		Str("event_type", string(e.Type)).
		Uint64("sequence", ack.Sequence).
		Msg("published trip event")
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// Consume delivers every trip event to handler through a durable pull
// consumer until ctx is cancelled. Handler failures are redelivered.
func (p *NATSPublisher) Consume(ctx context.Context, durable string, handler Handler) error {
	cons, err := p.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durable,
		FilterSubject: SubjectPrefix + ".>",
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
	})
	if err != nil {
		return fmt.Errorf("creating consumer %s: %w", durable, err)
	}

	p.logger.Info().
		Str("stream", StreamName).
		Str("consumer", durable).
		Msg("starting trip event consumer")

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		if Dispatch(ctx, p.logger.With().Str("subject", msg.Subject()).Logger(), msg.Data(), handler) {
			if err := msg.Ack(); err != nil {
				p.logger.Warn().Err(err).Msg("failed to ack trip event")
			}
			return
		}
		if err := msg.Nak(); err != nil {
			p.logger.Warn().Err(err).Msg("failed to nak trip event")
		}
	})
	if err != nil {
		return fmt.Errorf("consuming %s: %w", StreamName, err)
	}
	defer cc.Stop()

	<-ctx.Done()
	return nil
}
