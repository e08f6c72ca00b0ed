package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

// Handler processes one message payload. A returned error naks the message.
type Handler func(ctx context.Context, data []byte) error

// Consumer pulls messages for one durable JetStream consumer
type Consumer struct {
	sub     *nats.Subscription
	durable string
	batch   int
	logger  *logger.Logger
}

// NewConsumer ensures the stream and durable consumer exist and binds a pull subscription
func NewConsumer(js nats.JetStreamContext, spec StreamSpec, durable string, log *logger.Logger) (*Consumer, error) {
	streams := NewStreamConfig(js, log)
	if err := streams.EnsureStream(spec); err != nil {
		return nil, err
	}
	if err := streams.EnsureConsumer(spec, durable); err != nil {
		return nil, err
	}

	sub, err := js.PullSubscribe(spec.Subject, durable, nats.ManualAck(), nats.Bind(spec.Name, durable))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to JetStream consumer %s: %w", durable, err)
	}

	log.WithFields(map[string]any{
		"stream":   spec.Name,
		"consumer": durable,
	}).Info("Subscribed to JetStream consumer")

	return &Consumer{
		sub:     sub,
		durable: durable,
		batch:   10,
		logger:  log,
	}, nil
}

// Run fetches and handles messages until ctx is cancelled
func (c *Consumer) Run(ctx context.Context, handler Handler) {
	for {
		if ctx.Err() != nil {
			return
		}

		msgs, err := c.sub.Fetch(c.batch, nats.MaxWait(5*time.Second))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				return
			}
			c.logger.WithFields(map[string]any{
				"consumer": c.durable,
			}).Error("Failed to fetch messages from JetStream", err)

			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, msg := range msgs {
			c.handle(ctx, msg, handler)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg *nats.Msg, handler Handler) {
	if err := handler(ctx, msg.Data); err != nil {
		c.logger.WithFields(map[string]any{
			"consumer": c.durable,
			"subject":  msg.Subject,
		}).Error("Failed to handle event", err)

		// Redelivered with backoff until MaxDeliveryAttempts, then discarded
		if nakErr := msg.Nak(); nakErr != nil {
			c.logger.Error("Failed to NACK message", nakErr)
		}
		return
	}

	if ackErr := msg.Ack(); ackErr != nil {
		c.logger.Error("Failed to ACK message", ackErr)
	}
}

// Close unsubscribes the pull subscription. The durable consumer keeps its position.
func (c *Consumer) Close() {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			c.logger.Warnf("Failed to unsubscribe from JetStream: %v", err)
		}
	}
}
