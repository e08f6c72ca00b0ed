package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"

	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

// Publisher handles publishing events to NATS JetStream behind a circuit breaker
type Publisher struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	breaker *gobreaker.CircuitBreaker[*nats.PubAck]
	logger  *logger.Logger
}

// Connect dials NATS with reconnects enabled
func Connect(url, name string, log *logger.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

// NewPublisher creates a JetStream publisher on an existing connection
func NewPublisher(nc *nats.Conn, log *logger.Logger) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"url": nc.ConnectedUrl(),
	}).Info("Connected to NATS JetStream")

	return &Publisher{
		nc:      nc,
		js:      js,
		breaker: newBreaker("nats-publisher", log),
		logger:  log,
	}, nil
}

func newBreaker(name string, log *logger.Logger) *gobreaker.CircuitBreaker[*nats.PubAck] {
	return gobreaker.NewCircuitBreaker[*nats.PubAck](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}

// Publish publishes a message to a NATS JetStream subject.
// The call returns once the stream has stored the message.
func (p *Publisher) Publish(ctx context.Context, subject string, data []byte) error {
	pubAck, err := p.breaker.Execute(func() (*nats.PubAck, error) {
		return p.js.Publish(subject, data, nats.Context(ctx))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			p.logger.Debugf("Circuit open, skipping publish to %s", subject)
		} else {
			p.logger.WithFields(map[string]interface{}{
				"subject": subject,
			}).Error("Failed to publish message to JetStream", err)
		}
		return fmt.Errorf("failed to publish to JetStream: %w", err)
	}

	p.logger.WithFields(map[string]interface{}{
		"subject":  subject,
		"stream":   pubAck.Stream,
		"sequence": pubAck.Sequence,
	}).Debug("Published message to JetStream")

	return nil
}

// JetStream exposes the stream context for stream and consumer setup
func (p *Publisher) JetStream() nats.JetStreamContext {
	return p.js
}

// Close drains and closes the NATS connection
func (p *Publisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.nc.Close()
		}
		p.logger.Info("NATS publisher connection closed")
	}
}

// NopPublisher discards every event. It is used when NATS is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }
