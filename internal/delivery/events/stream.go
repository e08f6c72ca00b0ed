package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

const (
	SubjectOrders  = "orders.events"
	SubjectReviews = "reviews.events"
	SubjectLeads   = "leads.events"

	// RatingWorkerConsumer reconciles product ratings from review events
	RatingWorkerConsumer = "rating-worker"

	// LeadWorkerConsumer applies lead score events
	LeadWorkerConsumer = "lead-worker"

	// NotifierOrdersConsumer and NotifierReviewsConsumer feed the notifier
	NotifierOrdersConsumer  = "notifier-orders"
	NotifierReviewsConsumer = "notifier-reviews"

	// MaxDeliveryAttempts is the max number of delivery attempts before discarding
	MaxDeliveryAttempts = 3

	// AckWait is how long to wait for acknowledgment before redelivery
	AckWait = 30 * time.Second
)

// StreamSpec describes one JetStream stream
type StreamSpec struct {
	Name        string
	Subject     string
	Retention   nats.RetentionPolicy
	MaxAge      time.Duration
	Description string
}

var (
	// OrdersStream keeps order lifecycle events for any number of readers
	OrdersStream = StreamSpec{
		Name:        "ORDERS",
		Subject:     SubjectOrders,
		Retention:   nats.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		Description: "Order lifecycle events",
	}

	// ReviewsStream is read by the rating worker and the notifier
	ReviewsStream = StreamSpec{
		Name:        "REVIEWS",
		Subject:     SubjectReviews,
		Retention:   nats.LimitsPolicy,
		MaxAge:      24 * time.Hour,
		Description: "Review events for rating reconciliation and notifications",
	}

	// LeadsStream is a work queue drained by the lead worker
	LeadsStream = StreamSpec{
		Name:        "LEADS",
		Subject:     SubjectLeads,
		Retention:   nats.WorkQueuePolicy,
		MaxAge:      24 * time.Hour,
		Description: "Behavioral events for lead scoring",
	}
)

// StreamConfig holds the JetStream stream configuration
type StreamConfig struct {
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewStreamConfig creates a new stream configuration helper
func NewStreamConfig(js nats.JetStreamContext, log *logger.Logger) *StreamConfig {
	return &StreamConfig{
		js:     js,
		logger: log,
	}
}

// generateExponentialBackoff creates a backoff schedule for NATS redeliveries.
// MaxDeliver N requires N-1 backoff durations (first delivery is immediate).
func generateExponentialBackoff(maxDeliveryAttempts int) []time.Duration {
	if maxDeliveryAttempts <= 1 {
		return nil
	}

	backoff := make([]time.Duration, maxDeliveryAttempts-1)
	for i := range backoff {
		backoff[i] = time.Duration(1<<i) * time.Second
	}
	return backoff
}

func (spec StreamSpec) natsConfig() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:        spec.Name,
		Subjects:    []string{spec.Subject},
		Retention:   spec.Retention,
		Storage:     nats.FileStorage,
		Replicas:    1,
		MaxAge:      spec.MaxAge,
		Discard:     nats.DiscardOld,
		Description: spec.Description,
	}
}

// EnsureStream creates the stream when it does not exist yet
func (s *StreamConfig) EnsureStream(spec StreamSpec) error {
	stream, err := s.js.StreamInfo(spec.Name)

	if errors.Is(err, nats.ErrStreamNotFound) {
		s.logger.WithFields(map[string]any{
			"stream":  spec.Name,
			"subject": spec.Subject,
		}).Info("Creating JetStream stream")

		if _, err = s.js.AddStream(spec.natsConfig()); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", spec.Name, err)
		}

		s.logger.Infof("JetStream stream %s created successfully", spec.Name)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get stream info for %s: %w", spec.Name, err)
	}

	s.logger.WithFields(map[string]any{
		"stream":   stream.Config.Name,
		"messages": stream.State.Msgs,
		"bytes":    stream.State.Bytes,
	}).Info("JetStream stream already exists")

	return nil
}

func consumerConfig(spec StreamSpec, durable string) *nats.ConsumerConfig {
	return &nats.ConsumerConfig{
		Durable:       durable,
		AckPolicy:     nats.AckExplicitPolicy,
		AckWait:       AckWait,
		MaxDeliver:    MaxDeliveryAttempts,
		FilterSubject: spec.Subject,
		BackOff:       generateExponentialBackoff(MaxDeliveryAttempts),
		Description:   durable + " consumer of " + spec.Name,
	}
}

// EnsureConsumer creates the durable pull consumer when it does not exist yet.
// Messages that fail MaxDeliveryAttempts times are discarded.
func (s *StreamConfig) EnsureConsumer(spec StreamSpec, durable string) error {
	consumerInfo, err := s.js.ConsumerInfo(spec.Name, durable)

	if errors.Is(err, nats.ErrConsumerNotFound) {
		s.logger.WithFields(map[string]any{
			"stream":   spec.Name,
			"consumer": durable,
		}).Info("Creating JetStream consumer")

		if _, err = s.js.AddConsumer(spec.Name, consumerConfig(spec, durable)); err != nil {
			return fmt.Errorf("failed to create consumer %s: %w", durable, err)
		}

		s.logger.Infof("JetStream consumer %s created successfully", durable)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get consumer info for %s: %w", durable, err)
	}

	s.logger.WithFields(map[string]any{
		"consumer":    consumerInfo.Name,
		"pending":     consumerInfo.NumPending,
		"redelivered": consumerInfo.NumRedelivered,
		"ack_pending": consumerInfo.NumAckPending,
	}).Info("JetStream consumer already exists")

	return nil
}

// EnsureAll creates every stream the storefront publishes to
func (s *StreamConfig) EnsureAll() error {
	for _, spec := range []StreamSpec{OrdersStream, ReviewsStream, LeadsStream} {
		if err := s.EnsureStream(spec); err != nil {
			return err
		}
	}
	return nil
}
