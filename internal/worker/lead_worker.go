package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

// LeadApplier adjusts a user's score for one event
type LeadApplier interface {
	Apply(ctx context.Context, event domain.LeadEvent) error
}

// LeadScoreWorker applies lead events with retries. It is the handler behind both the
// in-process dispatcher and the NATS consumer.
type LeadScoreWorker struct {
	applier LeadApplier
	policy  RetryPolicy
	logger  *logger.Logger
}

// NewLeadScoreWorker creates a new lead score worker
func NewLeadScoreWorker(applier LeadApplier, policy RetryPolicy, logger *logger.Logger) *LeadScoreWorker {
	return &LeadScoreWorker{
		applier: applier,
		policy:  policy,
		logger:  logger,
	}
}

// Handle applies the event, retrying transient failures. The final failure is only logged.
func (w *LeadScoreWorker) Handle(ctx context.Context, event domain.LeadEvent) {
	err := w.policy.retry(ctx,
		func(ctx context.Context) error {
			err := w.applier.Apply(ctx, event)
			if errors.Is(err, domain.ErrNotFound) {
				return permanent{err}
			}
			return err
		},
		func(attempt int, err error) {
			w.logger.WithFields(map[string]any{
				"user_id": event.UserID.String(),
				"event":   event.Type,
				"attempt": attempt,
				"error":   err.Error(),
			}).Warn("Lead score update failed")
		},
	)
	if err == nil {
		return
	}

	w.logger.WithFields(map[string]any{
		"user_id":     event.UserID.String(),
		"event":       event.Type,
		"max_retries": w.policy.MaxAttempts,
	}).Error("Lead score update failed after all retries", err)
}

// HandleMessage decodes a lead event published on NATS and handles it
func (w *LeadScoreWorker) HandleMessage(ctx context.Context, data []byte) error {
	var event domain.LeadEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.Error("Failed to unmarshal lead event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	w.Handle(ctx, event)
	return nil
}

// permanent marks errors that retrying cannot fix
type permanent struct {
	err error
}

func (p permanent) Error() string { return p.err.Error() }

func (p permanent) Unwrap() error { return p.err }
