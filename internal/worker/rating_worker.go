package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

// debounceWindow collects review events for the same product within this duration
const debounceWindow = 1 * time.Second

// RatingRecomputer rewrites a product's rating aggregate from its reviews
type RatingRecomputer interface {
	Recompute(ctx context.Context, productID uuid.UUID) error
}

// reviewEvent is the subset of a published review event the worker needs
type reviewEvent struct {
	EventType string    `json:"event_type"`
	ProductID uuid.UUID `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
}

// RatingWorker reconciles product ratings from review events. Review writes already
// recompute synchronously; this pass repairs products whose inline recompute failed.
type RatingWorker struct {
	recomputer RatingRecomputer
	policy     RetryPolicy
	window     time.Duration
	logger     *logger.Logger

	mu             sync.Mutex
	pendingUpdates map[uuid.UUID]*pendingUpdate
	shutdownCh     chan struct{}
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
}

type pendingUpdate struct {
	timestamp time.Time
	timer     *time.Timer
}

// NewRatingWorker creates a new rating reconciliation worker
func NewRatingWorker(recomputer RatingRecomputer, logger *logger.Logger) *RatingWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &RatingWorker{
		recomputer:     recomputer,
		policy:         DefaultRetryPolicy(),
		window:         debounceWindow,
		logger:         logger,
		pendingUpdates: make(map[uuid.UUID]*pendingUpdate),
		shutdownCh:     make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// HandleEvent schedules a recompute for the product named in a review event
func (w *RatingWorker) HandleEvent(ctx context.Context, data []byte) error {
	var event reviewEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.Error("Failed to unmarshal review event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	w.logger.WithFields(map[string]any{
		"type":       event.EventType,
		"product_id": event.ProductID.String(),
	}).Debug("Received review event")

	w.scheduleUpdate(event.ProductID, event.Timestamp)
	return nil
}

// scheduleUpdate collapses events for one product inside the window into a single recompute
func (w *RatingWorker) scheduleUpdate(productID uuid.UUID, timestamp time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdownCh:
		w.logger.Info("Worker shutting down, ignoring new event")
		return
	default:
	}

	existing, found := w.pendingUpdates[productID]
	if found && timestamp.Before(existing.timestamp) {
		w.logger.Debugf("Ignoring stale event for product %s", productID)
		return
	}
	// A timer that already fired owns its wait group slot; only a stopped one hands it over.
	if !found || !existing.timer.Stop() {
		w.wg.Add(1)
	}

	update := &pendingUpdate{timestamp: timestamp}
	update.timer = time.AfterFunc(w.window, func() {
		w.processUpdate(productID, update)
	})
	w.pendingUpdates[productID] = update
}

func (w *RatingWorker) processUpdate(productID uuid.UUID, update *pendingUpdate) {
	defer w.wg.Done()

	w.mu.Lock()
	if w.pendingUpdates[productID] == update {
		delete(w.pendingUpdates, productID)
	}
	w.mu.Unlock()

	err := w.policy.retry(w.ctx,
		func(ctx context.Context) error {
			return w.recomputer.Recompute(ctx, productID)
		},
		func(attempt int, err error) {
			w.logger.WithFields(map[string]any{
				"product_id": productID.String(),
				"attempt":    attempt,
				"error":      err.Error(),
			}).Warn("Rating recompute failed")
		},
	)
	if err != nil {
		w.logger.WithFields(map[string]any{
			"product_id":  productID.String(),
			"max_retries": w.policy.MaxAttempts,
		}).Error("Rating recompute failed after all retries", err)
	}
}

// Shutdown cancels pending timers and waits for in-flight recomputes
func (w *RatingWorker) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down rating worker...")

	close(w.shutdownCh)
	w.cancel()

	w.mu.Lock()
	pendingCount := 0
	for id, update := range w.pendingUpdates {
		if update.timer.Stop() {
			w.wg.Done()
			pendingCount++
		}
		delete(w.pendingUpdates, id)
	}
	w.mu.Unlock()

	w.logger.WithFields(map[string]any{
		"cancelled_updates": pendingCount,
	}).Info("Cancelled pending updates")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("All in-flight updates completed")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout reached, forcing exit")
		return ctx.Err()
	}
}

// PendingCount returns the number of scheduled recomputes
func (w *RatingWorker) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pendingUpdates)
}
