package leadscore

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

// ErrDispatcherClosed is returned by Close when it is called twice
var ErrDispatcherClosed = errors.New("lead dispatcher already closed")

// Dispatcher hands a lead event off the request path. Dispatch never blocks on
// scoring and never reports failure to the caller.
type Dispatcher interface {
	Dispatch(userID uuid.UUID, event domain.LeadEventType)
}

// Handler processes one lead event
type Handler interface {
	Handle(ctx context.Context, event domain.LeadEvent)
}

// AsyncDispatcher queues events on a bounded channel drained by a fixed worker pool
type AsyncDispatcher struct {
	handler Handler
	queue   chan domain.LeadEvent
	logger  *logger.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewAsyncDispatcher starts workers goroutines consuming a queue of queueSize events
func NewAsyncDispatcher(handler Handler, workers, queueSize int, log *logger.Logger) *AsyncDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &AsyncDispatcher{
		handler: handler,
		queue:   make(chan domain.LeadEvent, queueSize),
		logger:  log,
		ctx:     ctx,
		cancel:  cancel,
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.run()
	}

	return d
}

func (d *AsyncDispatcher) run() {
	defer d.wg.Done()
	for event := range d.queue {
		d.handler.Handle(d.ctx, event)
	}
}

// Dispatch enqueues the event or drops it with a warning when the queue is full
func (d *AsyncDispatcher) Dispatch(userID uuid.UUID, eventType domain.LeadEventType) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warnf("Lead dispatcher closed, dropping %s for user %s", eventType, userID)
		return
	}

	select {
	case d.queue <- domain.NewLeadEvent(userID, eventType):
	default:
		d.logger.WithFields(map[string]interface{}{
			"user_id": userID,
			"event":   eventType,
		}).Warn("Lead event queue full, dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be handled.
// When ctx expires first, in-flight retries are cancelled and ctx.Err() is returned.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		d.logger.Warn("Lead dispatcher shutdown timeout reached")
		return ctx.Err()
	}
}

// InlineDispatcher records events synchronously on the caller's goroutine
type InlineDispatcher struct {
	service *Service
}

// NewInlineDispatcher creates a dispatcher that calls Service.Record directly
func NewInlineDispatcher(service *Service) *InlineDispatcher {
	return &InlineDispatcher{service: service}
}

// Dispatch records the event and never fails
func (d *InlineDispatcher) Dispatch(userID uuid.UUID, eventType domain.LeadEventType) {
	d.service.Record(context.Background(), userID, eventType)
}

// NopDispatcher discards every event
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(uuid.UUID, domain.LeadEventType) {}
