package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/usecase/leadscore"
)

// EventPublisher publishes a payload to a subject
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// LeadPublisher is a leadscore.Dispatcher that sends events to the lead worker over NATS.
// Events that cannot be published are handed to the fallback dispatcher.
type LeadPublisher struct {
	publisher EventPublisher
	fallback  leadscore.Dispatcher
	timeout   time.Duration
	logger    *logger.Logger
}

// NewLeadPublisher creates a NATS backed lead dispatcher
func NewLeadPublisher(publisher EventPublisher, fallback leadscore.Dispatcher, log *logger.Logger) *LeadPublisher {
	if fallback == nil {
		fallback = leadscore.NopDispatcher{}
	}
	return &LeadPublisher{
		publisher: publisher,
		fallback:  fallback,
		timeout:   5 * time.Second,
		logger:    log,
	}
}

// Dispatch publishes in the background and returns immediately
func (p *LeadPublisher) Dispatch(userID uuid.UUID, eventType domain.LeadEventType) {
	data, err := json.Marshal(domain.NewLeadEvent(userID, eventType))
	if err != nil {
		p.logger.Errorf(err, "Failed to marshal lead event %s for user %s", eventType, userID)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if err := p.publisher.Publish(ctx, SubjectLeads, data); err != nil {
			p.logger.Warnf("Lead event %s for user %s not published, applying locally: %v", eventType, userID, err)
			p.fallback.Dispatch(userID, eventType)
		}
	}()
}
