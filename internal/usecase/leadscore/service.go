package leadscore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

// Service turns lead events into score adjustments
type Service struct {
	users  domain.UserRepository
	logger *logger.Logger
}

// NewService creates a new lead scoring service
func NewService(users domain.UserRepository, log *logger.Logger) *Service {
	return &Service{
		users:  users,
		logger: log,
	}
}

// Apply adds the event's delta to the user's score. Unknown event types are a no-op.
func (s *Service) Apply(ctx context.Context, event domain.LeadEvent) error {
	if !event.Type.Known() {
		s.logger.Debugf("Ignoring unknown lead event %q for user %s", event.Type, event.UserID)
		return nil
	}

	var source domain.Source
	if event.Type.NeedsSource() {
		user, err := s.users.GetByID(ctx, event.UserID)
		if err != nil {
			return fmt.Errorf("load user %s: %w", event.UserID, err)
		}
		source = user.Source
	}

	delta, _ := domain.ScoreDelta(event.Type, source)

	score, err := s.users.AdjustScore(ctx, event.UserID, delta)
	if err != nil {
		return fmt.Errorf("adjust score for user %s: %w", event.UserID, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": event.UserID,
		"event":   event.Type,
		"delta":   delta,
		"score":   score,
	}).Info("Lead score updated")

	return nil
}

// Record applies the event once and swallows any failure after logging it
func (s *Service) Record(ctx context.Context, userID uuid.UUID, eventType domain.LeadEventType) {
	err := s.Apply(ctx, domain.NewLeadEvent(userID, eventType))
	if err == nil {
		return
	}

	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Warnf("Lead event %s dropped, user %s not found", eventType, userID)
		return
	}
	s.logger.Errorf(err, "Failed to record lead event %s for user %s", eventType, userID)
}
