package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/pkg/validator"
	"github.com/Pesokrava/storefront/internal/usecase/leadscore"
)

// reportable are the events other subsystems report on a user's behalf
var reportable = map[domain.LeadEventType]bool{
	domain.LeadEventLogin:                true,
	domain.LeadEventAbandonedCart:        true,
	domain.LeadEventNoPurchaseAfterViews: true,
}

// Service handles user profile and lead score hooks
type Service struct {
	repo       domain.UserRepository
	dispatcher leadscore.Dispatcher
	logger     *logger.Logger
}

// NewService creates a new user service
func NewService(repo domain.UserRepository, dispatcher leadscore.Dispatcher, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     log,
	}
}

// Register stores the profile of a newly authenticated user and scores the registration
func (s *Service) Register(ctx context.Context, user *domain.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Source == "" {
		user.Source = domain.SourceWeb
	}
	user.Score = 0

	if err := validator.Struct(user); err != nil {
		s.logger.Debugf("User validation failed: %v", err)
		return err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Error("Failed to create user", err)
		}
		return err
	}

	s.dispatcher.Dispatch(user.ID, domain.LeadEventRegister)

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"source":  user.Source,
	}).Info("User registered")

	return nil
}

// Get returns a user profile including the current score
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("User not found: %s", id)
		} else {
			s.logger.Error("Failed to get user", err)
		}
		return nil, err
	}
	return user, nil
}

// RecordEvent accepts a behavioral event reported by a collaborator
func (s *Service) RecordEvent(ctx context.Context, userID uuid.UUID, eventType domain.LeadEventType) error {
	if !reportable[eventType] {
		return domain.NewValidationError("event_type", "must be one of login, abandoned_cart, no_purchase_after_views")
	}

	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}

	s.dispatcher.Dispatch(userID, eventType)
	return nil
}
