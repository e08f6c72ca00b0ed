package leadscore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/repository/memory"
)

func seedUser(t *testing.T, users *memory.UserRepository, source domain.Source) *domain.User {
	user := &domain.User{Name: "Grace", Email: uuid.NewString() + "@example.com", Source: source}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func score(t *testing.T, users domain.UserRepository, id uuid.UUID) int {
	user, err := users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return user.Score
}

func TestService_Apply(t *testing.T) {
	tests := []struct {
		name   string
		source domain.Source
		events []domain.LeadEventType
		want   int
	}{
		{"referral registration", domain.SourceReferral, []domain.LeadEventType{domain.LeadEventRegister}, 10},
		{"web registration", domain.SourceWeb, []domain.LeadEventType{domain.LeadEventRegister}, 5},
		{"browse then buy", domain.SourceWeb, []domain.LeadEventType{
			domain.LeadEventViewProduct,
			domain.LeadEventAddToCart,
			domain.LeadEventPlaceOrder,
		}, 18},
		{"negative signals go below zero", domain.SourceWeb, []domain.LeadEventType{
			domain.LeadEventAbandonedCart,
			domain.LeadEventNoPurchaseAfterViews,
		}, -10},
		{"unknown event is ignored", domain.SourceWeb, []domain.LeadEventType{"share_product"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := memory.NewUserRepository(memory.NewStore())
			service := NewService(users, logger.New("test"))
			user := seedUser(t, users, tt.source)

			for _, event := range tt.events {
				require.NoError(t, service.Apply(context.Background(), domain.NewLeadEvent(user.ID, event)))
			}

			assert.Equal(t, tt.want, score(t, users, user.ID))
		})
	}
}

func TestService_Apply_UnknownUser(t *testing.T) {
	service := NewService(memory.NewUserRepository(memory.NewStore()), logger.New("test"))

	err := service.Apply(context.Background(), domain.NewLeadEvent(uuid.New(), domain.LeadEventLogin))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = service.Apply(context.Background(), domain.NewLeadEvent(uuid.New(), domain.LeadEventRegister))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Record_SwallowsFailures(t *testing.T) {
	users := memory.NewUserRepository(memory.NewStore())
	service := NewService(users, logger.New("test"))
	user := seedUser(t, users, domain.SourceWeb)

	assert.NotPanics(t, func() {
		service.Record(context.Background(), uuid.New(), domain.LeadEventLogin)
	})

	NewInlineDispatcher(service).Dispatch(user.ID, domain.LeadEventLogin)
	assert.Equal(t, 2, score(t, users, user.ID))
}
