package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
	"github.com/Pesokrava/storefront/internal/repository/memory"
	"github.com/Pesokrava/storefront/internal/usecase/leadscore"
)

func newService() (*Service, *memory.UserRepository) {
	users := memory.NewUserRepository(memory.NewStore())
	log := logger.New("test")
	dispatcher := leadscore.NewInlineDispatcher(leadscore.NewService(users, log))
	return NewService(users, dispatcher, log), users
}

func TestService_Register_ScoresBySource(t *testing.T) {
	tests := []struct {
		source domain.Source
		want   int
	}{
		{domain.SourceReferral, 10},
		{domain.SourceGoogle, 5},
		{"", 5},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			service, _ := newService()
			id := uuid.New()
			user := &domain.User{ID: id, Name: "Linus", Email: "  Linus@Example.com ", Source: tt.source, Score: 99}

			require.NoError(t, service.Register(context.Background(), user))

			got, err := service.Get(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Score)
			assert.Equal(t, "linus@example.com", got.Email)
		})
	}
}

func TestService_Register_Rejects(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()

	err := service.Register(ctx, &domain.User{Name: "Linus", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = service.Register(ctx, &domain.User{Name: "Linus", Email: "l@example.com", Source: "carrier_pigeon"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, service.Register(ctx, &domain.User{Name: "Linus", Email: "l@example.com"}))
	err = service.Register(ctx, &domain.User{Name: "Other", Email: "L@example.com"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestService_RecordEvent(t *testing.T) {
	service, _ := newService()
	ctx := context.Background()
	user := &domain.User{Name: "Linus", Email: "l@example.com"}
	require.NoError(t, service.Register(ctx, user))

	require.NoError(t, service.RecordEvent(ctx, user.ID, domain.LeadEventLogin))
	require.NoError(t, service.RecordEvent(ctx, user.ID, domain.LeadEventAbandonedCart))

	assert.ErrorIs(t, service.RecordEvent(ctx, user.ID, domain.LeadEventPlaceOrder), domain.ErrInvalidInput)
	assert.ErrorIs(t, service.RecordEvent(ctx, uuid.New(), domain.LeadEventLogin), domain.ErrNotFound)

	got, err := service.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5+2-5, got.Score)
}
