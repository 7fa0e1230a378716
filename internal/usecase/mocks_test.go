package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

// MockClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByID(ctx context.Context, id string) (*entity.Client, error) {
	return m.client(m.Called(ctx, id))
}

func (m *MockClientRepository) FindByDomain(ctx context.Context, domain string) (*entity.Client, error) {
	return m.client(m.Called(ctx, domain))
}

func (m *MockClientRepository) FindByEmail(ctx context.Context, email string) (*entity.Client, error) {
	return m.client(m.Called(ctx, email))
}

func (m *MockClientRepository) client(args mock.Arguments) (*entity.Client, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Client), args.Error(1)
}

// MockResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Execute(ctx context.Context, identifier string) (*entity.Client, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Client), args.Error(1)
}

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) ListActive(ctx context.Context, limit int) ([]*entity.Lead, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) ConvertedLeadIDs(ctx context.Context) (map[string]struct{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockLeadRepository) Convert(ctx context.Context, clientID, leadID string, now time.Time) (*entity.Contact, error) {
	args := m.Called(ctx, clientID, leadID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Contact), args.Error(1)
}

// MockSubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) FindByID(ctx context.Context, id string) (*entity.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindTierByID(ctx context.Context, id string) (*entity.SubscriptionTier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SubscriptionTier), args.Error(1)
}

func (m *MockSubscriptionRepository) ListAddOns(ctx context.Context, subscriptionID string) ([]*entity.SubscriptionAddOn, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.SubscriptionAddOn), args.Error(1)
}

func (m *MockSubscriptionRepository) ListActive(ctx context.Context) ([]*entity.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Subscription), args.Error(1)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishConversion(ctx context.Context, event queue.ConversionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
