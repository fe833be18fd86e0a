package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
	"tipsettle/internal/service"
)

// MockRuleSetService is a mock implementation of service.RuleSetService.
type MockRuleSetService struct {
	mock.Mock
}

func (m *MockRuleSetService) Create(ctx context.Context, rc domain.RequestContext, input *service.CreateRuleSetInput) (*service.RuleSetResult, error) {
	args := m.Called(ctx, rc, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RuleSetResult), args.Error(1)
}

func (m *MockRuleSetService) GetCurrent(ctx context.Context, rc domain.RequestContext, locationID uuid.UUID) (*domain.RuleSet, error) {
	args := m.Called(ctx, rc, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RuleSet), args.Error(1)
}

func (m *MockRuleSetService) List(ctx context.Context, rc domain.RequestContext, locationID uuid.UUID) ([]domain.RuleSet, error) {
	args := m.Called(ctx, rc, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RuleSet), args.Error(1)
}
