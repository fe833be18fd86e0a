package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
)

// MockRuleSetRepo is a mock implementation of port.RuleSetRepository.
type MockRuleSetRepo struct {
	mock.Mock
}

func (m *MockRuleSetRepo) Create(ctx context.Context, rs *domain.RuleSet) error {
	args := m.Called(ctx, rs)
	return args.Error(0)
}

func (m *MockRuleSetRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.RuleSet, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RuleSet), args.Error(1)
}

func (m *MockRuleSetRepo) GetCurrent(ctx context.Context, orgID, locationID uuid.UUID) (*domain.RuleSet, error) {
	args := m.Called(ctx, orgID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RuleSet), args.Error(1)
}

func (m *MockRuleSetRepo) ListByLocation(ctx context.Context, orgID, locationID uuid.UUID) ([]domain.RuleSet, error) {
	args := m.Called(ctx, orgID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RuleSet), args.Error(1)
}

func (m *MockRuleSetRepo) SupersedeCurrent(ctx context.Context, orgID, locationID uuid.UUID) (int, error) {
	args := m.Called(ctx, orgID, locationID)
	return args.Int(0), args.Error(1)
}
