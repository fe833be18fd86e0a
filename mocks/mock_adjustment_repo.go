package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
)

// MockAdjustmentRepo is a mock implementation of port.AdjustmentRepository.
type MockAdjustmentRepo struct {
	mock.Mock
}

func (m *MockAdjustmentRepo) Create(ctx context.Context, adj *domain.Adjustment) error {
	args := m.Called(ctx, adj)
	return args.Error(0)
}

func (m *MockAdjustmentRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Adjustment, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Adjustment), args.Error(1)
}

func (m *MockAdjustmentRepo) GetByIdempotencyKey(ctx context.Context, orgID uuid.UUID, key string) (*domain.Adjustment, error) {
	args := m.Called(ctx, orgID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Adjustment), args.Error(1)
}

func (m *MockAdjustmentRepo) Review(ctx context.Context, orgID, id uuid.UUID, status domain.AdjustmentStatus, reviewerEmail string) (*domain.Adjustment, error) {
	args := m.Called(ctx, orgID, id, status, reviewerEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Adjustment), args.Error(1)
}

func (m *MockAdjustmentRepo) SumByEmployee(ctx context.Context, orgID, employeeID uuid.UUID) (approved, pending int64, err error) {
	args := m.Called(ctx, orgID, employeeID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}
