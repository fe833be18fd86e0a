package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
)

// MockEmployeeRepo is a mock implementation of port.EmployeeRepository.
type MockEmployeeRepo struct {
	mock.Mock
}

func (m *MockEmployeeRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Employee, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Employee), args.Error(1)
}

func (m *MockEmployeeRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]domain.Employee, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Employee), args.Error(1)
}

func (m *MockEmployeeRepo) AddToBalances(ctx context.Context, orgID, employeeID uuid.UUID, pendingDelta, lifetimeDelta int64) error {
	args := m.Called(ctx, orgID, employeeID, pendingDelta, lifetimeDelta)
	return args.Error(0)
}
