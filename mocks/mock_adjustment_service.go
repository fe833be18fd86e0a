package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
	"tipsettle/internal/port"
	"tipsettle/internal/service"
)

// MockAdjustmentService is a mock implementation of service.AdjustmentService.
type MockAdjustmentService struct {
	mock.Mock
}

func (m *MockAdjustmentService) Create(ctx context.Context, rc domain.RequestContext, input *service.CreateAdjustmentInput) (*service.AdjustmentResult, error) {
	args := m.Called(ctx, rc, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AdjustmentResult), args.Error(1)
}

func (m *MockAdjustmentService) CreateInTx(ctx context.Context, tx port.Store, rc domain.RequestContext, input *service.CreateAdjustmentInput) (*service.AdjustmentResult, error) {
	args := m.Called(ctx, tx, rc, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AdjustmentResult), args.Error(1)
}

func (m *MockAdjustmentService) Review(ctx context.Context, rc domain.RequestContext, input *service.ReviewAdjustmentInput) (*service.AdjustmentResult, error) {
	args := m.Called(ctx, rc, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AdjustmentResult), args.Error(1)
}

func (m *MockAdjustmentService) HandleRefundAfterExport(ctx context.Context, rc domain.RequestContext, paymentID uuid.UUID) (*service.RefundClawbackResult, error) {
	args := m.Called(ctx, rc, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RefundClawbackResult), args.Error(1)
}

func (m *MockAdjustmentService) GetEmployeeBalance(ctx context.Context, rc domain.RequestContext, employeeID uuid.UUID) (*domain.EmployeeBalance, error) {
	args := m.Called(ctx, rc, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmployeeBalance), args.Error(1)
}
