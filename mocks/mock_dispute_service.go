package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
	"tipsettle/internal/service"
)

// MockDisputeService is a mock implementation of service.DisputeService.
type MockDisputeService struct {
	mock.Mock
}

func (m *MockDisputeService) Raise(ctx context.Context, rc domain.RequestContext, input *service.RaiseDisputeInput) (*service.DisputeResult, error) {
	args := m.Called(ctx, rc, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DisputeResult), args.Error(1)
}

func (m *MockDisputeService) StartReview(ctx context.Context, rc domain.RequestContext, disputeID uuid.UUID) (*service.DisputeResult, error) {
	args := m.Called(ctx, rc, disputeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DisputeResult), args.Error(1)
}

func (m *MockDisputeService) Resolve(ctx context.Context, rc domain.RequestContext, input *service.ResolveDisputeInput) (*service.DisputeResult, error) {
	args := m.Called(ctx, rc, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DisputeResult), args.Error(1)
}

func (m *MockDisputeService) Get(ctx context.Context, rc domain.RequestContext, disputeID uuid.UUID) (*domain.Dispute, error) {
	args := m.Called(ctx, rc, disputeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}

func (m *MockDisputeService) List(ctx context.Context, rc domain.RequestContext, status *domain.DisputeStatus, offset, limit int) ([]domain.Dispute, int, error) {
	args := m.Called(ctx, rc, status, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Dispute), args.Int(1), args.Error(2)
}
