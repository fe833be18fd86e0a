package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
	"tipsettle/internal/service"
)

// MockBatchService is a mock implementation of service.BatchService.
type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) Execute(ctx context.Context, rc domain.RequestContext, input *service.ExecuteAllocationInput) (*service.ExecuteAllocationResult, error) {
	args := m.Called(ctx, rc, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExecuteAllocationResult), args.Error(1)
}

func (m *MockBatchService) Get(ctx context.Context, rc domain.RequestContext, batchID uuid.UUID) (*service.BatchDetail, error) {
	args := m.Called(ctx, rc, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchDetail), args.Error(1)
}

func (m *MockBatchService) List(ctx context.Context, rc domain.RequestContext, locationID *uuid.UUID, offset, limit int) ([]domain.AllocationBatch, int, error) {
	args := m.Called(ctx, rc, locationID, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.AllocationBatch), args.Int(1), args.Error(2)
}

func (m *MockBatchService) Submit(ctx context.Context, rc domain.RequestContext, batchID uuid.UUID) (*service.BatchTransitionResult, error) {
	args := m.Called(ctx, rc, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchTransitionResult), args.Error(1)
}

func (m *MockBatchService) Finalise(ctx context.Context, rc domain.RequestContext, batchID uuid.UUID, action string) (*service.BatchTransitionResult, error) {
	args := m.Called(ctx, rc, batchID, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchTransitionResult), args.Error(1)
}

func (m *MockBatchService) UpdateDraftLine(ctx context.Context, rc domain.RequestContext, input *service.UpdateDraftLineInput) (*service.LineUpdateResult, error) {
	args := m.Called(ctx, rc, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LineUpdateResult), args.Error(1)
}
