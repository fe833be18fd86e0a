package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
)

// MockBatchRepo is a mock implementation of port.BatchRepository.
type MockBatchRepo struct {
	mock.Mock
}

func (m *MockBatchRepo) Create(ctx context.Context, batch *domain.AllocationBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockBatchRepo) CreateLines(ctx context.Context, lines []domain.AllocationLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *MockBatchRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.AllocationBatch, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationBatch), args.Error(1)
}

func (m *MockBatchRepo) GetByIdempotencyKey(ctx context.Context, orgID uuid.UUID, key string) (*domain.AllocationBatch, error) {
	args := m.Called(ctx, orgID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationBatch), args.Error(1)
}

func (m *MockBatchRepo) List(ctx context.Context, orgID uuid.UUID, locationID *uuid.UUID, offset, limit int) ([]domain.AllocationBatch, int, error) {
	args := m.Called(ctx, orgID, locationID, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.AllocationBatch), args.Int(1), args.Error(2)
}

func (m *MockBatchRepo) ListLines(ctx context.Context, orgID, batchID uuid.UUID) ([]domain.AllocationLine, error) {
	args := m.Called(ctx, orgID, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AllocationLine), args.Error(1)
}

func (m *MockBatchRepo) GetLine(ctx context.Context, orgID, lineID uuid.UUID) (*domain.AllocationLine, error) {
	args := m.Called(ctx, orgID, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationLine), args.Error(1)
}

func (m *MockBatchRepo) ListLinesByPayment(ctx context.Context, orgID, paymentID uuid.UUID) ([]domain.AllocationLine, error) {
	args := m.Called(ctx, orgID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AllocationLine), args.Error(1)
}

func (m *MockBatchRepo) TransitionStatus(ctx context.Context, orgID, batchID uuid.UUID, from []domain.BatchStatus, to domain.BatchStatus, actorEmail string) (*domain.AllocationBatch, error) {
	args := m.Called(ctx, orgID, batchID, from, to, actorEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationBatch), args.Error(1)
}

func (m *MockBatchRepo) LockLines(ctx context.Context, orgID, batchID uuid.UUID, hashes map[uuid.UUID]string) (int, error) {
	args := m.Called(ctx, orgID, batchID, hashes)
	return args.Int(0), args.Error(1)
}

func (m *MockBatchRepo) UpdateDraftLineAmount(ctx context.Context, orgID, lineID uuid.UUID, amount int64) (*domain.AllocationLine, error) {
	args := m.Called(ctx, orgID, lineID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationLine), args.Error(1)
}
