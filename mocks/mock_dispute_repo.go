package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
)

// MockDisputeRepo is a mock implementation of port.DisputeRepository.
type MockDisputeRepo struct {
	mock.Mock
}

func (m *MockDisputeRepo) Create(ctx context.Context, d *domain.Dispute) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDisputeRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Dispute, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}

func (m *MockDisputeRepo) List(ctx context.Context, orgID uuid.UUID, status *domain.DisputeStatus, offset, limit int) ([]domain.Dispute, int, error) {
	args := m.Called(ctx, orgID, status, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Dispute), args.Int(1), args.Error(2)
}

func (m *MockDisputeRepo) TransitionStatus(ctx context.Context, orgID, id uuid.UUID, from []domain.DisputeStatus, to domain.DisputeStatus) (*domain.Dispute, error) {
	args := m.Called(ctx, orgID, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}

func (m *MockDisputeRepo) Close(ctx context.Context, d *domain.Dispute) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

// MockExportRunRepo is a mock implementation of port.ExportRunRepository.
type MockExportRunRepo struct {
	mock.Mock
}

func (m *MockExportRunRepo) Create(ctx context.Context, run *domain.ExportRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}
