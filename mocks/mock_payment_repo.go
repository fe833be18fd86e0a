package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
)

// MockPaymentRepo is a mock implementation of port.PaymentRepository.
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) ListForPeriod(ctx context.Context, orgID, locationID uuid.UUID, from, to time.Time) ([]domain.Payment, error) {
	args := m.Called(ctx, orgID, locationID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

// MockShiftRepo is a mock implementation of port.ShiftRepository.
type MockShiftRepo struct {
	mock.Mock
}

func (m *MockShiftRepo) ListForPeriod(ctx context.Context, orgID, locationID uuid.UUID, from, to time.Time) ([]domain.Shift, error) {
	args := m.Called(ctx, orgID, locationID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Shift), args.Error(1)
}
