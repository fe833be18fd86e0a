package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
	"tipsettle/internal/service"
)

// MockAuditService is a mock implementation of service.AuditService.
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Record(ctx context.Context, rc domain.RequestContext, rec service.AuditRecord) error {
	args := m.Called(ctx, rc, rec)
	return args.Error(0)
}

func (m *MockAuditService) List(ctx context.Context, rc domain.RequestContext, filter service.AuditFilter) ([]domain.AuditEvent, int, error) {
	args := m.Called(ctx, rc, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.AuditEvent), args.Int(1), args.Error(2)
}

func (m *MockAuditService) VerifyChain(ctx context.Context, rc domain.RequestContext) (*service.ChainVerification, error) {
	args := m.Called(ctx, rc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChainVerification), args.Error(1)
}
