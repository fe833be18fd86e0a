package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
	"tipsettle/internal/port"
)

// MockAuditRepo is a mock implementation of port.AuditRepository. When the Append expectation
// returns no error, the event is sealed against the previously appended one and kept in Events.
type MockAuditRepo struct {
	mock.Mock
	Events []domain.AuditEvent
}

func (m *MockAuditRepo) Append(ctx context.Context, event *domain.AuditEvent, seal port.SealFunc) error {
	args := m.Called(ctx, event)
	if err := args.Error(0); err != nil {
		return err
	}
	prev := ""
	if n := len(m.Events); n > 0 {
		prev = m.Events[n-1].ImmutableHash
	}
	hash, err := seal(prev, int64(len(m.Events)+1))
	if err != nil {
		return err
	}
	event.ImmutableHash = hash
	m.Events = append(m.Events, *event)
	return nil
}

func (m *MockAuditRepo) List(ctx context.Context, orgID uuid.UUID, entityType string, entityID *uuid.UUID, offset, limit int) ([]domain.AuditEvent, int, error) {
	args := m.Called(ctx, orgID, entityType, entityID, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.AuditEvent), args.Int(1), args.Error(2)
}

func (m *MockAuditRepo) Chain(ctx context.Context, orgID uuid.UUID) ([]domain.AuditEvent, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEvent), args.Error(1)
}
