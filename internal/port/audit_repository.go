package port

import (
	"context"

	"github.com/google/uuid"

	"tipsettle/internal/domain"
)

// SealFunc computes the chained hash of an event given the previous event's hash.
type SealFunc func(prevHash string, sequence int64) (string, error)

// AuditRepository is the append-only audit trail. There is no update or delete path.
type AuditRepository interface {
	// Append serializes appends per organization: it reads the chain head, calls seal with the
	// head's hash and the next sequence number, and inserts the event.
	Append(ctx context.Context, event *domain.AuditEvent, seal SealFunc) error
	List(ctx context.Context, orgID uuid.UUID, entityType string, entityID *uuid.UUID, offset, limit int) ([]domain.AuditEvent, int, error)
	// Chain returns all events of the organization in sequence order.
	Chain(ctx context.Context, orgID uuid.UUID) ([]domain.AuditEvent, error)
}
