package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tipsettle/internal/domain"
	"tipsettle/internal/port"
)

type auditRepo struct {
	db *sqlx.DB
}

// NewAuditRepo creates a new PostgreSQL-backed AuditRepository.
// Appends run in their own transaction so they never share fate with the audited operation.
func NewAuditRepo(db *sqlx.DB) port.AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Append(ctx context.Context, ev *domain.AuditEvent, seal port.SealFunc) (err error) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("auditRepo.Append begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// The chain head row serializes appends per organization.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO audit_chain_heads (organization_id, last_sequence, last_hash)
		 VALUES ($1, 0, '') ON CONFLICT (organization_id) DO NOTHING`, ev.OrganizationID)
	if err != nil {
		return fmt.Errorf("auditRepo.Append head init: %w", err)
	}
	var head struct {
		Sequence int64  `db:"last_sequence"`
		Hash     string `db:"last_hash"`
	}
	err = tx.GetContext(ctx, &head,
		`SELECT last_sequence, last_hash FROM audit_chain_heads
		 WHERE organization_id = $1 FOR UPDATE`, ev.OrganizationID)
	if err != nil {
		return fmt.Errorf("auditRepo.Append head lock: %w", err)
	}

	ev.Sequence = head.Sequence + 1
	ev.PrevHash = head.Hash
	hash, err := seal(head.Hash, ev.Sequence)
	if err != nil {
		return fmt.Errorf("auditRepo.Append seal: %w", err)
	}
	ev.ImmutableHash = hash

	_, err = tx.ExecContext(ctx,
		`INSERT INTO audit_events (id, organization_id, sequence, event_type, entity_type, entity_id,
			actor_type, actor_email, before_snapshot, after_snapshot, changes_summary, changes, reason,
			hmrc_relevant, severity, prev_hash, immutable_hash, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		ev.ID, ev.OrganizationID, ev.Sequence, ev.EventType, ev.EntityType, ev.EntityID,
		ev.ActorType, ev.ActorEmail, jsonOrNull(ev.BeforeSnapshot), jsonOrNull(ev.AfterSnapshot),
		ev.ChangesSummary, jsonOrNull(ev.Changes), ev.Reason, ev.HMRCRelevant, ev.Severity,
		ev.PrevHash, ev.ImmutableHash, ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("auditRepo.Append insert: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE audit_chain_heads SET last_sequence = $1, last_hash = $2 WHERE organization_id = $3`,
		ev.Sequence, ev.ImmutableHash, ev.OrganizationID)
	if err != nil {
		return fmt.Errorf("auditRepo.Append head update: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("auditRepo.Append commit: %w", err)
	}
	return nil
}

func (r *auditRepo) List(ctx context.Context, orgID uuid.UUID, entityType string, entityID *uuid.UUID, offset, limit int) ([]domain.AuditEvent, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM audit_events
		 WHERE organization_id = $1
		   AND ($2 = '' OR entity_type = $2)
		   AND ($3::uuid IS NULL OR entity_id = $3)`, orgID, entityType, entityID)
	if err != nil {
		return nil, 0, fmt.Errorf("auditRepo.List count: %w", err)
	}

	var events []domain.AuditEvent
	err = r.db.SelectContext(ctx, &events,
		`SELECT * FROM audit_events
		 WHERE organization_id = $1
		   AND ($2 = '' OR entity_type = $2)
		   AND ($3::uuid IS NULL OR entity_id = $3)
		 ORDER BY sequence DESC
		 LIMIT $4 OFFSET $5`, orgID, entityType, entityID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("auditRepo.List: %w", err)
	}
	return events, total, nil
}

func (r *auditRepo) Chain(ctx context.Context, orgID uuid.UUID) ([]domain.AuditEvent, error) {
	var events []domain.AuditEvent
	err := r.db.SelectContext(ctx, &events,
		"SELECT * FROM audit_events WHERE organization_id = $1 ORDER BY sequence ASC", orgID)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.Chain: %w", err)
	}
	return events, nil
}
